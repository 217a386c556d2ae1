package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tailfin-crm/tailfin/internal/agent"
	"github.com/tailfin-crm/tailfin/internal/state"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage agents",
	Long: `List, pause, and resume agents. Paused agents keep their workflow
and stats but are skipped by scan cycles.`,
	RunE: runAgentsList,
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all agents",
	RunE:  runAgentsList,
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <agent-id>",
	Short: "Show an agent's workflow and stats",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsShow,
}

var agentsPauseCmd = &cobra.Command{
	Use:   "pause <agent-id>",
	Short: "Pause an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAgentStatus(args[0], models.AgentStatusPaused)
	},
}

var agentsResumeCmd = &cobra.Command{
	Use:   "resume <agent-id>",
	Short: "Resume a paused agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setAgentStatus(args[0], models.AgentStatusActive)
	},
}

var agentsDeleteCmd = &cobra.Command{
	Use:   "delete <agent-id>",
	Short: "Delete an agent",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentsDelete,
}

func init() {
	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsShowCmd)
	agentsCmd.AddCommand(agentsPauseCmd)
	agentsCmd.AddCommand(agentsResumeCmd)
	agentsCmd.AddCommand(agentsDeleteCmd)
}

func openRegistry() (*agent.Registry, func(), error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	registry := agent.NewRegistry(state.NewAgentStore(db))
	return registry, func() { db.Close() }, nil
}

func runAgentsList(cmd *cobra.Command, args []string) error {
	registry, done, err := openRegistry()
	if err != nil {
		return err
	}
	defer done()

	agents, err := registry.All()
	if err != nil {
		return fmt.Errorf("list agents: %w", err)
	}

	if len(agents) == 0 {
		fmt.Println("No agents configured. Run 'tailfin init' to create the defaults.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCATEGORY\tCYCLES\tEFFICIENCY")
	for _, a := range agents {
		status := string(a.Status)
		if a.IsActive() {
			status = color.GreenString(status)
		} else {
			status = color.YellowString(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.1f\n",
			a.ID, a.Name, status, a.Category, a.TasksCompleted, a.Efficiency)
	}
	return w.Flush()
}

func runAgentsShow(cmd *cobra.Command, args []string) error {
	registry, done, err := openRegistry()
	if err != nil {
		return err
	}
	defer done()

	a, err := registry.Get(args[0])
	if err != nil {
		return fmt.Errorf("get agent: %w", err)
	}
	if a == nil {
		return fmt.Errorf("no agent with id %q", args[0])
	}

	fmt.Printf("%s %s (%s)\n", a.Avatar, color.New(color.Bold).Sprint(a.Name), a.ID)
	fmt.Printf("Role:       %s\n", a.Role)
	if a.Description != "" {
		fmt.Printf("About:      %s\n", a.Description)
	}
	fmt.Printf("Status:     %s\n", a.Status)
	fmt.Printf("Category:   %s\n", a.Category)
	fmt.Printf("Cycles:     %d\n", a.TasksCompleted)
	fmt.Printf("Efficiency: %.1f\n", a.Efficiency)

	fmt.Println("\nWorkflow:")
	if len(a.Workflow) == 0 {
		fmt.Println("  (empty — this agent is skipped during scans)")
	}
	for i, step := range a.Workflow {
		action := ""
		if step.Data != nil && step.Data.Action != "" {
			action = fmt.Sprintf(" → %s", step.Data.Action)
		}
		fmt.Printf("  %d. [%s] %s%s\n", i+1, step.Kind, step.Label, action)
	}
	return nil
}

func setAgentStatus(id string, status models.AgentStatus) error {
	registry, done, err := openRegistry()
	if err != nil {
		return err
	}
	defer done()

	if err := registry.SetStatus(id, status); err != nil {
		return err
	}
	fmt.Printf("Agent %s is now %s.\n", id, status)
	return nil
}

func runAgentsDelete(cmd *cobra.Command, args []string) error {
	registry, done, err := openRegistry()
	if err != nil {
		return err
	}
	defer done()

	if err := registry.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Agent %s deleted.\n", args[0])
	return nil
}
