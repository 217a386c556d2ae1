package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tailfin-crm/tailfin/internal/agent"
	"github.com/tailfin-crm/tailfin/internal/config"
	"github.com/tailfin-crm/tailfin/internal/state"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

var initDemoData bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up Tailfin",
	Long: `Initialize Tailfin: create the config file, set up the database, and
seed the default agent team (inbox manager, meeting coordinator,
pipeline analyst, sales assistant). Existing agents are left alone.

With --demo-data, also seeds a small CRM pipeline so analysis steps
have something to chew on before you connect real data.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDemoData, "demo-data", false, "Seed sample leads, deals, and tasks")
}

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println("Initializing Tailfin...")
	fmt.Println()

	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	} else {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (set it or run 'tailfin config anthropic.api_key <key>')", color.FgYellow)
	}

	if _, err := os.Stat(config.GetUserConfigPath()); os.IsNotExist(err) {
		if err := config.Save(config.Default()); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
		printStatus("✓", "Created "+config.GetUserConfigPath(), color.FgGreen)
	} else {
		printStatus("✓", "Config exists at "+config.GetUserConfigPath(), color.FgGreen)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	printStatus("✓", "Database ready at "+db.Path(), color.FgGreen)

	registry := agent.NewRegistry(state.NewAgentStore(db))
	created := 0
	for _, a := range agent.DefaultAgents() {
		existing, err := registry.Get(a.ID)
		if err != nil {
			return fmt.Errorf("check agent %s: %w", a.ID, err)
		}
		if existing != nil {
			continue
		}
		if err := registry.Create(a); err != nil {
			return fmt.Errorf("create agent %s: %w", a.ID, err)
		}
		created++
	}
	if created > 0 {
		printStatus("✓", fmt.Sprintf("Seeded %d default agents", created), color.FgGreen)
	} else {
		printStatus("✓", "Default agents already present", color.FgGreen)
	}

	if initDemoData {
		if err := seedDemoData(db); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		printStatus("✓", "Seeded demo CRM data", color.FgGreen)
	}

	fmt.Printf("\n%s Tailfin is ready. Start the daemon with 'tailfin run'.\n", color.GreenString("✓"))
	return nil
}

// seedDemoData inserts a small pipeline so a first scan produces
// meaningful analysis output.
func seedDemoData(db *state.DB) error {
	crm := state.NewCRMStore(db)
	now := time.Now()

	leads := []models.Lead{
		{ID: uuid.NewString(), Name: "Dana Whitfield", Company: "Northgate Logistics", Email: "dana@northgate.example", Status: models.LeadStatusQualified, Score: 82, CreatedAt: now},
		{ID: uuid.NewString(), Name: "Marcus Chen", Company: "Brightline Media", Email: "marcus@brightline.example", Status: models.LeadStatusContacted, Score: 64, CreatedAt: now},
		{ID: uuid.NewString(), Name: "Priya Raman", Company: "Corival Health", Email: "priya@corival.example", Status: models.LeadStatusNew, Score: 45, CreatedAt: now},
	}
	for _, l := range leads {
		if err := crm.SaveLead(l); err != nil {
			return err
		}
	}

	deals := []models.Deal{
		{ID: uuid.NewString(), Title: "Northgate annual contract", Value: 48000, Stage: models.DealStageNegotiation, Probability: 70, Contact: "Dana Whitfield", CreatedAt: now},
		{ID: uuid.NewString(), Title: "Brightline pilot", Value: 12000, Stage: models.DealStageProposal, Probability: 45, Contact: "Marcus Chen", CreatedAt: now},
		{ID: uuid.NewString(), Title: "Corival expansion", Value: 95000, Stage: models.DealStageProspecting, Probability: 20, Contact: "Priya Raman", CreatedAt: now},
	}
	for _, d := range deals {
		if err := crm.SaveDeal(d); err != nil {
			return err
		}
	}

	overdue := now.AddDate(0, 0, -2)
	upcoming := now.AddDate(0, 0, 3)
	tasks := []models.CRMTask{
		{ID: uuid.NewString(), Title: "Send revised proposal to Brightline", DueDate: &overdue, Priority: "high"},
		{ID: uuid.NewString(), Title: "Schedule discovery call with Corival", DueDate: &upcoming, Priority: "medium"},
		{ID: uuid.NewString(), Title: "Follow up on Northgate contract terms", Priority: "high"},
	}
	for _, t := range tasks {
		if err := crm.SaveTask(t); err != nil {
			return err
		}
	}

	return nil
}

// printStatus prints a colored status line.
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
