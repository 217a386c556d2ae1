package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tailfin-crm/tailfin/internal/agent"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

var chatCmd = &cobra.Command{
	Use:   "chat <agent-id>",
	Short: "Chat with an agent",
	Long: `Open an interactive conversation with an agent. History is kept per
agent (last 20 turns) and persists across sessions. Exit with Ctrl+D
or by typing /quit.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
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

	service := agent.NewChatService(registry, chatterFactory())

	name := color.CyanString(a.Name)
	fmt.Printf("Chatting with %s %s. Ctrl+D or /quit to exit.\n\n", a.Avatar, name)

	// Replay the stored history so the conversation picks up where it
	// left off.
	for _, msg := range a.Messages {
		printTurn(a.Name, msg.Role == models.ChatRoleAssistant, msg.Content)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.New(color.Bold).Sprint("you> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" || text == "/exit" {
			return nil
		}

		reply, err := service.Send(context.Background(), a.ID, text)
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		printTurn(a.Name, true, reply.Content)
	}
}

func printTurn(agentName string, assistant bool, content string) {
	if assistant {
		fmt.Printf("%s %s\n", color.CyanString(agentName+">"), content)
	} else {
		fmt.Printf("%s %s\n", color.New(color.Bold).Sprint("you>"), content)
	}
}
