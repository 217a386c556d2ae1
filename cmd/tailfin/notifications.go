package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tailfin-crm/tailfin/internal/state"
	"github.com/tailfin-crm/tailfin/internal/tui"
	"github.com/tailfin-crm/tailfin/pkg/models"
)

var (
	notificationsTUI      bool
	notificationsClear    bool
	notificationsMarkRead bool
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Review notifications",
	Long: `List the notifications emitted by scan cycles. With --tui, opens an
interactive inbox where notifications can be read, dismissed, and
filtered.`,
	RunE: runNotifications,
}

func init() {
	notificationsCmd.Flags().BoolVar(&notificationsTUI, "tui", false, "Open the interactive inbox")
	notificationsCmd.Flags().BoolVar(&notificationsClear, "clear", false, "Delete all notifications")
	notificationsCmd.Flags().BoolVar(&notificationsMarkRead, "mark-read", false, "Mark all notifications as read")
}

func runNotifications(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store := state.NewNotificationStore(db)

	switch {
	case notificationsClear:
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("Notifications cleared.")
		return nil

	case notificationsMarkRead:
		if err := store.MarkAllRead(); err != nil {
			return err
		}
		fmt.Println("All notifications marked read.")
		return nil

	case notificationsTUI:
		return tui.Run(store)
	}

	notifications, err := store.All()
	if err != nil {
		return err
	}
	if len(notifications) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	for _, n := range notifications {
		marker := " "
		if !n.Read {
			marker = color.CyanString("●")
		}
		sev := severityString(n.Severity)
		fmt.Printf("%s %s %s  %s\n", marker, sev, n.CreatedAt.Format("Jan 02 15:04"), n.Title)
		fmt.Printf("    %s\n", n.Message)
	}
	return nil
}

func severityString(sev models.Severity) string {
	switch sev {
	case models.SeverityError:
		return color.RedString("[!]")
	case models.SeverityWarning:
		return color.YellowString("[~]")
	default:
		return color.BlueString("[i]")
	}
}
