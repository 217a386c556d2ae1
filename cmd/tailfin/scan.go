package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailfin-crm/tailfin/internal/config"
	"github.com/tailfin-crm/tailfin/internal/state"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan cycle",
	Long: `Run one scan cycle over all active agents and exit. Useful for
cron-style scheduling or testing a workflow change without starting
the daemon.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	orch := buildOrchestrator(cfg, db)
	if err := orch.RunCycle(context.Background()); err != nil {
		return err
	}

	unread, err := state.NewNotificationStore(db).UnreadCount()
	if err == nil && unread > 0 {
		fmt.Printf("Scan complete: %d unread notifications. Run 'tailfin notifications' to review.\n", unread)
	} else {
		fmt.Println("Scan complete.")
	}
	return nil
}
