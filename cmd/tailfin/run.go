package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tailfin-crm/tailfin/internal/agent"
	"github.com/tailfin-crm/tailfin/internal/config"
	"github.com/tailfin-crm/tailfin/internal/orchestrator"
	"github.com/tailfin-crm/tailfin/internal/state"
)

var runInterval time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scan daemon",
	Long: `Run the Tailfin daemon: a scan cycle fires immediately, then on a
fixed interval until interrupted. Each cycle walks every active
agent's workflow in order.

The interval comes from scan.interval in the config; --interval
overrides it for this run. If agents.presets points at a YAML file,
the daemon watches it and reloads agent definitions on change.`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Override the scan interval (e.g. 2m, 90s)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	interval := cfg.Scan.Interval
	if runInterval > 0 {
		interval = runInterval
	}
	if interval <= 0 {
		return fmt.Errorf("invalid scan interval %s", interval)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Debug.Enabled {
		logger, err := orchestrator.NewDebugLogger(cfg.Debug.LogPath)
		if err != nil {
			log.Printf("debug log unavailable: %v", err)
		} else {
			orchestrator.SetPackageLogger(logger)
			defer logger.Close()
		}
	}

	orch := buildOrchestrator(cfg, db)

	if cfg.Agents.PresetsPath != "" {
		registry := agent.NewRegistry(state.NewAgentStore(db))
		watcher, err := agent.WatchPresets(cfg.Agents.PresetsPath, registry)
		if err != nil {
			log.Printf("preset watch on %s unavailable: %v", cfg.Agents.PresetsPath, err)
		} else {
			defer watcher.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("tailfin daemon started, scanning every %s", interval)

	// First cycle fires immediately rather than waiting a full interval.
	if err := orch.RunCycle(ctx); err != nil {
		log.Printf("scan cycle failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("shutting down")
			return nil
		case <-ticker.C:
			if err := orch.RunCycle(ctx); err != nil {
				log.Printf("scan cycle failed: %v", err)
			}
		}
	}
}
