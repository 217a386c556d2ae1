package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tailfin-crm/tailfin/internal/state"
)

var insightsClear bool

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Review accumulated insights",
	Long: `List the insights persisted by scan cycles: lead scores, deal
predictions, follow-up suggestions, and the rest. Insights accumulate
until cleared with --clear.`,
	RunE: runInsights,
}

func init() {
	insightsCmd.Flags().BoolVar(&insightsClear, "clear", false, "Delete all insights")
}

func runInsights(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store := state.NewInsightStore(db)

	if insightsClear {
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("Insights cleared.")
		return nil
	}

	insights, err := store.All()
	if err != nil {
		return err
	}
	if len(insights) == 0 {
		fmt.Println("No insights yet. Run 'tailfin scan' to generate some.")
		return nil
	}

	for _, in := range insights {
		fmt.Printf("%s %s (%d%% confidence)\n",
			color.CyanString("[%s]", in.Type), color.New(color.Bold).Sprint(in.Title), in.Confidence)
		if in.Description != "" {
			fmt.Printf("    %s\n", in.Description)
		}
		if in.RecommendedAction != "" {
			fmt.Printf("    → %s\n", in.RecommendedAction)
		}
	}
	return nil
}
