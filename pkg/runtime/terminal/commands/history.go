package commands

import (
	"fmt"

	"github.com/de-tools/job-pulse/pkg/runtime/terminal/export"
	"github.com/de-tools/job-pulse/pkg/store/duckdb"
	"github.com/de-tools/job-pulse/pkg/store/duckdb/history"
	"github.com/spf13/cobra"
)

type HistoryCmd struct {
	dbPath   string
	title    string
	limit    int
	reporter *export.Reporter
}

func NewHistoryCmd(reporter *export.Reporter) *cobra.Command {
	hc := &HistoryCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent publish runs",
		RunE:  hc.run,
	}

	cmd.Flags().StringVar(&hc.dbPath, "db", "", "Path to the publish history database")
	cmd.Flags().StringVar(&hc.title, "title", "", "Only list runs for this title")
	cmd.Flags().IntVar(&hc.limit, "limit", 20, "Maximum number of runs to list")

	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func (hc *HistoryCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if hc.limit < 1 {
		return fmt.Errorf("limit must be at least 1")
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: hc.dbPath})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	store, err := history.NewStore(db)
	if err != nil {
		return err
	}

	records, err := store.List(ctx, hc.title, hc.limit)
	if err != nil {
		return err
	}

	return hc.reporter.HandleHistory(records)
}
