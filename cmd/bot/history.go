package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/config"
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/storage"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently played levels from the archive",
		RunE:  runHistory,
	}
	cmd.Flags().IntVar(&historyLimit, "last", 20, "number of plays to show")
	cmd.Flags().StringSliceVar(&historyLevel, "level", nil, "only these level ids")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	dsn := config.ArchiveURL()
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is not set; the archive is disabled")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	db, dialect, err := storage.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.Migrate(db, dialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	archive := storage.NewArchive(db, dialect)
	var plays []domain.Play
	if len(historyLevel) > 0 {
		plays, err = archive.PlaysForLevels(ctx, historyLevel)
	} else {
		plays, err = archive.Recent(ctx, historyLimit)
	}
	if err != nil {
		return err
	}
	return printPlays(cmd, plays)
}

func printPlays(cmd *cobra.Command, plays []domain.Play) error {
	if len(plays) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No plays recorded yet.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tID\tNAME\tBY\tOUTCOME")
	for _, p := range plays {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.At.Local().Format("2006-01-02 15:04"), p.EntryID, p.Name, p.SubmittedBy, p.Outcome)
	}
	return w.Flush()
}
