package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and maintain persisted daily records",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("admin"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		records, err := st.FetchHistory(ctx)
		if err != nil {
			return eris.Wrap(err, "fetch history")
		}

		for _, rec := range records {
			fmt.Fprintf(os.Stdout, "%s  %d agents", rec.Date, len(rec.Agents))
			if rec.Narrative != "" {
				fmt.Fprint(os.Stdout, "  [narrative]")
			}
			fmt.Fprintln(os.Stdout)
		}
		return nil
	},
}

var pruneRetentionDays int

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("admin"); err != nil {
			return err
		}

		days := pruneRetentionDays
		if days == 0 {
			days = cfg.Station.RetentionDays
		}
		if days <= 0 {
			return eris.New("retention days must be > 0")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
		n, err := st.DeleteOldRecords(ctx, cutoff)
		if err != nil {
			return eris.Wrap(err, "prune history")
		}

		zap.L().Info("history pruned",
			zap.String("cutoff", cutoff),
			zap.Int("deleted", n),
		)
		fmt.Fprintf(os.Stdout, "deleted %d records before %s\n", n, cutoff)
		return nil
	},
}

func init() {
	historyPruneCmd.Flags().IntVar(&pruneRetentionDays, "retention-days", 0, "override the configured retention window")
	historyCmd.AddCommand(historyListCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}
