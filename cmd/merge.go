package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lastmile-ops/depot-cli/internal/merge"
)

var (
	mergeSource  string
	mergeTarget  string
	mergeDates   []string
	mergePersist bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge one courier identity into another, rewriting history",
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

		engine := merge.NewEngine(st)
		res, err := engine.Merge(ctx, mergeSource, mergeTarget, mergeDates, mergePersist)
		if err != nil {
			return eris.Wrap(err, "merge")
		}

		if res.NoOp {
			fmt.Fprintln(os.Stdout, "nothing to do: source and target resolve to the same identity")
			return nil
		}

		zap.L().Info("merge complete",
			zap.String("source", res.Source),
			zap.String("target", res.Target),
			zap.Strings("updated_dates", res.UpdatedDates),
			zap.Bool("alias_saved", res.AliasSaved),
		)
		fmt.Fprintf(os.Stdout, "merged %s into %s (%d dates rewritten)\n",
			res.Source, res.Target, len(res.UpdatedDates))
		return nil
	},
}

var deleteYes bool

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage courier identities",
}

var agentsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove an agent from every historical record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !deleteYes {
			return eris.New("refusing to delete without --yes")
		}

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

		engine := merge.NewEngine(st)
		if err := engine.Delete(ctx, args[0]); err != nil {
			return eris.Wrapf(err, "delete agent %s", args[0])
		}

		fmt.Fprintf(os.Stdout, "deleted %s from all records\n", args[0])
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeSource, "source", "", "raw or canonical name to merge away (required)")
	mergeCmd.Flags().StringVar(&mergeTarget, "target", "", "identity to merge into (required)")
	mergeCmd.Flags().StringSliceVar(&mergeDates, "dates", nil, "dates whose records to rewrite, YYYY-MM-DD")
	mergeCmd.Flags().BoolVar(&mergePersist, "persist", true, "save the merge as an alias rule for future batches")
	_ = mergeCmd.MarkFlagRequired("source")
	_ = mergeCmd.MarkFlagRequired("target")
	rootCmd.AddCommand(mergeCmd)

	agentsDeleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "confirm the deletion")
	agentsCmd.AddCommand(agentsDeleteCmd)
	rootCmd.AddCommand(agentsCmd)
}
