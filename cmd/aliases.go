package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lastmile-ops/depot-cli/internal/identity"
	"github.com/lastmile-ops/depot-cli/internal/store"
)

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Manage the alias table",
}

var aliasesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all alias rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAliasStore(cmd, func(st store.Store, table identity.AliasTable) error {
			sources := make([]string, 0, len(table))
			for src := range table {
				sources = append(sources, src)
			}
			sort.Strings(sources)
			for _, src := range sources {
				fmt.Fprintf(os.Stdout, "%s -> %s\n", src, table[src])
			}
			return nil
		})
	},
}

var aliasesExportFile string

var aliasesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the alias table to a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAliasStore(cmd, func(st store.Store, table identity.AliasTable) error {
			data, err := yaml.Marshal(map[string]string(table))
			if err != nil {
				return eris.Wrap(err, "marshal aliases")
			}
			if err := os.WriteFile(aliasesExportFile, data, 0644); err != nil {
				return eris.Wrapf(err, "write %s", aliasesExportFile)
			}
			fmt.Fprintf(os.Stdout, "exported %d aliases to %s\n", len(table), aliasesExportFile)
			return nil
		})
	},
}

var aliasesImportFile string

var aliasesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the alias table from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAliasStore(cmd, func(st store.Store, _ identity.AliasTable) error {
			data, err := os.ReadFile(aliasesImportFile)
			if err != nil {
				return eris.Wrapf(err, "read %s", aliasesImportFile)
			}

			var raw map[string]string
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return eris.Wrapf(err, "parse %s", aliasesImportFile)
			}

			table := make(identity.AliasTable, len(raw))
			for src, dst := range raw {
				table[identity.Canonicalize(src)] = identity.Canonicalize(dst)
			}
			table.Flatten()

			if err := st.SaveAliases(cmd.Context(), table); err != nil {
				return eris.Wrap(err, "save aliases")
			}
			zap.L().Info("aliases imported",
				zap.String("file", aliasesImportFile),
				zap.Int("count", len(table)),
			)
			return nil
		})
	},
}

// withAliasStore opens the store, loads the alias table, and hands both to fn.
func withAliasStore(cmd *cobra.Command, fn func(store.Store, identity.AliasTable) error) error {
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

	table, err := st.FetchAliases(ctx)
	if err != nil {
		return eris.Wrap(err, "fetch aliases")
	}

	return fn(st, table)
}

func init() {
	aliasesExportCmd.Flags().StringVar(&aliasesExportFile, "out", "aliases.yaml", "output file")
	aliasesImportCmd.Flags().StringVar(&aliasesImportFile, "in", "aliases.yaml", "input file")
	aliasesCmd.AddCommand(aliasesListCmd, aliasesExportCmd, aliasesImportCmd)
	rootCmd.AddCommand(aliasesCmd)
}
