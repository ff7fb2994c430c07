package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lastmile-ops/depot-cli/internal/aggregate"
	"github.com/lastmile-ops/depot-cli/internal/ingest"
	"github.com/lastmile-ops/depot-cli/internal/model"
	"github.com/lastmile-ops/depot-cli/internal/report"
	"github.com/lastmile-ops/depot-cli/pkg/narrative"
)

var (
	processFile      string
	processDate      string
	processDomain    string
	processSheet     string
	processHub       string
	processShards    int
	processSave      bool
	processNarrative bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a daily delivery or pickup sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("process"); err != nil {
			return err
		}

		records, err := readRecords(processFile, processSheet)
		if err != nil {
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

		aliases, err := st.FetchAliases(ctx)
		if err != nil {
			return eris.Wrap(err, "fetch aliases")
		}

		hub := processHub
		if hub == "" {
			hub = cfg.Station.HubToken
		}
		shards := processShards
		if shards == 0 {
			shards = cfg.Pipeline.Shards
		}

		res, err := aggregate.ProcessBatch(records, aliases, aggregate.Options{
			Hint:     model.DomainHint(processDomain),
			HubToken: hub,
			Shards:   shards,
		})
		if err != nil {
			return eris.Wrap(err, "process batch")
		}

		var rendered string
		switch res.Domain {
		case model.DomainDelivery:
			rendered = report.FormatDelivery(processDate, res.Delivery)
		case model.DomainPickup:
			rendered = report.FormatPickup(processDate, res.Pickup)
		}
		fmt.Fprintln(os.Stdout, rendered)

		var recap string
		if processNarrative && cfg.Narrative.Enabled {
			s := narrative.NewSummarizer(narrative.NewClient(cfg.Narrative.Key), narrative.Config{
				Model:             cfg.Narrative.Model,
				MaxTokens:         cfg.Narrative.MaxTokens,
				RequestsPerMinute: cfg.Narrative.RequestsPerMinute,
			})
			recap, err = s.Summarize(ctx, rendered)
			if err != nil {
				zap.L().Warn("narrative generation failed", zap.Error(err))
			} else {
				fmt.Fprintln(os.Stdout, recap)
			}
		}

		if !processSave {
			return nil
		}

		rec := &model.HistoricalRecord{
			Date:      processDate,
			Agents:    toAgentEntries(res),
			Narrative: recap,
		}
		if err := st.SaveRecord(ctx, rec); err != nil {
			return eris.Wrap(err, "save record")
		}
		zap.L().Info("record saved",
			zap.String("date", rec.Date),
			zap.Int("agents", len(rec.Agents)),
		)
		return nil
	},
}

// readRecords loads a sheet into raw records, picking the reader by file
// extension.
func readRecords(path, sheet string) ([]model.RawRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ingest.ReadXLSX(path, ingest.XLSXOptions{SheetName: sheet})
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		return ingest.ReadCSV(f, ingest.CSVOptions{})
	default:
		return nil, eris.Errorf("unsupported file type: %s", path)
	}
}

func toAgentEntries(res *aggregate.Result) []model.AgentEntry {
	var entries []model.AgentEntry
	switch res.Domain {
	case model.DomainDelivery:
		for _, s := range res.Delivery.Agents {
			entries = append(entries, model.AgentEntry{
				Name:        s.Agent,
				Delivered:   s.Delivered,
				Total:       s.Total,
				SuccessRate: s.SuccessRate,
				Trackings:   s.AllTrackings,
			})
		}
	case model.DomainPickup:
		for _, s := range res.Pickup.Agents {
			entries = append(entries, model.AgentEntry{
				Name:        s.Agent,
				Delivered:   s.Picked,
				Total:       s.Total,
				SuccessRate: s.SuccessRate,
				Trackings:   s.Trackings,
			})
		}
	}
	return entries
}

func init() {
	processCmd.Flags().StringVar(&processFile, "file", "", "input sheet, .xlsx or .csv (required)")
	processCmd.Flags().StringVar(&processDate, "date", "", "report date, YYYY-MM-DD (required)")
	processCmd.Flags().StringVar(&processDomain, "domain", "auto", "force domain: delivery, pickup, or auto")
	processCmd.Flags().StringVar(&processSheet, "sheet", "", "worksheet name (default first sheet)")
	processCmd.Flags().StringVar(&processHub, "hub", "", "hub token filter for summary sheets (default from config)")
	processCmd.Flags().IntVar(&processShards, "shards", 0, "parallel fold shards (default from config)")
	processCmd.Flags().BoolVar(&processSave, "save", false, "persist the day's record to the store")
	processCmd.Flags().BoolVar(&processNarrative, "narrative", false, "generate a prose recap of the report")
	_ = processCmd.MarkFlagRequired("file")
	_ = processCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(processCmd)
}
