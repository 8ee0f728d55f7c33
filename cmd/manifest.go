package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridiron-data/warehouse-cli/internal/manifest"
	"github.com/gridiron-data/warehouse-cli/internal/model"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Manage snapshot manifest sidecars",
}

var (
	manifestSource      string
	manifestDataset     string
	manifestDate        string
	manifestRows        int64
	manifestCovStart    int
	manifestCovEnd      int
	manifestProducerVer string
)

var manifestWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the manifest sidecar for a produced partition",
	Long:  "Emits manifest.json next to a snapshot partition. Manifests are immutable: writing over an existing one fails, and a re-run that needs different contents must use a new snapshot date.",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := model.ParseDate(manifestDate)
		if err != nil {
			return eris.Wrap(err, "manifest write")
		}

		m := &model.Manifest{
			Source:          manifestSource,
			Dataset:         manifestDataset,
			SnapshotDate:    date,
			RowCount:        manifestRows,
			ProducedAt:      time.Now().UTC(),
			ProducerVersion: manifestProducerVer,
		}
		if cmd.Flags().Changed("coverage-start") {
			m.CoverageStart = &manifestCovStart
		}
		if cmd.Flags().Changed("coverage-end") {
			m.CoverageEnd = &manifestCovEnd
		}

		path, err := manifest.Write(cfg.Warehouse.Root, m)
		if err != nil {
			return err
		}

		zap.L().Info("manifest written",
			zap.String("path", path),
			zap.String("source", m.Source),
			zap.String("dataset", m.Dataset),
			zap.Int64("rows", m.RowCount),
		)
		return nil
	},
}

func init() {
	manifestWriteCmd.Flags().StringVar(&manifestSource, "source", "", "provider name")
	manifestWriteCmd.Flags().StringVar(&manifestDataset, "dataset", "", "logical dataset name")
	manifestWriteCmd.Flags().StringVar(&manifestDate, "date", "", "snapshot date (YYYY-MM-DD)")
	manifestWriteCmd.Flags().Int64Var(&manifestRows, "rows", 0, "row count of the partition")
	manifestWriteCmd.Flags().IntVar(&manifestCovStart, "coverage-start", 0, "first covered season")
	manifestWriteCmd.Flags().IntVar(&manifestCovEnd, "coverage-end", 0, "last covered season")
	manifestWriteCmd.Flags().StringVar(&manifestProducerVer, "producer-version", "", "version of the producing job")
	_ = manifestWriteCmd.MarkFlagRequired("source")
	_ = manifestWriteCmd.MarkFlagRequired("dataset")
	_ = manifestWriteCmd.MarkFlagRequired("date")
	_ = manifestWriteCmd.MarkFlagRequired("producer-version")

	manifestCmd.AddCommand(manifestWriteCmd)
	rootCmd.AddCommand(manifestCmd)
}
