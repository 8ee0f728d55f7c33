package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

var (
	archiveSource  string
	archiveDataset string
	archiveDate    string
	archiveNotes   string
)

var registryArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Move a registry entry to archived",
	Long:  "Archival is a status transition for retention, never a delete; the entry and its lineage remain in the registry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		date, err := model.ParseDate(archiveDate)
		if err != nil {
			return eris.Wrap(err, "archive")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Archive(ctx, archiveSource, archiveDataset, date, archiveNotes); err != nil {
			return eris.Wrap(err, "archive")
		}

		zap.L().Info("snapshot archived",
			zap.String("source", archiveSource),
			zap.String("dataset", archiveDataset),
			zap.String("date", date.String()),
		)
		return nil
	},
}

func init() {
	registryArchiveCmd.Flags().StringVar(&archiveSource, "source", "", "provider name")
	registryArchiveCmd.Flags().StringVar(&archiveDataset, "dataset", "", "dataset name")
	registryArchiveCmd.Flags().StringVar(&archiveDate, "date", "", "snapshot date to archive (YYYY-MM-DD)")
	registryArchiveCmd.Flags().StringVar(&archiveNotes, "notes", "", "reason for archival")
	_ = registryArchiveCmd.MarkFlagRequired("source")
	_ = registryArchiveCmd.MarkFlagRequired("dataset")
	_ = registryArchiveCmd.MarkFlagRequired("date")

	registryCmd.AddCommand(registryArchiveCmd)
}
