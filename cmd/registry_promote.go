package main

import (
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridiron-data/warehouse-cli/internal/model"
	"github.com/gridiron-data/warehouse-cli/internal/preflight"
)

var (
	promoteSource  string
	promoteDataset string
	promoteDate    string
)

var registryPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote a registered snapshot to current",
	Long:  "Makes the entry the dataset's single current snapshot; the prior current moves to historical when it is the dataset's baseline anchor, else to archived. A stale-error snapshot is refused and the prior current stays in force (last-known-good).",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		date, err := model.ParseDate(promoteDate)
		if err != nil {
			return eris.Wrap(err, "promote")
		}

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		spec, ok := catalog.Get(promoteSource, promoteDataset)
		if !ok {
			return eris.Errorf("promote: %s/%s is not in the dataset catalog", promoteSource, promoteDataset)
		}
		baseline, err := spec.BaselineDate()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		entry, err := st.Get(ctx, promoteSource, promoteDataset, date)
		if err != nil {
			return eris.Wrap(err, "promote")
		}

		// Freshness gates promotion: a stale-error snapshot never becomes
		// current, and downstream reads continue against the prior current.
		runner := preflight.NewRunner(st, catalog, cfg, clockwork.NewRealClock())
		if err := runner.CheckPromotion(*entry); err != nil {
			return eris.Wrapf(err, "promote %s", entry.Key())
		}

		if err := st.Promote(ctx, promoteSource, promoteDataset, date, baseline); err != nil {
			return eris.Wrap(err, "promote")
		}

		zap.L().Info("snapshot promoted to current",
			zap.String("source", promoteSource),
			zap.String("dataset", promoteDataset),
			zap.String("date", date.String()),
		)
		return nil
	},
}

func init() {
	registryPromoteCmd.Flags().StringVar(&promoteSource, "source", "", "provider name")
	registryPromoteCmd.Flags().StringVar(&promoteDataset, "dataset", "", "dataset name")
	registryPromoteCmd.Flags().StringVar(&promoteDate, "date", "", "snapshot date to promote (YYYY-MM-DD)")
	_ = registryPromoteCmd.MarkFlagRequired("source")
	_ = registryPromoteCmd.MarkFlagRequired("dataset")
	_ = registryPromoteCmd.MarkFlagRequired("date")

	registryCmd.AddCommand(registryPromoteCmd)
}
