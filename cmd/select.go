package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridiron-data/warehouse-cli/internal/scan"
	"github.com/gridiron-data/warehouse-cli/internal/selector"
	"github.com/gridiron-data/warehouse-cli/internal/store"
)

var (
	selectSource  string
	selectDataset string
	selectGlobs   bool
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Resolve a dataset's strategy to concrete snapshot dates",
	Long:  "Applies the dataset's cataloged selection strategy to its registry entries and prints the snapshot dates a downstream read should scan, in ascending order. With --globs the dates are rendered as parquet partition globs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		spec, ok := catalog.Get(selectSource, selectDataset)
		if !ok {
			return eris.Errorf("select: %s/%s is not in the dataset catalog", selectSource, selectDataset)
		}
		strategy, err := selector.ParseStrategy(spec.Strategy)
		if err != nil {
			return err
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

		entries, err := st.List(ctx, store.Filter{Source: selectSource, Dataset: selectDataset})
		if err != nil {
			return err
		}

		dates, err := selector.Select(entries, strategy, selector.Params{BaselineDate: baseline})
		if err != nil {
			return eris.Wrapf(err, "select: %s/%s", selectSource, selectDataset)
		}

		if selectGlobs {
			s, err := scan.NewScanner(cfg.Warehouse.Root)
			if err != nil {
				return err
			}
			defer s.Close()
			for _, g := range s.PartitionGlobs(selectSource, selectDataset, dates) {
				fmt.Println(g)
			}
			return nil
		}

		for _, d := range dates {
			fmt.Println(d)
		}
		return nil
	},
}

func init() {
	selectCmd.Flags().StringVar(&selectSource, "source", "", "provider name")
	selectCmd.Flags().StringVar(&selectDataset, "dataset", "", "dataset name")
	selectCmd.Flags().BoolVar(&selectGlobs, "globs", false, "print parquet partition globs instead of dates")
	_ = selectCmd.MarkFlagRequired("source")
	_ = selectCmd.MarkFlagRequired("dataset")

	rootCmd.AddCommand(selectCmd)
}
