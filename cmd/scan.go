package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridiron-data/warehouse-cli/internal/scan"
	"github.com/gridiron-data/warehouse-cli/internal/selector"
	"github.com/gridiron-data/warehouse-cli/internal/store"
)

var (
	scanSource  string
	scanDataset string
	scanCount   bool
	scanLimit   int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Read the selected parquet partitions through DuckDB",
	Long:  "Resolves the dataset's selection strategy and scans exactly those partitions. With --count only the row count is reported; otherwise up to --limit rows are previewed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		spec, ok := catalog.Get(scanSource, scanDataset)
		if !ok {
			return eris.Errorf("scan: %s/%s is not in the dataset catalog", scanSource, scanDataset)
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

		entries, err := st.List(ctx, store.Filter{Source: scanSource, Dataset: scanDataset})
		if err != nil {
			return err
		}
		dates, err := selector.Select(entries, strategy, selector.Params{BaselineDate: baseline})
		if err != nil {
			return eris.Wrapf(err, "scan: %s/%s", scanSource, scanDataset)
		}

		s, err := scan.NewScanner(cfg.Warehouse.Root)
		if err != nil {
			return err
		}
		defer s.Close()

		if scanCount {
			n, err := s.CountRows(ctx, scanSource, scanDataset, dates)
			if err != nil {
				return err
			}
			fmt.Printf("%d rows across %d partitions\n", n, len(dates))
			return nil
		}

		cols, rows, err := s.Preview(ctx, scanSource, scanDataset, dates, scanLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, strings.Join(cols, "\t"))
		for _, row := range rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		w.Flush()
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanSource, "source", "", "provider name")
	scanCmd.Flags().StringVar(&scanDataset, "dataset", "", "dataset name")
	scanCmd.Flags().BoolVar(&scanCount, "count", false, "report the row count instead of previewing rows")
	scanCmd.Flags().IntVar(&scanLimit, "limit", 10, "maximum rows to preview")
	_ = scanCmd.MarkFlagRequired("source")
	_ = scanCmd.MarkFlagRequired("dataset")

	rootCmd.AddCommand(scanCmd)
}
