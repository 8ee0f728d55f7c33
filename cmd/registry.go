package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gridiron-data/warehouse-cli/internal/model"
	"github.com/gridiron-data/warehouse-cli/internal/store"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and manage the snapshot registry",
}

var (
	registrySource  string
	registryDataset string
	registryStatus  string
)

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.List(ctx, store.Filter{
			Source:  registrySource,
			Dataset: registryDataset,
			Status:  model.Status(registryStatus),
		})
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("no registry entries")
			return nil
		}

		formatEntries(os.Stdout, entries)
		return nil
	},
}

func init() {
	registryListCmd.Flags().StringVar(&registrySource, "source", "", "filter by provider")
	registryListCmd.Flags().StringVar(&registryDataset, "dataset", "", "filter by dataset")
	registryListCmd.Flags().StringVar(&registryStatus, "status", "", "filter by lifecycle status")

	registryCmd.AddCommand(registryListCmd)
	rootCmd.AddCommand(registryCmd)
}

// formatEntries writes a tabular representation of registry entries to w.
func formatEntries(out io.Writer, entries []model.RegistryEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tDATASET\tDATE\tSTATUS\tROWS\tCOVERAGE\tPRODUCED\tNOTES")
	_, _ = fmt.Fprintln(w, "------\t-------\t----\t------\t----\t--------\t--------\t-----")

	for _, e := range entries {
		coverage := "-"
		if e.CoverageStart != nil && e.CoverageEnd != nil {
			coverage = fmt.Sprintf("%d-%d", *e.CoverageStart, *e.CoverageEnd)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			e.Source,
			e.Dataset,
			e.SnapshotDate,
			e.Status,
			e.RowCount,
			coverage,
			e.ProducedAt.Format("2006-01-02 15:04"),
			truncate(e.Notes, 40),
		)
	}
	_ = w.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
