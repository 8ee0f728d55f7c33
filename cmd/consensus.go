package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridiron-data/warehouse-cli/internal/consensus"
	"github.com/gridiron-data/warehouse-cli/internal/entity"
)

var consensusCmd = &cobra.Command{
	Use:   "consensus [observations.csv]",
	Short: "Aggregate provider observations into consensus values",
	Long:  "Reads per-provider observation rows, stamps the configured provider weights, and computes the weighted mean per (canonical id, metric, as-of) group. Groups whose providers all carry weight zero are reported as no-consensus rather than averaged unweighted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		obs, err := entity.ReadObservationsCSV(f)
		if err != nil {
			return err
		}

		agg := consensus.NewAggregator(cfg.Consensus.Weights)
		report := consensus.Aggregate(agg.ApplyWeights(obs))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CANONICAL ID\tMETRIC\tAS OF\tCONSENSUS\tPROVIDERS")
		fmt.Fprintln(w, "------------\t------\t-----\t---------\t---------")
		for _, v := range report.Values {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%d\n",
				v.CanonicalID, v.Metric, v.AsOf, v.Consensus, v.Providers)
		}
		w.Flush()

		for _, key := range report.NoConsensus {
			fmt.Printf("no consensus for %s/%s as of %s: all provider weights are zero\n",
				key.CanonicalID, key.Metric, key.AsOf)
		}
		if report.UnresolvedCount > 0 {
			fmt.Printf("%d observations carried the unresolved sentinel\n", report.UnresolvedCount)
			zap.L().Warn("observations carried the unresolved sentinel",
				zap.Int("count", report.UnresolvedCount),
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consensusCmd)
}
