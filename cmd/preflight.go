package main

import (
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/gridiron-data/warehouse-cli/internal/preflight"
)

var (
	preflightFail       bool
	preflightFailOnGaps bool
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Run the full pre-ingestion sweep",
	Long:  "Checks every cataloged dataset: manifest validity, freshness, coverage continuity, and row-count deltas. A plain run prints the itemized report and exits zero regardless of findings. --fail exits non-zero on blocking findings (invalid manifests, stale-error, no current snapshot); --fail-on-gaps exits non-zero on advisory coverage and row-delta findings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}

		runner := preflight.NewRunner(st, catalog, cfg, clockwork.NewRealClock())
		report, err := runner.Run(ctx, catalog.Datasets)
		st.Close()
		if err != nil {
			return err
		}

		preflight.FormatReport(os.Stdout, report)

		if preflightShouldExit(report, preflightFail, preflightFailOnGaps) {
			os.Exit(1)
		}
		return nil
	},
}

// preflightShouldExit decides the process exit. The sweep itself only
// reports; a non-zero exit happens only when the operator asked for a gate.
func preflightShouldExit(report *preflight.Report, fail, failOnGaps bool) bool {
	return (fail && report.HasErrors()) || (failOnGaps && report.HasGaps())
}

func init() {
	preflightCmd.Flags().BoolVar(&preflightFail, "fail", false, "exit non-zero when any blocking finding is present")
	preflightCmd.Flags().BoolVar(&preflightFailOnGaps, "fail-on-gaps", false, "exit non-zero on advisory coverage and row-delta findings")
	rootCmd.AddCommand(preflightCmd)
}
