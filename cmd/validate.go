package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridiron-data/warehouse-cli/internal/manifest"
)

var validateFail bool

var validateCmd = &cobra.Command{
	Use:   "validate [manifest files...]",
	Short: "Validate manifest sidecars",
	Long:  "Checks manifests for required fields, coverage consistency, and catalog membership. With no arguments, every sidecar under the warehouse root is checked. Validation always runs to completion so one bad manifest cannot hide its siblings' problems.",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		paths := args
		if len(paths) == 0 {
			paths, err = manifest.Discover(cfg.Warehouse.Root)
			if err != nil {
				return err
			}
		}
		if len(paths) == 0 {
			zap.L().Info("no manifests found", zap.String("root", cfg.Warehouse.Root))
			return nil
		}

		v := manifest.NewValidator(catalog, clockwork.NewRealClock())
		report := v.ValidateFiles(paths)

		invalid := 0
		for _, f := range report.Findings {
			if f.Valid() {
				fmt.Printf("ok      %s\n", f.Path)
				continue
			}
			invalid++
			fmt.Printf("INVALID %s: %s\n", f.Path, strings.Join(f.Reasons, "; "))
		}
		fmt.Printf("\n%d manifests checked, %d invalid\n", len(report.Findings), invalid)

		if validateFail && invalid > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateFail, "fail", false, "exit non-zero when any manifest is invalid")
	rootCmd.AddCommand(validateCmd)
}
