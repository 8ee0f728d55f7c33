package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridiron-data/warehouse-cli/internal/manifest"
	"github.com/gridiron-data/warehouse-cli/internal/store"
)

var registerNotes string

var registryRegisterCmd = &cobra.Command{
	Use:   "register [manifest files...]",
	Short: "Validate manifests and record them as pending",
	Long:  "Each manifest that passes validation is appended to the registry as pending. Failures are per-manifest: one bad sidecar never blocks its siblings, and the full outcome is reported at the end.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

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

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		v := manifest.NewValidator(catalog, clockwork.NewRealClock())
		report := v.ValidateFiles(paths)

		registered, skipped, failed := 0, 0, 0
		for _, f := range report.Findings {
			if !f.Valid() {
				failed++
				fmt.Printf("INVALID %s: %s\n", f.Path, strings.Join(f.Reasons, "; "))
				continue
			}

			_, err := st.Register(ctx, f.Manifest, registerNotes)
			switch {
			case errors.Is(err, store.ErrAlreadyRegistered):
				skipped++
			case err != nil:
				failed++
				fmt.Printf("FAILED  %s: %v\n", f.Path, err)
			default:
				registered++
				zap.L().Info("snapshot registered",
					zap.String("source", f.Manifest.Source),
					zap.String("dataset", f.Manifest.Dataset),
					zap.String("date", f.Manifest.SnapshotDate.String()),
				)
			}
		}

		fmt.Printf("\n%d registered, %d already present, %d failed\n", registered, skipped, failed)
		if failed > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	registryRegisterCmd.Flags().StringVar(&registerNotes, "notes", "", "free-text notes for the new entries")
	registryCmd.AddCommand(registryRegisterCmd)
}
