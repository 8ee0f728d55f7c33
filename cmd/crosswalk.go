package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridiron-data/warehouse-cli/internal/entity"
)

var crosswalkCmd = &cobra.Command{
	Use:   "crosswalk",
	Short: "Manage the canonical entity crosswalk",
}

var crosswalkImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import crosswalk records from CSV or XLSX",
	Long:  "Loads long-format crosswalk rows (one row per canonical id and provider pair), validates the build invariants, and upserts the records. A native id claimed by two canonical ids fails the whole import before anything is written.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		recs, err := entity.OpenCrosswalk(args[0])
		if err != nil {
			return err
		}

		// Building a resolver proves the records index cleanly before they
		// touch the store.
		if _, err := entity.NewResolver(recs, nil); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.UpsertCrosswalk(ctx, recs); err != nil {
			return err
		}

		zap.L().Info("crosswalk imported",
			zap.String("file", args[0]),
			zap.Int("records", len(recs)),
		)
		fmt.Printf("%d crosswalk records imported\n", len(recs))
		return nil
	},
}

var crosswalkAliasesCmd = &cobra.Command{
	Use:   "aliases [file]",
	Short: "Import curated alias rows from CSV",
	Long:  "Appends (alias_text, source) -> canonical id rows. Duplicate pairs are skipped; a pair that would point at a different canonical id than an existing row is rejected by the resolver build on next use.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		recs, err := entity.ReadAliasCSV(f)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		inserted, err := st.InsertAliases(ctx, recs)
		if err != nil {
			return err
		}

		fmt.Printf("%d aliases inserted, %d already present\n", inserted, len(recs)-inserted)
		return nil
	},
}

func init() {
	crosswalkCmd.AddCommand(crosswalkImportCmd)
	crosswalkCmd.AddCommand(crosswalkAliasesCmd)
	rootCmd.AddCommand(crosswalkCmd)
}
