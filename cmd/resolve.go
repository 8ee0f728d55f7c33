package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridiron-data/warehouse-cli/internal/entity"
)

var (
	resolveProvider string
	resolveNativeID string
	resolveName     string
	resolveTeam     string
	resolvePosition string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a provider record to a canonical entity id",
	Long:  "Runs the tiered resolution cascade (native id, display name, alias) against the curated crosswalk. An unmatched query prints the unresolved sentinel rather than failing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		crosswalk, err := st.LoadCrosswalk(ctx)
		if err != nil {
			return err
		}
		aliases, err := st.LoadAliases(ctx)
		if err != nil {
			return err
		}

		resolver, err := entity.NewResolver(crosswalk, aliases)
		if err != nil {
			return err
		}

		res := resolver.Resolve(entity.Query{
			Provider: resolveProvider,
			NativeID: resolveNativeID,
			Name:     resolveName,
			Team:     resolveTeam,
			Position: resolvePosition,
		})

		fmt.Printf("%s\t%s\n", res.CanonicalID, res.Tier)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveProvider, "provider", "", "querying provider")
	resolveCmd.Flags().StringVar(&resolveNativeID, "native-id", "", "provider-native id")
	resolveCmd.Flags().StringVar(&resolveName, "name", "", "free-text display name")
	resolveCmd.Flags().StringVar(&resolveTeam, "team", "", "team hint for disambiguation")
	resolveCmd.Flags().StringVar(&resolvePosition, "position", "", "position hint for disambiguation")
	_ = resolveCmd.MarkFlagRequired("provider")

	rootCmd.AddCommand(resolveCmd)
}
