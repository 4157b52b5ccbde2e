package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kartikpatkar/sfpkg-cli/internal/config"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the metadata types available in the connected org",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		components, err := NewComponents(ctx)
		if err != nil {
			return err
		}
		defer components.Shutdown(ctx)

		org := components.Resolver.GetCurrentOrg(ctx)
		if !org.IsAuthenticated {
			return fmt.Errorf("no authenticated Salesforce session found, run `sfpkg login` first")
		}

		types, err := components.Metadata.ListAvailableTypes(ctx, org)
		if err != nil {
			// The describe call can fail on restricted profiles; the
			// curated default list still lets generation proceed.
			components.logger.Warn("Falling back to the default type list")
			types = config.Get().Salesforce.DefaultTypes
		}
		for _, t := range types {
			fmt.Println(t)
		}
		return nil
	},
}

var membersCmd = &cobra.Command{
	Use:   "members <type>",
	Short: "List the members of a metadata type in the connected org",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		metadataType := args[0]

		components, err := NewComponents(ctx)
		if err != nil {
			return err
		}
		defer components.Shutdown(ctx)

		org := components.Resolver.GetCurrentOrg(ctx)
		if !org.IsAuthenticated {
			return fmt.Errorf("no authenticated Salesforce session found, run `sfpkg login` first")
		}

		members, err := components.Metadata.ListMembersForType(ctx, org, metadataType)
		if err != nil {
			return fmt.Errorf("failed to list %s members: %w", metadataType, err)
		}
		if len(members) == 0 {
			fmt.Printf("No %s members found in this org.\n", metadataType)
			return nil
		}
		for _, m := range members {
			fmt.Println(m)
		}
		return nil
	},
}
