package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kartikpatkar/sfpkg-cli/api/schemas"
)

var detectJSON bool

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the Salesforce org session in your browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		components, err := NewComponents(ctx)
		if err != nil {
			return err
		}
		defer components.Shutdown(ctx)

		org := components.Resolver.GetCurrentOrg(ctx)
		if detectJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(org)
		}
		printOrg(org)
		if !org.IsAuthenticated {
			// A clean "not connected" answer is still a non-zero exit so
			// scripts can branch on it.
			return fmt.Errorf("no authenticated Salesforce session found")
		}
		return nil
	},
}

func printOrg(org schemas.OrgSession) {
	if !org.IsAuthenticated {
		fmt.Println("Not connected to a Salesforce org.")
		if org.Error != "" {
			fmt.Println("  reason:", org.Error)
		}
		fmt.Println("Hint: open your org in the browser, or run `sfpkg login`.")
		return
	}

	orgType := "Production"
	if org.IsSandbox {
		orgType = "Sandbox"
	}
	fmt.Printf("Connected to %s (%s)\n", org.InstanceURL, orgType)
	if org.Username != "" {
		fmt.Println("  user:", org.Username)
	}
	if org.OrgID != "" {
		fmt.Println("  org id:", org.OrgID)
	}
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "print the session as JSON")
}
