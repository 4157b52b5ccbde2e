package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginSandbox bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open a Salesforce login page and wait for authentication",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		components, err := NewComponents(ctx)
		if err != nil {
			return err
		}
		defer components.Shutdown(ctx)

		org, err := components.Login.Login(ctx, loginSandbox)
		if err != nil {
			return err
		}
		fmt.Println("Logged in.")
		printOrg(org)
		return nil
	},
}

func init() {
	loginCmd.Flags().BoolVar(&loginSandbox, "sandbox", false, "log in via test.salesforce.com instead of production")
}
