package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sfpkg version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sfpkg %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
	},
}
