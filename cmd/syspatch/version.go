package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hexpatch/syspatch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("syspatch %s (%s)\n", version.Version, version.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
