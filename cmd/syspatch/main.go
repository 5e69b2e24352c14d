package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "syspatch",
	Short: "Boot-time process memory patcher",
	Long: `syspatch scans a running process's code segment for known
instruction patterns and rewrites them in place.

It reads a firmware/tool version pair to gate which patterns apply,
applies the ones selected, and records the outcome of every pattern
in a log file.

This tool requires ptrace access to the target process.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
