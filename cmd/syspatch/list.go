package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hexpatch/syspatch/internal/catalog"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known patch entry and pattern",
	Long:  "Displays the full patch catalog: target process, pattern name, and supported firmware window.",
	Run: func(cmd *cobra.Command, args []string) {
		entries := catalog.Load()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TARGET\tPATTERN\tFW MIN\tFW MAX")
		fmt.Fprintln(w, "------\t-------\t------\t------")

		count := 0
		for _, entry := range entries {
			for _, p := range entry.Patterns {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					entry.Name, p.Name, fwBound(p.MinFWVersion), fwBound(p.MaxFWVersion))
				count++
			}
		}
		w.Flush()

		fmt.Printf("\nTotal: %d patterns across %d targets\n", count, len(entries))
	},
}

// fwBound renders an unbounded (0) version window edge as "any".
func fwBound(v uint32) string {
	if v == 0 {
		return "any"
	}
	major := (v >> 16) & 0xFF
	minor := (v >> 8) & 0xFF
	micro := v & 0xFF
	return fmt.Sprintf("%d.%d.%d", major, minor, micro)
}

func init() {
	rootCmd.AddCommand(listCmd)
}
