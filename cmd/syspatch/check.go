package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hexpatch/syspatch/internal/catalog"
	"github.com/hexpatch/syspatch/internal/color"
	"github.com/hexpatch/syspatch/internal/engine"
)

var (
	checkFW   string
	checkTool string
	checkSkip bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate which patterns a firmware/tool version would select",
	Long: `Runs the version-gate logic against a supplied firmware and tool
version without attaching to any process, so a build can be validated
offline before it ever runs against a real target.

Example:
  syspatch check --fw 18.1.0 --tool 1.2.3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var fwMajor, fwMinor, fwMicro uint32
		if _, err := fmt.Sscanf(checkFW, "%d.%d.%d", &fwMajor, &fwMinor, &fwMicro); err != nil {
			return fmt.Errorf("invalid --fw %q: %w", checkFW, err)
		}
		var toolMajor, toolMinor, toolMicro uint32
		if _, err := fmt.Sscanf(checkTool, "%d.%d.%d", &toolMajor, &toolMinor, &toolMicro); err != nil {
			return fmt.Errorf("invalid --tool %q: %w", checkTool, err)
		}

		vw := engine.VersionWindow{
			FWVersion:   catalog.FWVersion(fwMajor, fwMinor, fwMicro),
			ToolVersion: catalog.FWVersion(toolMajor, toolMinor, toolMicro),
			Skip:        checkSkip,
		}

		fmt.Printf("Checking fw=%s tool=%s against the catalog...\n\n", checkFW, checkTool)

		entries := catalog.Load()
		selected, total := 0, 0
		for _, entry := range entries {
			for _, p := range entry.Patterns {
				total++
				inWindow := !vw.Skip || vw.InWindow(p.MinFWVersion, p.MaxFWVersion, p.MinToolVersion, p.MaxToolVersion)
				if inWindow {
					fmt.Println(color.Okf("%s/%s: selected", entry.Name, p.Name))
					selected++
				} else {
					fmt.Println(color.Dim(fmt.Sprintf("%s/%s: outside version window", entry.Name, p.Name)))
				}
			}
		}

		fmt.Printf("\n%s\n", color.Header(fmt.Sprintf("%d of %d patterns selected", selected, total)))
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkFW, "fw", "", "firmware version to check against, e.g. 18.1.0 (required)")
	checkCmd.Flags().StringVar(&checkTool, "tool", "0.0.0", "tool version to check against, e.g. 1.2.3")
	checkCmd.Flags().BoolVar(&checkSkip, "version-skip", true, "apply the version window (false = select every pattern)")
	_ = checkCmd.MarkFlagRequired("fw")
	rootCmd.AddCommand(checkCmd)
}
