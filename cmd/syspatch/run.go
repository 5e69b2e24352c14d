package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hexpatch/syspatch/internal/catalog"
	"github.com/hexpatch/syspatch/internal/color"
	"github.com/hexpatch/syspatch/internal/engine"
	"github.com/hexpatch/syspatch/internal/hostenv"
	"github.com/hexpatch/syspatch/internal/hostproc"
	"github.com/hexpatch/syspatch/internal/report"
	"github.com/hexpatch/syspatch/internal/scanner"
	"github.com/hexpatch/syspatch/internal/store"
	"github.com/hexpatch/syspatch/internal/version"
)

var (
	runConfigPath string
	runLogPath    string
	runEnvDir     string
	runDryRun     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single patch pass against all known targets",
	Long: `Loads config.ini, scans every process named by the patch catalog,
and applies whichever patterns the firmware/tool version window allows.
When enable_logging is on in config.ini, results are written to log.ini
and a summary is printed to stdout. With --dry-run no process memory is
written and every pattern that is not Disabled is recorded as Skipped.

Example:
  syspatch run --config /config/sys-patch/config.ini --log /config/sys-patch/log.ini`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("[syspatch] Stage 1: gathering environment facts...")
		env, err := hostenv.Gather(hostenv.FileReader{Dir: runEnvDir})
		if err != nil {
			return fmt.Errorf("gathering environment: %w", err)
		}

		entries := catalog.Load()

		fmt.Println("[syspatch] Stage 2: loading config.ini...")
		cfg, err := store.LoadConfig(runConfigPath, entries)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg.ApplyToEntries(entries)
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		enablePatching := cfg.Options.ShouldPatch(env.EmuMMC)
		if runDryRun {
			enablePatching = false
		}

		vw := engine.VersionWindow{
			FWVersion:   env.FWVersion,
			ToolVersion: env.ToolVersion,
			Skip:        cfg.Options.VersionSkip,
		}

		fmt.Println("[syspatch] Stage 3: scanning and patching...")
		start := time.Now()
		if enablePatching {
			for i := range entries {
				found, err := scanner.Scan(&entries[i], vw, processFinder)
				if err != nil {
					fmt.Println(color.Warnf("scanning %s: %v", entries[i].Name, err))
					continue
				}
				if !found {
					fmt.Println(color.Dim(fmt.Sprintf("%s: target process not running", entries[i].Name)))
				}
			}
		} else {
			markSkipped(entries)
		}
		elapsed := time.Since(start)

		if cfg.Options.EnableLogging {
			stats := report.Stats{
				Version:     version.Version,
				BuildDate:   version.BuildDate,
				FWVersion:   env.FWVersion,
				ToolVersion: env.ToolVersion,
				TargetFW:    env.TargetFW,
				Keygen:      env.Keygen,
				Hash:        env.Hash,
				EmuMMC:      env.EmuMMC,
				HeapSize:    0,
				BufferSize:  scanner.ReadBufferSize,
				PatchTime:   elapsed,
			}
			if err := report.WriteLog(runLogPath, entries, stats); err != nil {
				return fmt.Errorf("writing log: %w", err)
			}
			report.Summary(cmd.OutOrStdout(), entries, stats)
		}

		return nil
	},
}

// markSkipped records every non-terminal pattern as Skipped, mirroring
// the original's behavior when patching is disabled for the active MMC.
func markSkipped(entries []catalog.PatchEntry) {
	for i := range entries {
		for j := range entries[i].Patterns {
			p := &entries[i].Patterns[j]
			if p.Result == catalog.NotFound {
				p.Result = catalog.Skipped
			}
		}
	}
}

// processFinder locates the running process whose comm name matches
// entry.Name and attaches to it, satisfying scanner.Finder.
func processFinder(entry *catalog.PatchEntry) (scanner.Host, bool, func() error, error) {
	pids, err := hostproc.ListPIDs()
	if err != nil {
		return nil, false, nil, fmt.Errorf("listing processes: %w", err)
	}
	for _, pid := range pids {
		name, err := hostproc.CommName(pid)
		if err != nil || name != entry.Name {
			continue
		}
		proc, err := hostproc.Attach(pid)
		if err != nil {
			return nil, false, nil, fmt.Errorf("attaching to %s (pid %d): %w", entry.Name, pid, err)
		}
		return proc, true, proc.Detach, nil
	}
	return nil, false, nil, nil
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "/config/sys-patch/config.ini", "path to config.ini")
	runCmd.Flags().StringVar(&runLogPath, "log", "/config/sys-patch/log.ini", "path to log.ini")
	runCmd.Flags().StringVar(&runEnvDir, "env-dir", "/config/sys-patch/env", "directory of environment fact files")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "gather facts and log results without writing any process memory")
	rootCmd.AddCommand(runCmd)
}
