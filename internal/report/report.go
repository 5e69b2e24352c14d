// Package report writes the per-run log.ini (§6) and prints the
// human-readable stdout summary: one line per patch outcome plus a
// stats block (tool version, firmware version, keygen, commit hash,
// patch duration). The wire format mirrors internal/store's config.ini
// since both are read by ini.v1, and the value formatting (version
// string, hash string, duration string) is transcribed from the
// original's version_to_str/hash_to_str/ms_2_str helpers.
package report

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/ini.v1"

	"github.com/hexpatch/syspatch/internal/catalog"
	"github.com/hexpatch/syspatch/internal/color"
)

// Stats is the run's [stats] section of log.ini.
type Stats struct {
	Version     string
	BuildDate   string
	FWVersion   uint32
	ToolVersion uint32
	TargetFW    uint32
	Keygen      uint8
	Hash        uint32
	EmuMMC      bool
	HeapSize    uint32
	BufferSize  uint32
	PatchTime   time.Duration
}

// VersionString renders a packed major<<16|minor<<8|micro version as
// "major.minor.micro", e.g. 852481 -> "13.2.1".
func VersionString(v uint32) string {
	major := (v >> 16) & 0xFF
	minor := (v >> 8) & 0xFF
	micro := v & 0xFF
	return fmt.Sprintf("%d.%d.%d", major, minor, micro)
}

// HashString renders the high 32 bits of a build hash as 8 lowercase
// hex digits, e.g. 0xAF66FF99 -> "af66ff99".
func HashString(hash uint32) string {
	return fmt.Sprintf("%08x", hash)
}

// DurationString renders a duration as "<seconds>.<milliseconds>s",
// matching ms_2_str's three-decimal-place seconds format, e.g. "1.234s".
func DurationString(d time.Duration) string {
	secs := d.Seconds()
	return fmt.Sprintf("%.3fs", secs)
}

// WriteLog truncates and rewrites path with every pattern's outcome,
// one section per PatchEntry, plus a [stats] section, mirroring the
// original's ini_remove-then-ini_puts sequence: log.ini always
// reflects only the most recent run, never accumulates across runs.
func WriteLog(path string, entries []catalog.PatchEntry, stats Stats) error {
	file := ini.Empty()

	for _, entry := range entries {
		sec, err := file.NewSection(entry.Name)
		if err != nil {
			return fmt.Errorf("creating section %q: %w", entry.Name, err)
		}
		for _, p := range entry.Patterns {
			sec.Key(p.Name).SetValue(p.Result.String())
		}
	}

	statsSec, err := file.NewSection("stats")
	if err != nil {
		return fmt.Errorf("creating stats section: %w", err)
	}
	statsSec.Key("version").SetValue(stats.Version)
	statsSec.Key("build_date").SetValue(stats.BuildDate)
	statsSec.Key("fw_version").SetValue(VersionString(stats.FWVersion))
	statsSec.Key("ams_version").SetValue(VersionString(stats.ToolVersion))
	statsSec.Key("ams_target_version").SetValue(VersionString(stats.TargetFW))
	statsSec.Key("ams_keygen").SetValue(fmt.Sprintf("%d", stats.Keygen))
	statsSec.Key("ams_hash").SetValue(HashString(stats.Hash))
	statsSec.Key("is_emummc").SetValue(boolString(stats.EmuMMC))
	statsSec.Key("heap_size").SetValue(fmt.Sprintf("%d", stats.HeapSize))
	statsSec.Key("buffer_size").SetValue(fmt.Sprintf("%d", stats.BufferSize))
	statsSec.Key("patch_time").SetValue(DurationString(stats.PatchTime))

	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Summary writes a colorized, human-readable recap of the run to w:
// one line per pattern outcome (Skipped and Disabled included), then the
// stats block.
func Summary(w io.Writer, entries []catalog.PatchEntry, stats Stats) {
	fmt.Fprintln(w, color.Header("sys-patch run summary"))
	for _, entry := range entries {
		for _, p := range entry.Patterns {
			fmt.Fprintln(w, summaryLine(entry.Name, p))
		}
	}
	fmt.Fprintln(w, color.Header("stats"))
	fmt.Fprintln(w, color.Info(fmt.Sprintf("version=%s fw=%s emummc=%v patch_time=%s",
		stats.Version, VersionString(stats.FWVersion), stats.EmuMMC, DurationString(stats.PatchTime))))
}

func summaryLine(entryName string, p catalog.PatternSpec) string {
	label := fmt.Sprintf("%s/%s: %s", entryName, p.Name, p.Result.String())
	switch p.Result {
	case catalog.PatchedBySysPatch, catalog.PatchedFromFile:
		return color.OK(label)
	case catalog.WriteFailed:
		return color.Fail(label)
	case catalog.Skipped, catalog.Disabled:
		return color.Warn(label)
	default:
		return color.Dim(label)
	}
}
