// Package store reads and writes the INI-format configuration at
// /config/sys-patch/config.ini (§6): global options plus a per-pattern
// enabled toggle, one section per PatchEntry name. Missing keys are
// written back with their default, the same "load or write default"
// behavior the original's ini_load_or_write_default does.
package store

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/hexpatch/syspatch/internal/catalog"
)

// Options are the four global toggles from spec.md §6, all default true.
type Options struct {
	PatchSysMMC   bool
	PatchEMUMMC   bool
	EnableLogging bool
	VersionSkip   bool
}

// Config is a loaded config.ini: global options plus, per PatchEntry name,
// a map of pattern name to its enabled toggle.
type Config struct {
	Options  Options
	Toggles  map[string]map[string]bool
	path     string
	file     *ini.File
}

const optionsSection = "options"

// LoadConfig reads config.ini at path, creating it (and any missing keys)
// with defaults if absent, mirroring the original's ini_load_or_write_default.
// entries supplies the full set of pattern names so every toggle gets a
// default written even on a first run with no config.ini at all.
func LoadConfig(path string, entries []catalog.PatchEntry) (*Config, error) {
	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	c := &Config{
		Toggles: map[string]map[string]bool{},
		path:    path,
		file:    file,
	}

	c.Options.PatchSysMMC = boolOrDefault(file, optionsSection, "patch_sysmmc", true)
	c.Options.PatchEMUMMC = boolOrDefault(file, optionsSection, "patch_emummc", true)
	c.Options.EnableLogging = boolOrDefault(file, optionsSection, "enable_logging", true)
	c.Options.VersionSkip = boolOrDefault(file, optionsSection, "version_skip", true)

	for _, entry := range entries {
		toggles := make(map[string]bool, len(entry.Patterns))
		for _, p := range entry.Patterns {
			toggles[p.Name] = boolOrDefault(file, entry.Name, p.Name, true)
		}
		c.Toggles[entry.Name] = toggles
	}

	return c, nil
}

// boolOrDefault returns the existing key's bool value, or writes def back
// into the section/key and returns def if the key was absent.
func boolOrDefault(file *ini.File, section, key string, def bool) bool {
	sec := file.Section(section)
	if !sec.HasKey(key) {
		sec.Key(key).SetValue(boolString(def))
		return def
	}
	return sec.Key(key).MustBool(def)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Save writes config.ini back to disk, persisting any defaults that were
// filled in during Load.
func (c *Config) Save() error {
	if err := c.file.SaveTo(c.path); err != nil {
		return fmt.Errorf("saving %s: %w", c.path, err)
	}
	return nil
}

// ApplyToEntries sets each PatternSpec's Enabled flag from the loaded
// toggles, and marks disabled patterns with Result = Disabled so the
// engine skips them on sight, per spec.md's "enters with result=Disabled
// and never transitions" invariant.
func (c *Config) ApplyToEntries(entries []catalog.PatchEntry) {
	for i := range entries {
		toggles := c.Toggles[entries[i].Name]
		for j := range entries[i].Patterns {
			p := &entries[i].Patterns[j]
			enabled, ok := toggles[p.Name]
			if !ok {
				enabled = true
			}
			p.Enabled = enabled
			if !p.Enabled {
				p.Result = catalog.Disabled
			}
		}
	}
}

// ShouldPatch reports whether patching should proceed for the current MMC
// mode, per spec.md §4.8's sysmmc/emummc gate.
func (o Options) ShouldPatch(emuMMC bool) bool {
	if emuMMC {
		return o.PatchEMUMMC
	}
	return o.PatchSysMMC
}
