package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hexpatch/syspatch/internal/catalog"
)

func testEntries() []catalog.PatchEntry {
	return []catalog.PatchEntry{
		{
			Name: "fs",
			Patterns: []catalog.PatternSpec{
				{Name: "noacidsigchk_1.0.0-9.2.0"},
				{Name: "noncasigchk_1.0.0-3.0.2"},
			},
		},
		{
			Name: "es",
			Patterns: []catalog.PatternSpec{
				{Name: "es_something"},
			},
		},
	}
}

func TestLoadConfigWritesDefaultsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")

	cfg, err := LoadConfig(path, testEntries())
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if !cfg.Options.PatchSysMMC || !cfg.Options.PatchEMUMMC || !cfg.Options.EnableLogging || !cfg.Options.VersionSkip {
		t.Errorf("expected all options to default true, got %+v", cfg.Options)
	}
	if !cfg.Toggles["fs"]["noacidsigchk_1.0.0-9.2.0"] {
		t.Error("expected fs pattern toggle to default true")
	}

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config.ini to be written: %v", err)
	}
}

func TestLoadConfigHonorsExistingFalseValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	contents := "[options]\npatch_sysmmc = false\n\n[fs]\nnoacidsigchk_1.0.0-9.2.0 = false\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadConfig(path, testEntries())
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Options.PatchSysMMC {
		t.Error("expected patch_sysmmc to remain false")
	}
	if cfg.Toggles["fs"]["noacidsigchk_1.0.0-9.2.0"] {
		t.Error("expected fs pattern toggle to remain false")
	}
	if !cfg.Toggles["fs"]["noncasigchk_1.0.0-3.0.2"] {
		t.Error("expected untouched fs pattern toggle to default true")
	}
}

func TestApplyToEntriesDisablesTogglesOff(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	contents := "[fs]\nnoacidsigchk_1.0.0-9.2.0 = false\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	entries := testEntries()
	cfg, err := LoadConfig(path, entries)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	cfg.ApplyToEntries(entries)

	if entries[0].Patterns[0].Enabled {
		t.Error("expected first fs pattern to be disabled")
	}
	if entries[0].Patterns[0].Result != catalog.Disabled {
		t.Errorf("expected Result = Disabled, got %v", entries[0].Patterns[0].Result)
	}
	if !entries[0].Patterns[1].Enabled {
		t.Error("expected second fs pattern to remain enabled")
	}
}

func TestShouldPatch(t *testing.T) {
	o := Options{PatchSysMMC: true, PatchEMUMMC: false}
	if !o.ShouldPatch(false) {
		t.Error("expected sysmmc to patch")
	}
	if o.ShouldPatch(true) {
		t.Error("expected emummc to not patch")
	}
}
