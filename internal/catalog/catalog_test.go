package catalog

import "testing"

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{NotFound, "Unpatched"},
		{Skipped, "Skipped"},
		{Disabled, "Disabled"},
		{PatchedFromFile, "Patched (file)"},
		{PatchedBySysPatch, "Patched (sys-patch)"},
		{WriteFailed, "Failed (svcWriteDebugProcessMemory)"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}

func TestLoadReturnsIndependentCopies(t *testing.T) {
	a := Load()
	a[0].Patterns[0].Result = WriteFailed

	b := Load()
	if b[0].Patterns[0].Result != NotFound {
		t.Fatal("mutating one Load() result leaked into another")
	}
}

func TestLoadMatchesRegistryShape(t *testing.T) {
	entries := Load()
	names := Names()
	if len(entries) != len(names) {
		t.Fatalf("len(entries)=%d, len(names)=%d", len(entries), len(names))
	}

	want := []string{"fs", "ldr", "erpt", "es", "olsc", "nifm", "nim"}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entries[%d].Name = %q, want %q", i, entries[i].Name, name)
		}
		if len(entries[i].Patterns) == 0 {
			t.Errorf("entry %q has no patterns", name)
		}
		for _, p := range entries[i].Patterns {
			if p.Predicate == nil {
				t.Errorf("%s/%s: nil predicate", name, p.Name)
			}
			if p.MakePatch == nil || p.IsAlreadyApplied == nil {
				t.Errorf("%s/%s: nil patch hooks", name, p.Name)
			}
			if !p.Enabled {
				t.Errorf("%s/%s: should start enabled", name, p.Name)
			}
			if p.Result != NotFound {
				t.Errorf("%s/%s: should start NotFound", name, p.Name)
			}
		}
	}
}

func TestFWVersionOrdering(t *testing.T) {
	if FWVersion(10, 0, 0) <= FWVersion(9, 2, 0) {
		t.Error("expected 10.0.0 > 9.2.0")
	}
	if FWVersion(1, 0, 0) >= FWVersion(1, 0, 1) {
		t.Error("expected 1.0.0 < 1.0.1")
	}
}
