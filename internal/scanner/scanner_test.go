package scanner

import (
	"errors"
	"testing"

	"github.com/hexpatch/syspatch/internal/catalog"
	"github.com/hexpatch/syspatch/internal/engine"
	"github.com/hexpatch/syspatch/internal/hostproc"
	"github.com/hexpatch/syspatch/internal/pattern"
)

type fakeHost struct {
	regions []hostproc.Region
	mem     []byte // memory image starting at address 0
	writes  map[uint64][]byte
}

func (f *fakeHost) Regions() ([]hostproc.Region, error) { return f.regions, nil }

func (f *fakeHost) ReadMemory(addr uint64, size int) ([]byte, error) {
	if int(addr)+size > len(f.mem) {
		return nil, errors.New("out of range")
	}
	out := make([]byte, size)
	copy(out, f.mem[addr:int(addr)+size])
	return out, nil
}

func (f *fakeHost) WriteMemory(addr uint64, data []byte) error {
	if f.writes == nil {
		f.writes = map[uint64][]byte{}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	f.writes[addr] = cp
	copy(f.mem[addr:], data)
	return nil
}

// P4/S5 equivalent at the region-streaming level: a needle straddling the
// end of the first read is still found, because the next read starts
// Overlap bytes before that end (step = ReadBufferSize - Overlap).
func TestScanFindsMatchStraddlingChunkBoundary(t *testing.T) {
	size := ReadBufferSize + 200
	mem := make([]byte, size)
	needleAt := ReadBufferSize - 3 // straddles the first chunk/second chunk boundary
	copy(mem[needleAt:], []byte{0xDE, 0xAD, 0xBE, 0xEF})

	p, err := pattern.Compile("0xDEADBEEF")
	if err != nil {
		t.Fatal(err)
	}
	replacement, _ := pattern.CompilePatch("00")
	entry := &catalog.PatchEntry{
		Name:    "target",
		TitleID: 1,
		Patterns: []catalog.PatternSpec{
			{
				Name:             "needle",
				Pattern:          p,
				InstOffset:       0,
				PatchOffset:      0,
				Predicate:        func(uint32) bool { return false },
				MakePatch:        func(uint32) (pattern.Patch, error) { return replacement, nil },
				IsAlreadyApplied: func([]byte, uint32) bool { return true },
				Enabled:          true,
			},
		},
	}

	host := &fakeHost{
		regions: []hostproc.Region{{Start: 0, End: uint64(size), Read: true, Exec: true, Path: "/bin/target"}},
		mem:     mem,
	}

	find := func(e *catalog.PatchEntry) (Host, bool, func() error, error) {
		return host, true, func() error { return nil }, nil
	}

	found, err := Scan(entry, engine.VersionWindow{}, find)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if !found {
		t.Fatal("expected process to be found")
	}
	if entry.Patterns[0].Result != catalog.PatchedFromFile {
		t.Fatalf("Result = %v, want PatchedFromFile", entry.Patterns[0].Result)
	}
}

func TestScanNotFoundLeavesResultsUntouched(t *testing.T) {
	entry := &catalog.PatchEntry{
		Name: "missing",
		Patterns: []catalog.PatternSpec{
			{Name: "p", Result: catalog.NotFound},
		},
	}
	find := func(e *catalog.PatchEntry) (Host, bool, func() error, error) {
		return nil, false, nil, nil
	}

	found, err := Scan(entry, engine.VersionWindow{}, find)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected not found")
	}
	if entry.Patterns[0].Result != catalog.NotFound {
		t.Fatal("results should be untouched when process isn't found")
	}
}

func TestScanSkipsEntryBelowFirmwareFloor(t *testing.T) {
	entry := &catalog.PatchEntry{
		Name:         "olsc",
		MinFWVersion: 0x00060000, // 6.0.0
		Patterns: []catalog.PatternSpec{
			{Name: "p", Result: catalog.NotFound},
		},
	}
	find := func(e *catalog.PatchEntry) (Host, bool, func() error, error) {
		t.Fatal("find should not be called when the entry's firmware floor excludes the environment")
		return nil, false, nil, nil
	}

	found, err := Scan(entry, engine.VersionWindow{FWVersion: 0x00050000 /* 5.0.0 */, Skip: true}, find)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected not found")
	}
	if entry.Patterns[0].Result != catalog.Skipped {
		t.Fatalf("Result = %v, want Skipped", entry.Patterns[0].Result)
	}
}

func TestScanSkipsIneligibleRegions(t *testing.T) {
	host := &fakeHost{
		regions: []hostproc.Region{
			{Start: 0, End: 0x1000, Read: true, Write: true}, // anonymous rw, not eligible
		},
		mem: make([]byte, 0x1000),
	}
	entry := &catalog.PatchEntry{
		Name:     "target",
		Patterns: []catalog.PatternSpec{{Name: "p"}},
	}
	find := func(e *catalog.PatchEntry) (Host, bool, func() error, error) {
		return host, true, func() error { return nil }, nil
	}

	if _, err := Scan(entry, engine.VersionWindow{}, find); err != nil {
		t.Fatal(err)
	}
	if entry.Patterns[0].Result != catalog.NotFound {
		t.Fatal("ineligible region should never be read")
	}
}

func TestCarryForwardFullChunk(t *testing.T) {
	window := make([]byte, ReadBufferSize+Overlap)
	for i := range window {
		window[i] = byte(i % 251)
	}
	tail := make([]byte, Overlap)
	copy(tail, window[ReadBufferSize:ReadBufferSize+Overlap])

	carryForward(window, ReadBufferSize)

	for i := 0; i < Overlap; i++ {
		if window[i] != tail[i] {
			t.Fatalf("carried byte %d = %d, want %d", i, window[i], tail[i])
		}
	}
	for i := Overlap; i < len(window); i++ {
		if window[i] != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, window[i])
		}
	}
}

func TestCarryForwardShortFinalChunk(t *testing.T) {
	window := make([]byte, ReadBufferSize+Overlap)
	actual := 10
	for i := Overlap; i < Overlap+actual; i++ {
		window[i] = 0xAA
	}

	carryForward(window, actual)

	for i := 0; i < actual; i++ {
		if window[i] != 0xAA {
			t.Fatalf("carried byte %d = %#x, want 0xAA", i, window[i])
		}
	}
	for i := actual; i < len(window); i++ {
		if window[i] != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, window[i])
		}
	}
}
