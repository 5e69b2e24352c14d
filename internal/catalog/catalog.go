// Package catalog holds the static table of PatchEntry/PatternSpec
// definitions (§4.4): the concrete patterns, offsets, predicates, and
// replacement data the engine scans for. Load returns a fresh copy so a
// run's Outcome fields never leak into the next.
package catalog

import (
	"fmt"

	"github.com/hexpatch/syspatch/internal/classify"
	"github.com/hexpatch/syspatch/internal/pattern"
)

// Outcome is the terminal state of a PatternSpec after one run.
type Outcome int

const (
	NotFound Outcome = iota
	Skipped
	Disabled
	PatchedFromFile
	PatchedBySysPatch
	WriteFailed
)

// String renders the outcome exactly as it's written to the log store.
func (o Outcome) String() string {
	switch o {
	case NotFound:
		return "Unpatched"
	case Skipped:
		return "Skipped"
	case Disabled:
		return "Disabled"
	case PatchedFromFile:
		return "Patched (file)"
	case PatchedBySysPatch:
		return "Patched (sys-patch)"
	case WriteFailed:
		return "Failed (svcWriteDebugProcessMemory)"
	default:
		return "Unpatched"
	}
}

// MakePatch derives the replacement bytes for a matched instruction word.
// Most patches are constant regardless of inst; a few (none in the current
// catalog, but the shape is kept general per spec.md §4.4) could vary.
type MakePatch func(inst uint32) (pattern.Patch, error)

// IsAlreadyApplied reports whether the patch window already holds the
// replacement bytes sigpatches or a prior run would have written.
type IsAlreadyApplied func(window []byte, inst uint32) bool

// PatternSpec is one candidate match-and-patch site within a PatchEntry.
type PatternSpec struct {
	Name string

	Pattern pattern.CompiledPattern

	InstOffset  int
	PatchOffset int

	Predicate        classify.Predicate
	MakePatch        MakePatch
	IsAlreadyApplied IsAlreadyApplied

	Enabled bool

	MinFWVersion  uint32 // 0 means unbounded
	MaxFWVersion  uint32
	MinToolVersion uint32
	MaxToolVersion uint32

	Result Outcome
}

// PatchEntry groups PatternSpecs under one target process.
type PatchEntry struct {
	Name       string
	TitleID    uint64
	Patterns   []PatternSpec
	MinFWVersion uint32 // 0 means unbounded; entry-wide floor independent of per-pattern windows
	MaxFWVersion uint32
}

// fw packs a (major, minor, micro) triple the way HOS encodes firmware
// versions: major<<16 | minor<<8 | micro.
func fw(major, minor, micro uint32) uint32 {
	return major<<16 | minor<<8 | micro
}

const fwAny = 0

func mustCompile(text string) pattern.CompiledPattern {
	p, err := pattern.Compile(text)
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid pattern %q: %v", text, err))
	}
	return p
}

func mustPatch(hexOrHex0x string) pattern.Patch {
	p, err := pattern.CompilePatch(hexOrHex0x)
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid patch literal %q: %v", hexOrHex0x, err))
	}
	return p
}

func mustPredicate(name string) classify.Predicate {
	p, ok := classify.ByName(name)
	if !ok {
		panic(fmt.Sprintf("catalog: unknown predicate %q", name))
	}
	return p
}

// Replacement byte sequences, named the way the catalog comments name them.
// Decoded with https://armconverter.com/?lock=arm64 against the original
// console's instruction set; kept here as opaque constants the same way the
// source catalog does.
var (
	ret0Patch     = mustPatch("0xE0031F2A")
	ret1Patch     = mustPatch("0x200080D2")
	mov0RetPatch  = mustPatch("0xE0031F2AC0035FD6")
	nopPatch      = mustPatch("0x1F2003D5")
	mov0Patch     = mustPatch("0xE0031FAA")
	mov2Patch     = mustPatch("0xE2031FAA")
	cmpPatch      = mustPatch("0x00")
	ctestPatch    = mustPatch("0x00309AD2001EA1F2610100D4E0031FAAC0035FD6")
)

func constPatch(p pattern.Patch) MakePatch {
	return func(uint32) (pattern.Patch, error) { return p, nil }
}

func appliedCheck(p pattern.Patch) IsAlreadyApplied {
	return func(window []byte, _ uint32) bool {
		if len(window) < p.Len {
			return false
		}
		return p.Equal(window[:p.Len])
	}
}

// spec is the literal shape of one catalog row before compilation; it
// exists so the registry below reads as a flat table, matching the
// source catalog's layout.
type spec struct {
	name        string
	text        string
	instOffset  int
	patchOffset int
	predicate   string
	patch       pattern.Patch
	minFW, maxFW uint32
}

func build(entries []spec) []PatternSpec {
	out := make([]PatternSpec, 0, len(entries))
	for _, e := range entries {
		out = append(out, PatternSpec{
			Name:             e.name,
			Pattern:          mustCompile(e.text),
			InstOffset:       e.instOffset,
			PatchOffset:      e.patchOffset,
			Predicate:        mustPredicate(e.predicate),
			MakePatch:        constPatch(e.patch),
			IsAlreadyApplied: appliedCheck(e.patch),
			Enabled:          true,
			MinFWVersion:     e.minFW,
			MaxFWVersion:     e.maxFW,
		})
	}
	return out
}

var fsPatterns = build([]spec{
	{"noacidsigchk_1.0.0-9.2.0", "0xC8FE4739", -24, 0, "bl", ret0Patch, fwAny, fw(9, 2, 0)},
	{"noacidsigchk_1.0.0-9.2.0", "0x0210911F000072", -5, 0, "bl", ret0Patch, fwAny, fw(9, 2, 0)},
	{"noncasigchk_1.0.0-3.0.2", "0x881E42B958808C521FC14271", -4, 0, "tbz", nopPatch, fw(1, 0, 0), fw(3, 0, 2)},
	{"noncasigchk_4.0.0-16.1.0", "0x1E4839....00......0054", -17, 0, "tbz", nopPatch, fw(4, 0, 0), fw(16, 1, 0)},
	{"noncasigchk_17.0.0+", "0x0694....00..42..0091", -18, 0, "tbz", nopPatch, fw(17, 0, 0), fwAny},
	{"nocntchk_1.0.0-18.1.0", "0x00....0240F9........08..........00......00......0037", 6, 0, "bl", ret0Patch, fw(1, 0, 0), fw(18, 1, 0)},
	{"nocntchk_19.0.0-20.5.0", "0x00....0240F9........08..........00......00......0054", 6, 0, "bl", ret0Patch, fw(19, 0, 0), fw(20, 5, 0)},
	{"nocntchk_21.0.0+", "0x00....0240F9........E8..........00......00......0054", 6, 0, "bl", ret0Patch, fw(21, 0, 0), fwAny},
})

var ldrPatterns = build([]spec{
	// 1F00016B (cmp w0, w1) patched to 1F00006B (cmp w0, w0)
	{"noacidsigchk_10.0.0+", "0x009401C0BE121F00", 6, 2, "cmp", cmpPatch, fwAny, fwAny},
})

var erptPatterns = build([]spec{
	// FF4305D1 (sub sp, sp, #0x150) patched to mov w0, wzr; ret
	{"no_erpt", "0xFD7B02A9FD830091F76305A9", -4, 0, "sub", mov0RetPatch, fwAny, fwAny},
})

var esPatterns = build([]spec{
	{"es_1.0.0-8.1.1", "0xE8..00......FF97..0300AA....00..........E0..0091....0094..7E4092..............A9", 32, 0, "es", mov0Patch, fw(1, 0, 0), fw(8, 1, 1)},
	{"es_9.0.0-11.0.1", "0x00..............................00..........A0....D1......97..............A9", 30, 0, "es", mov0Patch, fw(9, 0, 0), fw(11, 0, 1)},
	{"es_12.0.0-18.1.0", "0x02..00......................00......00..........A0....D1......97..............A9", 32, 0, "es", mov0Patch, fw(12, 0, 0), fw(18, 1, 0)},
	{"es_19.0.0+", "0xA1..00......................00......00..........A0....D1......97..............A9", 32, 0, "es", mov0Patch, fw(19, 0, 0), fwAny},
})

var olscPatterns = build([]spec{
	{"olsc_6.0.0-14.1.2", "0x00..73....F968024039....00......00", 42, 0, "bl", ret1Patch, fw(6, 0, 0), fw(14, 1, 2)},
	{"olsc_15.0.0-18.1.0", "0x00..73....F968024039....00......00", 38, 0, "bl", ret1Patch, fw(15, 0, 0), fw(18, 1, 0)},
	{"olsc_19.0.0+", "0x00..73....F968024039....00......00", 42, 0, "bl", ret1Patch, fw(19, 0, 0), fwAny},
})

var nifmPatterns = build([]spec{
	{"ctest_1.0.0-19.0.1", "0x03.AAE003.AA...39..04F8....E0", -29, 0, "ctest", ctestPatch, fwAny, fw(18, 1, 0)},
	{"ctest_20.0.0+", "0x03.AA...AA.........0314AA..14AA", -17, 0, "ctest", ctestPatch, fw(20, 0, 0), fwAny},
})

var nimPatterns = build([]spec{
	{"blankcal0crashfix_17.0.0+", "0x00351F2003D5..............................97....0094....00..........61", 6, 0, "adr", mov2Patch, fw(17, 0, 0), fwAny},
	{"blockfirmwareupdates_1.0.0-5.1.0", "0x1139F30301AA81..40F9E0..1191", -30, 0, "block_fw", mov0RetPatch, fw(1, 0, 0), fw(5, 1, 0)},
	{"blockfirmwareupdates_6.0.0-6.2.0", "0xF30301AA..4E40F9E0....91", -40, 0, "block_fw", mov0RetPatch, fw(6, 0, 0), fw(6, 2, 0)},
	{"blockfirmwareupdates_7.0.0-10.2.0", "0xF30301AA014C40F9F40300AAE0....91", -36, 0, "block_fw", mov0RetPatch, fw(7, 0, 0), fw(10, 2, 0)},
	{"blockfirmwareupdates_11.0.0-11.0.1", "0x280841F9084C00F9................................C0035FD6", 28, 0, "block_fw", mov0RetPatch, fw(11, 0, 0), fw(11, 0, 1)},
	{"blockfirmwareupdates_12.0.0+", "0x280841F9084C00F9........C0035FD6", 16, 0, "block_fw", mov0RetPatch, fw(12, 0, 0), fwAny},
})

// registry is the normative catalog §4.4 points to: one PatchEntry per
// target system process, in declaration order.
var registry = []PatchEntry{
	{Name: "fs", TitleID: 0x0100000000000000, Patterns: fsPatterns},
	{Name: "ldr", TitleID: 0x0100000000000001, Patterns: ldrPatterns, MinFWVersion: fw(10, 0, 0)},
	{Name: "erpt", TitleID: 0x010000000000002B, Patterns: erptPatterns, MinFWVersion: fw(10, 0, 0)},
	{Name: "es", TitleID: 0x0100000000000033, Patterns: esPatterns, MinFWVersion: fw(2, 0, 0)},
	{Name: "olsc", TitleID: 0x010000000000003E, Patterns: olscPatterns, MinFWVersion: fw(6, 0, 0)},
	{Name: "nifm", TitleID: 0x010000000000000F, Patterns: nifmPatterns},
	{Name: "nim", TitleID: 0x0100000000000025, Patterns: nimPatterns},
}

// Load returns a deep copy of the registry: every PatternSpec starts at
// Result = NotFound, independent of any prior run or caller mutation.
func Load() []PatchEntry {
	out := make([]PatchEntry, len(registry))
	for i, e := range registry {
		patterns := make([]PatternSpec, len(e.Patterns))
		copy(patterns, e.Patterns)
		for j := range patterns {
			patterns[j].Result = NotFound
		}
		e.Patterns = patterns
		out[i] = e
	}
	return out
}

// Names returns the PatchEntry names in declaration order.
func Names() []string {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.Name
	}
	return names
}

// FWVersion re-exports the version-packing convention so callers outside
// this package (hostenv, cmd/syspatch) construct comparable values the
// same way the catalog does.
func FWVersion(major, minor, micro uint32) uint32 {
	return fw(major, minor, micro)
}
