// Package engine implements the patch engine (§4.6): given a PatchEntry and
// a window of process memory, it advances each PatternSpec's Outcome by at
// most one transition per run.
package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/hexpatch/syspatch/internal/catalog"
	"github.com/hexpatch/syspatch/internal/pattern"
)

// Writer writes patch bytes at an absolute address in the target process.
// Implementations live in internal/hostproc; engine never touches the OS
// directly.
type Writer interface {
	WriteMemory(addr uint64, data []byte) error
}

// VersionWindow carries the environment the engine gates patterns against.
type VersionWindow struct {
	FWVersion   uint32
	ToolVersion uint32
	Skip        bool // version-skip enabled: out-of-window patterns are marked Skipped
}

// InWindow reports whether fw/tool versions fall within [min, max] on both
// axes, with 0 meaning unbounded on either end (spec.md §4.4).
func (v VersionWindow) InWindow(minFW, maxFW, minTool, maxTool uint32) bool {
	if minFW != 0 && minFW > v.FWVersion {
		return false
	}
	if maxFW != 0 && maxFW < v.FWVersion {
		return false
	}
	if minTool != 0 && minTool > v.ToolVersion {
		return false
	}
	if maxTool != 0 && maxTool < v.ToolVersion {
		return false
	}
	return true
}

// ScanChunk runs §4.6 over one entry's patterns against one chunk of
// memory. window is the streamed buffer (overlap included); base is the
// absolute address window[0] corresponds to in the target process.
//
// A pattern whose site doesn't resolve in this chunk is left untouched so a
// later chunk or region gets another attempt, per spec.md's "no match in
// this chunk leaves result unchanged" rule.
func ScanChunk(patterns []catalog.PatternSpec, window []byte, base uint64, vw VersionWindow, w Writer) error {
	for i := range patterns {
		p := &patterns[i]

		switch p.Result {
		case catalog.Disabled, catalog.PatchedFromFile, catalog.PatchedBySysPatch:
			continue
		}

		if vw.Skip && !vw.InWindow(p.MinFWVersion, p.MaxFWVersion, p.MinToolVersion, p.MaxToolVersion) {
			p.Result = catalog.Skipped
			continue
		}

		if err := scanOne(p, window, base, w); err != nil {
			return fmt.Errorf("scanning pattern %q: %w", p.Name, err)
		}
	}
	return nil
}

func matchFrom(p *catalog.PatternSpec, window []byte) (int, bool) {
	return pattern.Match(p.Pattern, window)
}

// scanOne advances a single pattern's Outcome, scanning forward past
// rejected candidate sites the way §4.6 step 3's "continue scanning at the
// next index" describes.
func scanOne(p *catalog.PatternSpec, window []byte, base uint64, w Writer) error {
	cursor := 0
	for cursor <= len(window) {
		rel, ok := matchFrom(p, window[cursor:])
		if !ok {
			return nil
		}
		i := cursor + rel
		instAddr := i + p.InstOffset

		if instAddr < 0 || instAddr+4 > len(window) {
			cursor = i + 1
			continue
		}

		inst := binary.LittleEndian.Uint32(window[instAddr : instAddr+4])

		if p.Predicate(inst) {
			patch, err := p.MakePatch(inst)
			if err != nil {
				return fmt.Errorf("deriving patch: %w", err)
			}
			addr := base + uint64(instAddr+p.PatchOffset)
			if err := w.WriteMemory(addr, patch.Slice()); err != nil {
				p.Result = catalog.WriteFailed
			} else {
				p.Result = catalog.PatchedBySysPatch
			}
			return nil
		}

		patchStart := instAddr + p.PatchOffset
		if patchStart >= 0 && patchStart <= len(window) && p.IsAlreadyApplied(window[patchStart:], inst) {
			p.Result = catalog.PatchedFromFile
			return nil
		}

		cursor = i + 1
	}
	return nil
}
