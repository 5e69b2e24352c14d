// Package scanner implements the process scanner (§4.7): it finds the
// target process for a PatchEntry, walks its eligible memory regions, and
// streams each region through the patch engine in overlapping chunks.
package scanner

import (
	"fmt"

	"github.com/hexpatch/syspatch/internal/catalog"
	"github.com/hexpatch/syspatch/internal/engine"
	"github.com/hexpatch/syspatch/internal/hostproc"
)

// ReadBufferSize and Overlap are the streaming constants from spec.md
// §4.7: overlap must exceed the longest compiled pattern (60 cells), so
// 0x4F = 79 leaves headroom.
const (
	ReadBufferSize = 4096
	Overlap        = 79
	step           = ReadBufferSize - Overlap
)

// Host is the subset of process operations the scanner needs, satisfied by
// *hostproc.Process plus process discovery. Kept as an interface so tests
// can fake a target process without a real ptrace attach.
type Host interface {
	Regions() ([]hostproc.Region, error)
	ReadMemory(addr uint64, size int) ([]byte, error)
	engine.Writer
}

// Finder locates and attaches to the process that backs a PatchEntry.
// Implemented by the real hostproc lookup in cmd/syspatch, and by a fake in
// tests.
type Finder func(entry *catalog.PatchEntry) (host Host, found bool, detach func() error, err error)

// Scan runs §4.7 over one PatchEntry: locate its process, stream its
// eligible regions through the engine, and detach. It reports whether a
// target process was found; when it wasn't, the entry's pattern results
// are left untouched, per spec.md. The one exception: with version-skip on,
// an entry whose own firmware window excludes the environment has its
// NotFound patterns marked Skipped and is reported as not found without
// any process lookup.
func Scan(entry *catalog.PatchEntry, vw engine.VersionWindow, find Finder) (bool, error) {
	if vw.Skip && !vw.InWindow(entry.MinFWVersion, entry.MaxFWVersion, 0, 0) {
		markEntrySkipped(entry)
		return false, nil
	}

	host, found, detach, err := find(entry)
	if err != nil {
		return false, fmt.Errorf("locating process for %q: %w", entry.Name, err)
	}
	if !found {
		return false, nil
	}
	defer func() {
		if detach != nil {
			_ = detach()
		}
	}()

	regions, err := host.Regions()
	if err != nil {
		return true, fmt.Errorf("listing regions for %q: %w", entry.Name, err)
	}

	for _, region := range regions {
		if !region.Eligible() {
			continue
		}
		if err := streamRegion(host, region, entry.Patterns, vw); err != nil {
			return true, fmt.Errorf("scanning region %#x-%#x of %q: %w", region.Start, region.End, entry.Name, err)
		}
	}
	return true, nil
}

// markEntrySkipped records every non-terminal pattern in entry as Skipped,
// the entry-wide analogue of a single pattern's version-skip transition,
// for a PatchEntry whose own firmware window (§3) excludes the current
// environment below its declared floor.
func markEntrySkipped(entry *catalog.PatchEntry) {
	for i := range entry.Patterns {
		p := &entry.Patterns[i]
		if p.Result == catalog.NotFound {
			p.Result = catalog.Skipped
		}
	}
}

// streamRegion implements §4.7 steps 5-6: the region is read in
// ReadBufferSize-sized chunks advancing by step, with the trailing Overlap
// bytes of each window carried forward into the next.
func streamRegion(host Host, region hostproc.Region, patterns []catalog.PatternSpec, vw engine.VersionWindow) error {
	window := make([]byte, ReadBufferSize+Overlap)

	size := region.Size()
	for cursor := uint64(0); cursor < size; cursor += step {
		actual := size - cursor
		if actual > ReadBufferSize {
			actual = ReadBufferSize
		}

		chunk, err := host.ReadMemory(region.Start+cursor, int(actual))
		if err != nil {
			return fmt.Errorf("reading %d bytes at 0x%x: %w", actual, region.Start+cursor, err)
		}
		copy(window[Overlap:], chunk)

		base := region.Start + cursor - Overlap
		if err := engine.ScanChunk(patterns, window[:Overlap+actual], base, vw, host); err != nil {
			return err
		}

		carryForward(window, int(actual))
	}
	return nil
}

// carryForward moves the trailing bytes of the just-scanned window to the
// front and zeros the rest, per §4.7 step 6: the tail carried forward is
// min(Overlap, actual) bytes, since a final short chunk may not have
// filled a whole Overlap's worth of data.
func carryForward(window []byte, actual int) {
	n := Overlap
	if actual < n {
		n = actual
	}
	copy(window[:n], window[Overlap+actual-n:Overlap+actual])
	for i := n; i < len(window); i++ {
		window[i] = 0
	}
}
