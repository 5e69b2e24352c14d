// Package hostproc wraps the privileged, OS-specific operations the patch
// engine needs: listing processes, attaching as a debugger, querying
// mapped memory regions, and reading/writing process memory. The original
// console exposes these as svcDebugActiveProcess/svcQueryDebugProcessMemory/
// svcReadDebugProcessMemory/svcWriteDebugProcessMemory; this package stands
// those in with Linux ptrace + /proc, the nearest grounded equivalent.
package hostproc

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Region describes one mapped memory range of a traced process, the Linux
// analogue of the console's MemoryInfo.
type Region struct {
	Start uint64
	End   uint64
	Read  bool
	Write bool
	Exec  bool
	Path  string // backing file, empty for anonymous mappings
}

// Size returns the region's length in bytes.
func (r Region) Size() uint64 { return r.End - r.Start }

// Eligible reports whether a region should be scanned: non-empty,
// read+execute, and file-backed (the Linux stand-in for the console's
// MemType_CodeStatic), per spec.md §4.7 step 4.
func (r Region) Eligible() bool {
	return r.Size() > 0 && r.Read && r.Exec && r.Path != ""
}

// ListPIDs returns the set of running process ids, the stand-in for
// svcGetProcessList.
func ListPIDs() ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("listing /proc: %w", err)
	}
	pids := make([]int, 0, len(entries))
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// CommName reads the short process name for pid, used by cmd/syspatch's
// process finder to match a PatchEntry's target process the way title ids select a target on
// the original console (Linux has no title-id concept; process name is the
// closest stable identity available here).
func CommName(pid int) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return "", fmt.Errorf("reading comm for pid %d: %w", pid, err)
	}
	name := string(data)
	for len(name) > 0 && (name[len(name)-1] == '\n' || name[len(name)-1] == '\x00') {
		name = name[:len(name)-1]
	}
	return name, nil
}

// Process is a live debug attachment to one traced pid. Exactly one
// attachment is alive at a time, per spec.md §5's concurrency contract.
type Process struct {
	PID int
}

// Attach takes over as pid's sole debugger via PTRACE_ATTACH, mirroring
// svcDebugActiveProcess. The caller must call Detach on every exit path.
func Attach(pid int) (*Process, error) {
	if err := unix.PtraceAttach(pid); err != nil {
		return nil, fmt.Errorf("attaching to pid %d: %w", pid, err)
	}
	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		_ = unix.PtraceDetach(pid)
		return nil, fmt.Errorf("waiting for pid %d to stop: %w", pid, err)
	}
	return &Process{PID: pid}, nil
}

// Detach releases the debug attachment, resuming the target. Safe to call
// on every exit path, including after a partial failure.
func (p *Process) Detach() error {
	if err := unix.PtraceDetach(p.PID); err != nil {
		return fmt.Errorf("detaching from pid %d: %w", p.PID, err)
	}
	return nil
}

// Regions returns the traced process's memory mappings in ascending
// address order, the stand-in for repeated svcQueryDebugProcessMemory
// calls walking the address space from 0.
func (p *Process) Regions() ([]Region, error) {
	return parseMaps(fmt.Sprintf("/proc/%d/maps", p.PID))
}

// ReadMemory reads size bytes at addr from the traced process, the
// stand-in for svcReadDebugProcessMemory.
func (p *Process) ReadMemory(addr uint64, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := unix.PtracePeekData(p.PID, uintptr(addr), buf)
	if err != nil {
		return nil, fmt.Errorf("reading %d bytes at 0x%x from pid %d: %w", size, addr, p.PID, err)
	}
	return buf[:n], nil
}

// WriteMemory writes data at addr in the traced process, the stand-in for
// svcWriteDebugProcessMemory. Implements engine.Writer.
func (p *Process) WriteMemory(addr uint64, data []byte) error {
	n, err := unix.PtracePokeData(p.PID, uintptr(addr), data)
	if err != nil {
		return fmt.Errorf("writing %d bytes at 0x%x to pid %d: %w", len(data), addr, p.PID, err)
	}
	if n != len(data) {
		return fmt.Errorf("short write at 0x%x to pid %d: wrote %d of %d bytes", addr, p.PID, n, len(data))
	}
	return nil
}
