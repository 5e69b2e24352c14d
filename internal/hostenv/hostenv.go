// Package hostenv gathers the environment facts the engine's version gate
// and the run log need: firmware version, patcher-tool version, and
// whether the host is running from an emulated MMC. On the original
// console these come from setsysGetFirmwareVersion, splGetConfig, and a
// secure-monitor call; here they're read from small host-provided files,
// the nearest Linux stand-in, following the same "collect once into a
// struct" shape the donor package uses for device facts.
package hostenv

import (
	"fmt"
	"os"
	"strings"

	"github.com/hexpatch/syspatch/internal/catalog"
	"github.com/hexpatch/syspatch/internal/version"
)

// Environment bundles the facts gathered once per run.
type Environment struct {
	FWVersion   uint32
	ToolVersion uint32       // patcher-tool version, packed like FWVersion (logged as ams_version)
	TargetFW    uint32       // lowest firmware this tool build targets
	Keygen      uint8
	Hash        uint32 // top 32 bits of the build's commit hash
	EmuMMC      bool
	emummcPaths [2][128]byte // literal shape from the GLOSSARY's two-128-byte emuMMC check
}

// Reader is the host-specific source of environment facts, abstracted so
// tests can supply a fake without touching the filesystem.
type Reader interface {
	FirmwareVersion() (major, minor, micro uint32, err error)
	ToolVersion() (uint32, error)
	ToolTargetVersion() (uint32, error)
	Keygen() (uint8, error)
	CommitHash() (uint32, error)
	EmummcPaths() ([2][128]byte, error)
}

// Gather reads the full environment through r, the way donor.Collector.Collect
// gathers a DeviceContext in one pass.
func Gather(r Reader) (Environment, error) {
	var env Environment

	major, minor, micro, err := r.FirmwareVersion()
	if err != nil {
		return env, fmt.Errorf("reading firmware version: %w", err)
	}
	env.FWVersion = catalog.FWVersion(major, minor, micro)

	toolVersion, err := r.ToolVersion()
	if err != nil {
		return env, fmt.Errorf("reading tool version: %w", err)
	}
	env.ToolVersion = toolVersion

	target, err := r.ToolTargetVersion()
	if err != nil {
		return env, fmt.Errorf("reading tool target version: %w", err)
	}
	env.TargetFW = target

	keygen, err := r.Keygen()
	if err != nil {
		return env, fmt.Errorf("reading keygen: %w", err)
	}
	env.Keygen = keygen

	hash, err := r.CommitHash()
	if err != nil {
		return env, fmt.Errorf("reading commit hash: %w", err)
	}
	env.Hash = hash

	paths, err := r.EmummcPaths()
	if err != nil {
		return env, fmt.Errorf("reading emummc paths: %w", err)
	}
	env.emummcPaths = paths
	env.EmuMMC = paths[0][0] != 0 || paths[1][0] != 0

	return env, nil
}

// FileReader reads environment facts from a small directory of files,
// standing in for the console's firmware/SPL queries on a host machine
// without one.
type FileReader struct {
	// Dir holds one file per fact: fw_version, tool_version,
	// tool_target_version, keygen, commit_hash, emummc_unk, emummc_nintendo.
	Dir string
}

func (f FileReader) readTrimmed(name string) (string, error) {
	data, err := os.ReadFile(f.Dir + "/" + name)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// FirmwareVersion parses a "major.minor.micro" line from fw_version.
func (f FileReader) FirmwareVersion() (uint32, uint32, uint32, error) {
	s, err := f.readTrimmed("fw_version")
	if err != nil {
		return 0, 0, 0, err
	}
	var major, minor, micro uint32
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &major, &minor, &micro); err != nil {
		return 0, 0, 0, fmt.Errorf("parsing fw_version %q: %w", s, err)
	}
	return major, minor, micro, nil
}

// ToolVersion parses a "major.minor.micro" line from tool_version.
func (f FileReader) ToolVersion() (uint32, error) {
	s, err := f.readTrimmed("tool_version")
	if err != nil {
		return 0, err
	}
	var major, minor, micro uint32
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &major, &minor, &micro); err != nil {
		return 0, fmt.Errorf("parsing tool_version %q: %w", s, err)
	}
	return catalog.FWVersion(major, minor, micro), nil
}

// ToolTargetVersion parses a "major.minor.micro" line from tool_target_version.
func (f FileReader) ToolTargetVersion() (uint32, error) {
	s, err := f.readTrimmed("tool_target_version")
	if err != nil {
		return 0, err
	}
	var major, minor, micro uint32
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &major, &minor, &micro); err != nil {
		return 0, fmt.Errorf("parsing tool_target_version %q: %w", s, err)
	}
	return catalog.FWVersion(major, minor, micro), nil
}

// Keygen reads a small integer from keygen.
func (f FileReader) Keygen() (uint8, error) {
	s, err := f.readTrimmed("keygen")
	if err != nil {
		return 0, err
	}
	var v uint32
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, fmt.Errorf("parsing keygen %q: %w", s, err)
	}
	return uint8(v), nil
}

// CommitHash reads an 8-hex-digit commit hash from commit_hash.
func (f FileReader) CommitHash() (uint32, error) {
	s, err := f.readTrimmed("commit_hash")
	if err != nil {
		return 0, err
	}
	var v uint32
	if _, err := fmt.Sscanf(s, "%x", &v); err != nil {
		return 0, fmt.Errorf("parsing commit_hash %q: %w", s, err)
	}
	return v, nil
}

// EmummcPaths reads the two path fields; a missing file means "empty",
// not an error, since the non-emummc case is the common one.
func (f FileReader) EmummcPaths() ([2][128]byte, error) {
	var out [2][128]byte
	for i, name := range []string{"emummc_unk", "emummc_nintendo"} {
		data, err := os.ReadFile(f.Dir + "/" + name)
		if err != nil {
			continue
		}
		copy(out[i][:], data)
	}
	return out, nil
}

// ToolVersionString renders internal/version.Version for display; the log
// store's "version" stat uses this verbatim.
func ToolVersionString() string {
	return version.Version
}
