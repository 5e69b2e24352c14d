package hostenv

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestFileReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fw_version", "18.1.0\n")
	writeFile(t, dir, "tool_version", "1.2.3\n")
	writeFile(t, dir, "tool_target_version", "1.0.0\n")
	writeFile(t, dir, "keygen", "5\n")
	writeFile(t, dir, "commit_hash", "af66ff99\n")
	writeFile(t, dir, "emummc_nintendo", "/emummc/nintendo")

	r := FileReader{Dir: dir}
	env, err := Gather(r)
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	if major, minor, micro, _ := r.FirmwareVersion(); major != 18 || minor != 1 || micro != 0 {
		t.Errorf("FirmwareVersion = %d.%d.%d", major, minor, micro)
	}
	if env.Keygen != 5 {
		t.Errorf("Keygen = %d, want 5", env.Keygen)
	}
	if env.Hash != 0xaf66ff99 {
		t.Errorf("Hash = %#x, want 0xaf66ff99", env.Hash)
	}
	if !env.EmuMMC {
		t.Error("expected EmuMMC true when emummc_nintendo is populated")
	}
}

func TestFileReaderNotEmuMMCWhenPathsAbsent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fw_version", "10.0.0\n")
	writeFile(t, dir, "tool_version", "1.0.0\n")
	writeFile(t, dir, "tool_target_version", "1.0.0\n")
	writeFile(t, dir, "keygen", "0\n")
	writeFile(t, dir, "commit_hash", "00000000\n")

	env, err := Gather(FileReader{Dir: dir})
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	if env.EmuMMC {
		t.Error("expected EmuMMC false when neither path file exists")
	}
}

func TestGatherPropagatesReaderError(t *testing.T) {
	// Missing directory entirely: FirmwareVersion fails first.
	_, err := Gather(FileReader{Dir: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatal("expected error for missing environment files")
	}
}
