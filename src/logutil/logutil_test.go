package logutil

import (
	"log"
	"os"
	"testing"
)

// chdir switches the working directory for the duration of the test,
// mirroring testing.T.Chdir which needs a newer toolchain than this
// module targets.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%s) failed: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory failed: %v", err)
		}
	})
}

func writeLog(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) failed: %v", name, err)
	}
}

func readLog(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile(%s) failed: %v", name, err)
	}
	return string(data)
}

func TestRotateShiftsArchiveChain(t *testing.T) {
	chdir(t, t.TempDir())
	writeLog(t, logFileName, "current")
	writeLog(t, archiveName(1), "gen1")
	writeLog(t, archiveName(2), "gen2")
	writeLog(t, archiveName(3), "gen3")

	rotate()

	if _, err := os.Stat(logFileName); !os.IsNotExist(err) {
		t.Errorf("live log still present after rotate (stat err %v)", err)
	}
	if got := readLog(t, archiveName(1)); got != "current" {
		t.Errorf("archive 1 = %q, want the rotated live log", got)
	}
	if got := readLog(t, archiveName(2)); got != "gen1" {
		t.Errorf("archive 2 = %q, want gen1", got)
	}
	if got := readLog(t, archiveName(3)); got != "gen2" {
		t.Errorf("archive 3 = %q, want gen2", got)
	}
}

func TestRotateDropsOldestGeneration(t *testing.T) {
	chdir(t, t.TempDir())
	writeLog(t, logFileName, "current")
	writeLog(t, archiveName(3), "ancient")

	rotate()

	if got := readLog(t, archiveName(1)); got != "current" {
		t.Errorf("archive 1 = %q, want current", got)
	}
	for _, n := range []int{2, 3} {
		if _, err := os.Stat(archiveName(n)); !os.IsNotExist(err) {
			t.Errorf("archive %d should not exist (stat err %v)", n, err)
		}
	}
}

func TestRotateIfNeededLeavesSmallLogAlone(t *testing.T) {
	chdir(t, t.TempDir())
	writeLog(t, logFileName, "tiny")

	rotateIfNeeded()

	if got := readLog(t, logFileName); got != "tiny" {
		t.Errorf("live log = %q, want untouched", got)
	}
	if _, err := os.Stat(archiveName(1)); !os.IsNotExist(err) {
		t.Errorf("small log must not produce an archive (stat err %v)", err)
	}
}

func TestSetupDisabledWritesNothing(t *testing.T) {
	chdir(t, t.TempDir())
	Setup(false)
	log.Print("should vanish")

	if _, err := os.Stat(logFileName); !os.IsNotExist(err) {
		t.Errorf("disabled file logging must not create %s (stat err %v)", logFileName, err)
	}
}
