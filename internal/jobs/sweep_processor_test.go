package jobs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o640); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestSweepStagingDir(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	touch(t, filepath.Join(dir, "import-old.csv"), now.Add(-2*time.Hour))
	touch(t, filepath.Join(dir, "import-old.utf8.csv"), now.Add(-90*time.Minute))
	touch(t, filepath.Join(dir, "import-fresh.xlsx"), now.Add(-10*time.Minute))
	touch(t, filepath.Join(dir, "README.txt"), now.Add(-48*time.Hour))
	if err := os.Mkdir(filepath.Join(dir, "import-dir"), 0o750); err != nil {
		t.Fatal(err)
	}

	removed, err := SweepStagingDir(dir, time.Hour, now)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	for _, keep := range []string{"import-fresh.xlsx", "README.txt", "import-dir"} {
		if _, err := os.Stat(filepath.Join(dir, keep)); err != nil {
			t.Errorf("%s: %v", keep, err)
		}
	}
	for _, gone := range []string{"import-old.csv", "import-old.utf8.csv"} {
		if _, err := os.Stat(filepath.Join(dir, gone)); !os.IsNotExist(err) {
			t.Errorf("%s still present", gone)
		}
	}
}

func TestSweepMissingDir(t *testing.T) {
	removed, err := SweepStagingDir(filepath.Join(t.TempDir(), "nope"), time.Hour, time.Now())
	if err != nil || removed != 0 {
		t.Fatalf("got %d, %v", removed, err)
	}
}

func TestRunSweepSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := RunSweepScheduler(&SweepConfig{Schedule: "every now and then", Dir: t.TempDir()}); err == nil {
		t.Fatal("bad cron spec accepted")
	}
	c, err := RunSweepScheduler(&SweepConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	<-c.Stop().Done()
}
