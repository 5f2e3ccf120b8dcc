package load

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadProfile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "profile.yaml")
	content := []byte(`stages:
  - name: warmup
    duration: 5s
    rps: 2
  - name: peak
    duration: 1m
    rps: 25
`)
	if err := os.WriteFile(file, content, 0o644); err != nil {
		t.Fatal(err)
	}

	stages, err := LoadProfile(file)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if len(stages) != 2 {
		t.Fatalf("want 2 stages, got %d", len(stages))
	}
	if stages[1].Name != "peak" || stages[1].Duration != time.Minute || stages[1].RPS != 25 {
		t.Fatalf("stage parsed wrong: %+v", stages[1])
	}
}

func TestLoadProfile_Errors(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing file should error")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("stages:\n  - name: x\n    duration: eleven\n    rps: 1\n"), 0o644)
	if _, err := LoadProfile(bad); err == nil {
		t.Fatal("unparseable duration should error")
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	os.WriteFile(empty, []byte("stages: []\n"), 0o644)
	if _, err := LoadProfile(empty); err == nil {
		t.Fatal("empty stage list should error")
	}
}
