package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_OptionalMatching(t *testing.T) {
	tbl := Default()

	cases := []struct {
		endpoint string
		want     bool
	}{
		{"/news", true},
		{"/news/", true},
		{"/news/2024-06-01", true},
		{"/offices/denver/hours", true},
		{"/offices/denver", false},
		{"/benefits", false},
		{"/forms/abc", false},
	}
	for _, c := range cases {
		if got := tbl.Optional(c.endpoint); got != c.want {
			t.Fatalf("Optional(%q) = %v, want %v", c.endpoint, got, c.want)
		}
	}
}

func TestSensitive_StrictNeverSkips(t *testing.T) {
	tbl := Default()
	if tbl.Sensitive(ClassStrict) {
		t.Fatal("strict class must never be environment-sensitive")
	}
	if tbl.Sensitive("") {
		t.Fatal("empty class must never be environment-sensitive")
	}
	if !tbl.Sensitive(ClassTiming) || !tbl.Sensitive(ClassHeader) {
		t.Fatal("default flaky classes should be sensitive")
	}
}

func TestLoad_MergesDefaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "policy.yaml")
	content := []byte("optional_endpoints:\n  - /beta/*\nflaky_classes: [timing]\n")
	if err := os.WriteFile(file, content, 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !tbl.Optional("/beta/dashboard") {
		t.Fatal("file-provided pattern should match")
	}
	if tbl.Optional("/news") {
		t.Fatal("file-provided optional list should replace the default list")
	}
	if tbl.Sensitive(ClassRendering) {
		t.Fatal("rendering should not be sensitive after the file narrowed flaky classes")
	}
	// headers were not set in the file, so defaults apply
	if !tbl.MandatoryHeader("X-Request-Id") {
		t.Fatal("default mandatory headers should survive a partial file")
	}
}

func TestLoad_BadFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	file := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(file, []byte(": not yaml ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(file); err == nil {
		t.Fatal("expected error for unparseable file")
	}
}
