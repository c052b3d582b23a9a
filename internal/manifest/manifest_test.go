package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildAndSave(t *testing.T) {
	dir := t.TempDir()
	asc := filepath.Join(dir, "a_savvycan.asc")
	csv := filepath.Join(dir, "a_savvycan.csv")
	if err := os.WriteFile(asc, []byte("abc"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(csv, []byte("Timestamp,ID\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m, err := Build([]string{asc, csv})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Items) != 2 || m.Items[0].Type != "asc" || m.Items[1].Type != "savvycan" {
		t.Fatalf("unexpected items %+v", m.Items)
	}
	if m.Items[0].Size != 3 || m.Items[0].Sha256 != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("unexpected hash %+v", m.Items[0])
	}

	out := filepath.Join(dir, "manifest.json")
	if err := Save(m, out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Items) != 2 || loaded.Items[1].Sha256 != m.Items[1].Sha256 {
		t.Fatalf("unexpected loaded manifest %+v", loaded)
	}
	d1, err := Digest(m)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	d2, _ := Digest(loaded)
	if d1 != d2 || len(d1) != 64 {
		t.Fatalf("digest mismatch %s %s", d1, d2)
	}
}

func TestBuildMissingFile(t *testing.T) {
	if _, err := Build([]string{filepath.Join(t.TempDir(), "missing.asc")}); err == nil {
		t.Fatalf("expected error")
	}
}
