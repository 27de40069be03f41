package container

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.clann")

	sections := []Section{
		{Name: "config", Data: []byte("config-bytes")},
		{Name: "clusters", Data: []byte("clusters-bytes")},
		{Name: "index_0", Data: []byte{1, 2, 3, 4, 5}},
	}

	if err := Write(path, sections); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(sections) {
		t.Fatalf("expected %d sections, got %d", len(sections), len(got))
	}
	for i, s := range sections {
		if got[i].Name != s.Name || string(got[i].Data) != string(s.Data) {
			t.Fatalf("section %d mismatch: got %+v, want %+v", i, got[i], s)
		}
	}
}

func TestFindMissingSection(t *testing.T) {
	sections := []Section{{Name: "config", Data: []byte("x")}}
	if _, err := Find(sections, "clusters"); err == nil {
		t.Fatal("expected error for missing section")
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.clann")
	if err := Write(path, []Section{{Name: "a", Data: []byte("b")}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Corrupt the magic number in place.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back raw bytes: %v", err)
	}
	data[0] ^= 0xFF
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("rewrite corrupted bytes: %v", err)
	}

	if _, err := Read(path); err == nil {
		t.Fatal("expected error reading container with corrupted magic number")
	}
}
