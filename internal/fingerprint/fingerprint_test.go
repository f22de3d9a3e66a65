package fingerprint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileIdenticalContentDifferentNames(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("the same pixels, twice")

	pathA := filepath.Join(tmpDir, "original.jpg")
	pathB := filepath.Join(tmpDir, "copy-with-other-name.jpg")
	for _, p := range []string{pathA, pathB} {
		if err := os.WriteFile(p, content, 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}

	fpA, err := File(pathA)
	if err != nil {
		t.Fatalf("File(%s) failed: %v", pathA, err)
	}
	fpB, err := File(pathB)
	if err != nil {
		t.Fatalf("File(%s) failed: %v", pathB, err)
	}

	if fpA != fpB {
		t.Errorf("identical content produced different fingerprints: %s vs %s", fpA, fpB)
	}
}

func TestFileFormat(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "f.jpg")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	fp, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}

	if len(fp) != HexLength {
		t.Errorf("fingerprint length = %d, want %d", len(fp), HexLength)
	}
	if fp != strings.ToLower(fp) {
		t.Errorf("fingerprint not lowercase: %s", fp)
	}
	// Known SHA-256 of "abc"
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if fp != want {
		t.Errorf("fingerprint = %s, want %s", fp, want)
	}
}

func TestFileDistinctContent(t *testing.T) {
	tmpDir := t.TempDir()
	pathA := filepath.Join(tmpDir, "a.jpg")
	pathB := filepath.Join(tmpDir, "b.jpg")
	os.WriteFile(pathA, []byte("aaa"), 0o644)
	os.WriteFile(pathB, []byte("bbb"), 0o644)

	fpA, _ := File(pathA)
	fpB, _ := File(pathB)
	if fpA == fpB {
		t.Error("different content produced identical fingerprints")
	}
}

func TestFileMissing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing.jpg"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReaderKnownVector(t *testing.T) {
	fp, err := Reader(strings.NewReader("abc"))
	if err != nil {
		t.Fatalf("Reader failed: %v", err)
	}
	// Known SHA-256 of "abc"
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if fp != want {
		t.Errorf("Reader = %s, want %s", fp, want)
	}
}
