package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jayvaidya30/FraudEx/internal/common"
)

func TestSave_StoresByContentHash(t *testing.T) {
	s := NewFileStore(t.TempDir(), nil)

	content := "urgent cash transfer memo"
	res, err := s.Save(strings.NewReader(content), "memo.txt")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	sum := sha256.Sum256([]byte(content))
	wantHash := hex.EncodeToString(sum[:])
	if res.HashHex != wantHash {
		t.Errorf("hash = %s, want %s", res.HashHex, wantHash)
	}
	if res.FileExt != "txt" {
		t.Errorf("ext = %s, want txt", res.FileExt)
	}
	if res.Size != int64(len(content)) {
		t.Errorf("size = %d, want %d", res.Size, len(content))
	}

	stored, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(stored) != content {
		t.Errorf("stored content = %q", stored)
	}
	if !strings.HasSuffix(res.Path, wantHash+".txt") {
		t.Errorf("path = %s, want hash-named file", res.Path)
	}
}

func TestSave_IdenticalBytesSamePath(t *testing.T) {
	s := NewFileStore(t.TempDir(), nil)

	first, err := s.Save(strings.NewReader("same bytes"), "a.txt")
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := s.Save(strings.NewReader("same bytes"), "b.txt")
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if first.Path != second.Path {
		t.Errorf("paths differ for identical content: %s vs %s", first.Path, second.Path)
	}
}

func TestSave_RejectsUnsupportedExtension(t *testing.T) {
	s := NewFileStore(t.TempDir(), nil)

	for _, name := range []string{"payload.exe", "archive.zip", "noext"} {
		_, err := s.Save(strings.NewReader("x"), name)
		if err == nil {
			t.Errorf("save(%q) accepted, want rejection", name)
			continue
		}
		if !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("save(%q) error = %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestSave_ExtensionCaseInsensitive(t *testing.T) {
	s := NewFileStore(t.TempDir(), nil)
	res, err := s.Save(strings.NewReader("pdf bytes"), "Report.PDF")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.FileExt != "pdf" {
		t.Errorf("ext = %s, want pdf", res.FileExt)
	}
}

func TestSave_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, nil)
	if _, err := s.Save(strings.NewReader("content"), "doc.txt"); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "upload-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
