package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jayvaidya30/FraudEx/constants"
	"github.com/jayvaidya30/FraudEx/internal/common"
)

// SaveResult describes a stored upload.
type SaveResult struct {
	Path    string
	HashHex string
	FileExt string
	Size    int64
}

// FileStore persists uploaded documents to a local directory. The stored
// name embeds the content hash so re-uploads of identical bytes land on
// the same path.
type FileStore struct {
	Dir    string
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{Dir: dir, logger: logger}
}

// Save streams src into the upload directory. The extension is taken from
// filename and gated against the allowed set.
func (s *FileStore) Save(src io.Reader, filename string) (SaveResult, error) {
	var out SaveResult

	ext := constants.NormalizeExt(filepath.Ext(filename))
	if ext == "" || !constants.IsAllowedExt(ext) {
		s.logger.Warn("rejected upload with unsupported extension", "filename", filename, "ext", ext)
		return out, common.NewAppError("UNSUPPORTED_FILE", fmt.Sprintf("unsupported file extension %q", ext), common.ErrInvalidInput)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		s.logger.Error("failed to create upload dir", "dir", s.Dir, "error", err)
		return out, common.WrapError(err, "create upload dir")
	}

	tmp, err := os.CreateTemp(s.Dir, "upload-*")
	if err != nil {
		s.logger.Error("failed to create temp upload file", "error", err)
		return out, common.WrapError(err, "create temp file")
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpPath)
	}()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.logger.Error("failed to write upload", "error", err)
		return out, common.WrapError(err, "write upload")
	}

	hashHex := hex.EncodeToString(h.Sum(nil))
	final := filepath.Join(s.Dir, hashHex+"."+ext)
	if err := os.Rename(tmpPath, final); err != nil {
		s.logger.Error("failed to finalize upload", "path", final, "error", err)
		return out, common.WrapError(err, "finalize upload")
	}

	s.logger.Info("stored upload", "path", final, "bytes", size, "hash", hashHex)
	return SaveResult{Path: final, HashHex: hashHex, FileExt: ext, Size: size}, nil
}
