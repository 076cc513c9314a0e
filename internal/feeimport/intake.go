package feeimport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"QuickBill305/internal/checksum"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StagedFile is an upload persisted to the staging directory. The owner must
// Remove it once parsing is done.
type StagedFile struct {
	Path         string
	OriginalName string
	Ext          string
	Size         int64
	SHA256       string
}

func (f *StagedFile) Remove() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Intake validates an upload and copies it into the staging directory.
type Intake struct {
	cfg Config
	log *zap.Logger
}

func NewIntake(cfg Config, log *zap.Logger) *Intake {
	if log == nil {
		log = zap.NewNop()
	}
	return &Intake{cfg: cfg, log: log}
}

// Stage checks size and extension, then writes src under a generated name.
// Nothing is left on disk when an error is returned.
func (in *Intake) Stage(filename string, declaredSize int64, src io.Reader) (*StagedFile, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" || !in.cfg.extensionAllowed(ext) {
		return nil, newError(KindUpload, fmt.Sprintf("file type %q is not allowed (allowed: %s)", ext, strings.Join(in.cfg.AllowedExtensions, ", ")), nil)
	}
	if declaredSize > in.cfg.MaxUploadBytes {
		return nil, newError(KindUpload, fmt.Sprintf("file is too large (%d bytes, limit %d)", declaredSize, in.cfg.MaxUploadBytes), nil)
	}
	if err := os.MkdirAll(in.cfg.StagingDir, 0o750); err != nil {
		return nil, newError(KindUpload, "staging directory unavailable", err)
	}

	path := filepath.Join(in.cfg.StagingDir, fmt.Sprintf("import-%s.%s", uuid.New().String(), ext))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, newError(KindUpload, "could not create staging file", err)
	}

	n, sum, copyErr := checksum.CopyLimited(dst, src, in.cfg.MaxUploadBytes)
	closeErr := dst.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(path)
		if errors.Is(copyErr, checksum.ErrTooLarge) {
			return nil, newError(KindUpload, fmt.Sprintf("file is too large (limit %d bytes)", in.cfg.MaxUploadBytes), nil)
		}
		return nil, newError(KindUpload, "upload could not be read", copyErr)
	}

	staged := &StagedFile{Path: path, OriginalName: filename, Ext: ext, Size: n, SHA256: sum}
	in.log.Info("upload staged",
		zap.String("file", filename),
		zap.String("staged_path", path),
		zap.Int64("bytes", n),
		zap.String("sha256", sum),
	)
	return staged, nil
}
