// Package fileutil provides the atomic output and temporary artifact helpers
// used by the pipeline.
package fileutil

import (
	"os"
	"path/filepath"

	"github.com/idelchi/kirmah/internal/kerrors"
)

const ownerReadWrite = 0o600

// TempContext holds state for an atomic write of one output file.
// The output only appears at its final path once Commit succeeds.
type TempContext struct {
	SrcInfo os.FileInfo
	IsExec  bool
	TmpFile *os.File
	TmpName string
	OutPath string
}

// NewTempContext stats the source file and creates a temp file next to
// outPath. Caller must defer CleanupOnError.
func NewTempContext(srcPath, outPath string) (*TempContext, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return nil, kerrors.IO("stat", srcPath, err)
	}

	const executableBits = 0o111

	tmpFile, err := os.CreateTemp(filepath.Dir(outPath), ".tmp-kirmah-*")
	if err != nil {
		return nil, kerrors.IO("creating temporary file", filepath.Dir(outPath), err)
	}

	return &TempContext{
		SrcInfo: info,
		IsExec:  info.Mode()&executableBits != 0,
		TmpFile: tmpFile,
		TmpName: tmpFile.Name(),
		OutPath: outPath,
	}, nil
}

// CleanupOnError closes the temp file and removes it if the write failed.
func (tc *TempContext) CleanupOnError(errp *error) {
	tc.TmpFile.Close() //nolint:gosec // best-effort cleanup

	if *errp != nil {
		os.Remove(tc.TmpName) //nolint:gosec // best-effort cleanup
	}
}

// Commit closes the temp file, applies owner permissions (keeping the
// executable bit of the source) and renames it over OutPath.
// It returns the size of the final file.
func (tc *TempContext) Commit() (int64, error) {
	if err := tc.TmpFile.Close(); err != nil {
		return 0, kerrors.IO("closing temporary file", tc.TmpName, err)
	}

	perm := os.FileMode(ownerReadWrite)
	if tc.IsExec {
		perm |= 0o111
	}

	if err := os.Chmod(tc.TmpName, perm); err != nil {
		return 0, kerrors.IO("setting file permissions", tc.TmpName, err)
	}

	if err := os.Rename(tc.TmpName, tc.OutPath); err != nil {
		return 0, kerrors.IO("renaming output file", tc.OutPath, err)
	}

	info, err := os.Stat(tc.OutPath)
	if err != nil {
		return 0, kerrors.IO("stat output", tc.OutPath, err)
	}

	return info.Size(), nil
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// Size returns the size of the file at path.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, kerrors.IO("stat", path, err)
	}

	return info.Size(), nil
}

// ensureDir creates dir when missing.
func ensureDir(dir string) error {
	const ownerAll = 0o700

	if err := os.MkdirAll(dir, ownerAll); err != nil {
		return kerrors.IO("creating directory", dir, err)
	}

	return nil
}
