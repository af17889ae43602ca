// Package backup implements the `sublarr backup`/`sublarr restore` archive
// format: a zip containing the sqlite database file and the settings file,
// read back verbatim on restore.
package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
)

const (
	dbEntryName     = "sublarr.db"
	configEntryName = "settings.json"
)

// Create writes a zip archive at destPath containing dbPath and
// configPath. The database must not be concurrently written to during the
// copy; callers back up while the scheduler's backup task holds the
// write-lock equivalent (a consistent snapshot isn't attempted here beyond
// that).
func Create(destPath, dbPath, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return apperr.New(apperr.Internal, err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return apperr.New(apperr.Internal, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	if err := addFile(zw, dbEntryName, dbPath); err != nil {
		zw.Close()
		return err
	}
	if err := addFile(zw, configEntryName, configPath); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return apperr.New(apperr.Internal, err)
	}
	return nil
}

func addFile(zw *zip.Writer, entryName, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return apperr.New(apperr.Internal, err)
	}
	defer src.Close()

	w, err := zw.Create(entryName)
	if err != nil {
		return apperr.New(apperr.Internal, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return apperr.New(apperr.Internal, err)
	}
	return nil
}

// Restore unpacks archivePath's database and settings entries onto dbPath
// and configPath, overwriting whatever is already there. Callers must stop
// Sublarr (or at least close the database handle) before calling this.
func Restore(archivePath, dbPath, configPath string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return apperr.New(apperr.ContentInvalid, err)
	}
	defer zr.Close()

	targets := map[string]string{dbEntryName: dbPath, configEntryName: configPath}
	found := map[string]bool{}

	for _, f := range zr.File {
		target, ok := targets[f.Name]
		if !ok {
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
		found[f.Name] = true
	}
	for name := range targets {
		if !found[name] {
			return apperr.Newf(apperr.ContentInvalid, "backup archive missing entry %q", name)
		}
	}
	return nil
}

func extractFile(f *zip.File, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return apperr.New(apperr.Internal, err)
	}

	rc, err := f.Open()
	if err != nil {
		return apperr.New(apperr.ContentInvalid, err)
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return apperr.New(apperr.Internal, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return apperr.New(apperr.Internal, fmt.Errorf("extract %s: %w", destPath, err))
	}
	return nil
}
