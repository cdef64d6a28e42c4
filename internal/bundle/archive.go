package bundle

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/idelchi/kirmah/internal/kerrors"
)

// writeArchive stores files, by base name and in the given order, as a tar
// stream into w. All entries share one modification time.
func writeArchive(w io.Writer, files []string) error {
	tw := tar.NewWriter(w)
	stamp := time.Now().Truncate(time.Second)

	for _, path := range files {
		if err := addEntry(tw, path, stamp); err != nil {
			return err
		}
	}

	return kerrors.IO("closing archive", "", tw.Close())
}

func addEntry(tw *tar.Writer, path string, stamp time.Time) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return kerrors.IO("opening", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return kerrors.IO("stat", path, err)
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		Mode:     ownerReadWrite,
		ModTime:  stamp,
		Format:   tar.FormatPAX,
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return kerrors.IO("writing archive header", path, err)
	}

	if _, err := io.Copy(tw, f); err != nil {
		return kerrors.IO("archiving", path, err)
	}

	return nil
}

// extractArchive unpacks the regular files of the tar at path into dir and
// returns their paths in archive order. Entries must be plain base names.
func extractArchive(path, dir string) (files []string, err error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, kerrors.IO("opening", path, err)
	}
	defer f.Close()

	tr := tar.NewReader(f)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return files, fmt.Errorf("%w: reading archive %q: %w", kerrors.ErrNotKirmah, path, err)
		}

		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name := hdr.Name
		if name != filepath.Base(name) || name == "." || name == ".." {
			return files, fmt.Errorf("%w: unexpected archive entry %q", kerrors.ErrNotKirmah, hdr.Name)
		}

		target := filepath.Join(dir, name)
		if err := extractEntry(tr, target); err != nil {
			return files, err
		}

		files = append(files, target)
	}

	return files, nil
}

func extractEntry(r io.Reader, target string) (err error) {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, ownerReadWrite)
	if err != nil {
		return kerrors.IO("creating", target, err)
	}

	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = kerrors.IO("closing", target, cerr)
		}
	}()

	if _, err := io.Copy(out, r); err != nil { //nolint:gosec // entries are the parts of a bundle we produced
		return kerrors.IO("extracting", target, err)
	}

	return nil
}
