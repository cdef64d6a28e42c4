package logic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/idelchi/kirmah/internal/bundle"
	"github.com/idelchi/kirmah/internal/fileutil"
	"github.com/idelchi/kirmah/internal/kerrors"
)

// decryptedExt is appended when a decrypted file has no extension to strip.
const decryptedExt = ".dec"

func encryptedPath(file, output string) string {
	if output != "" {
		return output
	}

	return file + bundle.PartExt
}

func decryptedPath(file, output string) string {
	if output != "" {
		return output
	}

	if strings.HasSuffix(file, bundle.PartExt) && len(file) > len(bundle.PartExt) {
		return strings.TrimSuffix(file, bundle.PartExt)
	}

	return file + decryptedExt
}

func bundlePath(file, output string) string {
	if output != "" {
		return output
	}

	return file + bundle.BundleExt
}

// checkOutput decides whether path may be written. An existing file is
// replaced when force is set or the user agrees on a terminal.
func checkOutput(path string, force bool, in *os.File, out io.Writer) error {
	if force || !fileutil.Exists(path) {
		return nil
	}

	if in == nil || !term.IsTerminal(int(in.Fd())) { //nolint:gosec // fd fits int
		return kerrors.IO("writing", path, kerrors.ErrFileExists)
	}

	fmt.Fprintf(out, "%q exists, overwrite? [y/N] ", filepath.Base(path))

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return kerrors.IO("writing", path, kerrors.ErrFileExists)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return kerrors.IO("writing", path, kerrors.ErrFileExists)
	}
}
