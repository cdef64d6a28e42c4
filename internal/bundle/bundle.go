// Package bundle splits a file into independently encoded parts and merges
// them back.
//
// A split produces one part file per descriptor of the part table, a .kcf
// file holding the {name, count} record the table is regenerated from, and
// a .tark archive holding the .kcf followed by the parts in scatter order.
package bundle

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/kirmah/internal/encryption"
	"github.com/idelchi/kirmah/internal/fileutil"
	"github.com/idelchi/kirmah/internal/header"
	"github.com/idelchi/kirmah/internal/kerrors"
	"github.com/idelchi/kirmah/internal/noise"
	"github.com/idelchi/kirmah/internal/parttable"
)

const (
	// MinParts and MaxParts bound the part count of a split.
	MinParts = 12
	MaxParts = 62
	// DefaultParts is the part count used when none is requested.
	DefaultParts = 22

	// PartExt, ConfigExt and BundleExt are the extensions of the artifacts.
	PartExt   = ".kmh"
	ConfigExt = ".kcf"
	BundleExt = ".tark"

	ownerReadWrite = 0o600
)

//nolint:gochecknoglobals
var (
	// partModes are recorded in every part header.
	partModes = header.Modes{Compression: header.End, Random: true, Mix: true}
	// configModes encrypt the .kcf record.
	configModes = header.Modes{Compression: header.None, Random: true, Mix: true}
)

// Bundler splits and merges files for the key of a Processor.
type Bundler struct {
	proc *encryption.Processor
	log  *logrus.Logger
}

// New returns a Bundler that shares the key and logger of proc.
func New(proc *encryption.Processor) *Bundler {
	return &Bundler{proc: proc, log: proc.Logger()}
}

// ValidateParts checks a requested part count.
func ValidateParts(parts int) error {
	if parts < MinParts || parts > MaxParts {
		return kerrors.Invalid("parts", parts, fmt.Sprintf("must be between %d and %d", MinParts, MaxParts))
	}

	return nil
}

// Split cuts src into parts parts and bundles them into bundlePath, which
// defaults to src + BundleExt. It returns the bundle path.
func (b *Bundler) Split(ctx context.Context, src string, parts int, bundlePath string) (path string, err error) {
	if err := ValidateParts(parts); err != nil {
		return "", err
	}

	if bundlePath == "" {
		bundlePath = src + BundleExt
	}

	start := time.Now()
	log := b.log.WithFields(logrus.Fields{"op": "split", "file": filepath.Base(src)})

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return "", kerrors.IO("opening", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", kerrors.IO("stat", src, err)
	}

	name := filepath.Base(src)

	table, err := b.proc.Tables().Build(name, parts, false)
	if err != nil {
		return "", err
	}

	preamble, err := b.proc.Codec().Build(info.Size(), partModes)
	if err != nil {
		return "", fmt.Errorf("building part header: %w", err)
	}

	ws, err := fileutil.NewWorkspace(filepath.Dir(bundlePath))
	if err != nil {
		return "", err
	}

	defer func() {
		if rerr := ws.Remove(); rerr != nil {
			log.WithError(rerr).Warn("removing workspace")
		}
	}()

	psize := (info.Size() + int64(parts) - 1) / int64(parts)
	paths := make(map[int]string, parts)

	for _, d := range table.ByIndex() {
		if err := ctx.Err(); err != nil {
			return "", kerrors.Cancelled(context.Cause(ctx))
		}

		partPath := filepath.Join(ws.Dir(), d.Name+PartExt)

		if err := b.writePart(partPath, preamble, table.ConfigKey, d, io.LimitReader(in, psize)); err != nil {
			return "", fmt.Errorf("writing part %d: %w", d.Index, err)
		}

		paths[d.Index] = partPath
	}

	kcf, err := b.writeConfig(ctx, ws, table)
	if err != nil {
		return "", err
	}

	members := []string{kcf}
	for _, d := range table.ByScatter() {
		members = append(members, paths[d.Index])
	}

	tc, err := fileutil.NewTempContext(src, bundlePath)
	if err != nil {
		return "", err
	}

	defer tc.CleanupOnError(&err)

	if err = writeArchive(tc.TmpFile, members); err != nil {
		return "", err
	}

	size, err := tc.Commit()
	if err != nil {
		return "", err
	}

	log.WithFields(logrus.Fields{
		"parts":    parts,
		"bundle":   bundlePath,
		"size":     humanize.IBytes(uint64(size)), //nolint:gosec // file size
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("done")

	return bundlePath, nil
}

func (b *Bundler) writePart(path string, preamble []byte, configKey string, d parttable.Descriptor, data io.Reader) (err error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, ownerReadWrite)
	if err != nil {
		return kerrors.IO("creating", path, err)
	}

	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = kerrors.IO("closing", path, cerr)
		}
	}()

	prefix, err := noise.Random(d.PrefixNoise, false)
	if err != nil {
		return err
	}

	suffix, err := noise.Random(d.SuffixNoise, false)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(out)
	hw := &headWriter{w: bw, preamble: preamble, configKey: configKey, index: d.Index}

	gz, err := gzip.NewWriterLevel(hw, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}

	if _, err := gz.Write(prefix[header.Size:]); err != nil {
		return fmt.Errorf("compressing: %w", err)
	}

	if _, err := io.Copy(gz, data); err != nil {
		return fmt.Errorf("compressing: %w", err)
	}

	if _, err := gz.Write(suffix); err != nil {
		return fmt.Errorf("compressing: %w", err)
	}

	if err := gz.Close(); err != nil {
		return fmt.Errorf("compressing: %w", err)
	}

	if err := hw.Close(); err != nil {
		return kerrors.IO("writing", path, err)
	}

	return kerrors.IO("writing", path, bw.Flush())
}

// writeConfig encrypts the record of table into the workspace.
func (b *Bundler) writeConfig(ctx context.Context, ws *fileutil.Workspace, table *parttable.Table) (string, error) {
	data, err := record{Name: table.Name, Count: table.Count}.marshal()
	if err != nil {
		return "", err
	}

	plain := ws.Path("record")
	if err := os.WriteFile(plain, data, ownerReadWrite); err != nil {
		return "", kerrors.IO("writing", plain, err)
	}

	kcf := filepath.Join(ws.Dir(), table.Root+ConfigExt)

	opts := encryption.Options{Modes: configModes, Parallel: 1, TempDir: ws.Dir()}
	if _, err := b.proc.Encrypt(ctx, plain, kcf, opts); err != nil {
		return "", fmt.Errorf("encrypting %s: %w", ConfigExt, err)
	}

	return kcf, nil
}

// Merge rebuilds the file bundled in input, a .tark archive or a .kcf file
// whose parts sit next to it. output may be empty (the recorded name next
// to input), a directory, or a file path. An existing file is never
// replaced: a unique suffix is added instead. It returns the output path.
func (b *Bundler) Merge(ctx context.Context, input, output string) (path string, err error) {
	start := time.Now()
	input = filepath.Clean(input)
	log := b.log.WithFields(logrus.Fields{"op": "merge", "file": filepath.Base(input)})

	parent := filepath.Dir(input)
	if output != "" {
		if info, serr := os.Stat(output); serr == nil && info.IsDir() {
			parent = output
		} else {
			parent = filepath.Dir(output)
		}
	}

	ws, err := fileutil.NewWorkspace(parent)
	if err != nil {
		return "", err
	}

	defer func() {
		if rerr := ws.Remove(); rerr != nil {
			log.WithError(rerr).Warn("removing workspace")
		}
	}()

	kcf, partDir, err := locateConfig(input, ws.Dir())
	if err != nil {
		return "", err
	}

	rec, err := b.readConfig(ctx, ws, kcf)
	if err != nil {
		return "", err
	}

	table, err := b.proc.Tables().Build(rec.Name, rec.Count, true)
	if err != nil {
		return "", kerrors.Corrupt("part count", err)
	}

	path = resolveOutput(input, output, rec.Name)

	tc, err := fileutil.NewTempContext(kcf, path)
	if err != nil {
		return "", err
	}

	defer tc.CleanupOnError(&err)

	bw := bufio.NewWriter(tc.TmpFile)

	var (
		total int64
		last  header.Header
	)

	for _, d := range table.ByIndex() {
		if err := ctx.Err(); err != nil {
			return "", kerrors.Cancelled(context.Cause(ctx))
		}

		partPath := filepath.Join(partDir, d.Name+PartExt)

		n, h, err := b.readPart(partPath, table.ConfigKey, d, bw)
		if err != nil {
			return "", fmt.Errorf("reading part %d: %w", d.Index, err)
		}

		total += n
		last = h

		if err := os.Remove(partPath); err != nil {
			log.WithError(err).Warn("removing part")
		}
	}

	if err = bw.Flush(); err != nil {
		return "", kerrors.IO("writing", path, err)
	}

	if last.Secure != b.proc.Codec().Expected(total) {
		err = fmt.Errorf("%w: merged length does not match the part headers", kerrors.ErrBadKey)

		return "", err
	}

	size, err := tc.Commit()
	if err != nil {
		return "", err
	}

	log.WithFields(logrus.Fields{
		"output":   path,
		"size":     humanize.IBytes(uint64(size)), //nolint:gosec // file size
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("done")

	return path, nil
}

// locateConfig returns the .kcf to read and the directory holding the parts.
// input is a .kcf, a directory holding exactly one .kcf, or a .tark archive.
func locateConfig(input, workDir string) (kcf, partDir string, err error) {
	if strings.HasSuffix(input, ConfigExt) {
		return input, filepath.Dir(input), nil
	}

	if info, err := os.Stat(input); err == nil && info.IsDir() {
		matches, err := filepath.Glob(filepath.Join(input, "*"+ConfigExt))
		if err != nil {
			return "", "", fmt.Errorf("searching %q: %w", input, err)
		}

		switch len(matches) {
		case 0:
			return "", "", fmt.Errorf("%w: no %s in %q", kerrors.ErrNotKirmah, ConfigExt, input)
		case 1:
			return matches[0], input, nil
		default:
			return "", "", kerrors.Invalid("input", input, fmt.Sprintf("holds %d %s files, want one", len(matches), ConfigExt))
		}
	}

	files, err := extractArchive(input, workDir)
	if err != nil {
		return "", "", err
	}

	for _, f := range files {
		if strings.HasSuffix(f, ConfigExt) {
			return f, workDir, nil
		}
	}

	return "", "", fmt.Errorf("%w: no %s in %q", kerrors.ErrNotKirmah, ConfigExt, input)
}

func (b *Bundler) readConfig(ctx context.Context, ws *fileutil.Workspace, kcf string) (record, error) {
	plain := ws.Path("record")

	if _, err := b.proc.Decrypt(ctx, kcf, plain, encryption.Options{Parallel: 1, TempDir: ws.Dir()}); err != nil {
		return record{}, fmt.Errorf("decrypting %s: %w", ConfigExt, err)
	}

	data, err := os.ReadFile(plain) //nolint:gosec // workspace artifact
	if err != nil {
		return record{}, kerrors.IO("reading", plain, err)
	}

	rec, err := unmarshalRecord(data)
	if err != nil {
		return record{}, kerrors.Corrupt("configuration record", err)
	}

	if rec.Name == "" || rec.Name != filepath.Base(rec.Name) {
		return record{}, kerrors.Corrupt("configuration record name", nil)
	}

	return rec, nil
}

// readPart writes the payload of one part file to w and returns its length
// and header.
func (b *Bundler) readPart(path, configKey string, d parttable.Descriptor, w io.Writer) (int64, header.Header, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, header.Header{}, kerrors.IO("opening", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)

	lead := make([]byte, header.Size+lengthDigits)
	if _, err := io.ReadFull(br, lead); err != nil {
		return 0, header.Header{}, fmt.Errorf("%w: %q is too short", kerrors.ErrNotKirmah, path)
	}

	h, ok := b.proc.Codec().Read(lead[:header.Size])
	if !ok {
		return 0, header.Header{}, fmt.Errorf("%w: %q", kerrors.ErrNotKirmah, path)
	}

	n, err := strconv.Atoi(string(lead[header.Size:]))
	if err != nil || n-d.Index < 0 {
		return 0, header.Header{}, kerrors.Corrupt("part length prefix", err)
	}

	obf := make([]byte, n-d.Index)
	if _, err := io.ReadFull(br, obf); err != nil {
		return 0, header.Header{}, kerrors.Corrupt("part head", err)
	}

	head, err := deobfuscate(obf, configKey, d.Index)
	if err != nil {
		return 0, header.Header{}, err
	}

	gz, err := gzip.NewReader(io.MultiReader(bytes.NewReader(head), br))
	if err != nil {
		return 0, header.Header{}, kerrors.Corrupt("decompressing part", err)
	}
	defer gz.Close()

	tw := &trimWriter{w: w, skip: int64(d.PrefixNoise - header.Size), hold: d.SuffixNoise}

	if _, err := io.Copy(tw, gz); err != nil {
		if kerrors.IsIOFailure(err) {
			return 0, header.Header{}, err
		}

		return 0, header.Header{}, kerrors.Corrupt("decompressing part", err)
	}

	if err := tw.Close(); err != nil {
		return 0, header.Header{}, err
	}

	return tw.written, h, nil
}

// resolveOutput picks the merge destination and avoids overwriting an
// existing file by inserting a random suffix before the extension.
func resolveOutput(input, output, name string) string {
	path := filepath.Join(filepath.Dir(input), name)

	if output != "" {
		path = output
		if info, err := os.Stat(output); err == nil && info.IsDir() {
			path = filepath.Join(output, name)
		}
	}

	if !fileutil.Exists(path) {
		return path
	}

	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + "-" + uuid.NewString() + ext
}
