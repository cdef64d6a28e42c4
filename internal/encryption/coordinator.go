package encryption

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/kirmah/internal/kerrors"
)

// MaxParallel is the largest accepted worker count.
const MaxParallel = 8

// chunk is one contiguous range of a cipher stage input.
type chunk struct {
	input  string
	output string
	// units counts the characters of the range: bytes when enciphering,
	// runes when deciphering.
	units int64
}

// cipherStage runs the stream cipher over src into dst. With more than one
// worker the input is cut into ranges that are processed concurrently and
// concatenated in order; each worker starts at the key index the single
// pass would have reached, so the output is identical.
func (p *Processor) cipherStage(decrypt bool) stageFunc {
	run := p.cipher.Encrypt
	if decrypt {
		run = p.cipher.Decrypt
	}

	return func(ctx context.Context, pc PipelineContext, src, dst string) error {
		if pc.Parallel <= 1 {
			return cipherFile(ctx, run, src, dst, 0)
		}

		chunks, err := splitChunks(pc, src, decrypt)
		if err != nil {
			return err
		}

		pc.Log.WithFields(logrus.Fields{"ranges": len(chunks), "workers": pc.Parallel}).Debug("dispatching cipher workers")

		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(pc.Parallel)

		var offset int64

		for _, c := range chunks {
			start := int(offset % int64(p.cipher.KeyLen()))
			offset += c.units

			group.Go(func() error {
				defer os.Remove(c.input) //nolint:errcheck // workspace removal covers failures

				return cipherFile(gctx, run, c.input, c.output, start)
			})
		}

		if err := group.Wait(); err != nil {
			return err
		}

		return concatChunks(chunks, dst)
	}
}

type cipherFunc func(ctx context.Context, r io.Reader, w io.Writer, start int) error

func cipherFile(ctx context.Context, run cipherFunc, src, dst string, start int) (err error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return kerrors.IO("opening", src, err)
	}
	defer in.Close()

	out, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return kerrors.IO("creating", dst, err)
	}

	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = kerrors.IO("closing", dst, cerr)
		}
	}()

	return run(ctx, in, out, start)
}

// splitChunks cuts src into at most pc.Parallel ranges of ceil(size/n)
// bytes. Decode ranges only end on rune boundaries.
func splitChunks(pc PipelineContext, src string, runeAligned bool) (chunks []chunk, err error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return nil, kerrors.IO("opening", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, kerrors.IO("stat", src, err)
	}

	limit := (info.Size() + int64(pc.Parallel) - 1) / int64(pc.Parallel)

	var (
		out    *os.File
		bw     *bufio.Writer
		length int64
	)

	closeCurrent := func() error {
		if out == nil {
			return nil
		}

		if err := bw.Flush(); err != nil {
			out.Close()

			return kerrors.IO("writing", out.Name(), err)
		}

		return kerrors.IO("closing", out.Name(), out.Close())
	}

	defer func() {
		if err != nil && out != nil {
			out.Close()
		}
	}()

	br := bufio.NewReaderSize(in, defaultBufferSize)

	for {
		b, rerr := br.ReadByte()
		if errors.Is(rerr, io.EOF) {
			break
		}

		if rerr != nil {
			return nil, kerrors.IO("reading", src, rerr)
		}

		boundary := !runeAligned || utf8.RuneStart(b)

		if out == nil || (length >= limit && boundary) {
			if err := closeCurrent(); err != nil {
				out = nil

				return nil, err
			}

			n := len(chunks)
			c := chunk{
				input:  pc.Workspace.Path(fmt.Sprintf("range%d.in", n)),
				output: pc.Workspace.Path(fmt.Sprintf("range%d.out", n)),
			}

			if out, err = os.Create(c.input); err != nil {
				return nil, kerrors.IO("creating", c.input, err)
			}

			bw = bufio.NewWriterSize(out, defaultBufferSize)
			length = 0
			chunks = append(chunks, c)
		}

		if err := bw.WriteByte(b); err != nil {
			return nil, kerrors.IO("writing", out.Name(), err)
		}

		length++

		if boundary {
			chunks[len(chunks)-1].units++
		}
	}

	if err := closeCurrent(); err != nil {
		out = nil

		return nil, err
	}

	out = nil

	return chunks, nil
}

// concatChunks joins the worker outputs in range order into dst.
func concatChunks(chunks []chunk, dst string) (err error) {
	out, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return kerrors.IO("creating", dst, err)
	}

	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = kerrors.IO("closing", dst, cerr)
		}
	}()

	for _, c := range chunks {
		if err := appendFile(out, c.output); err != nil {
			return err
		}

		os.Remove(c.output) //nolint:errcheck,gosec // workspace removal covers failures
	}

	return nil
}

func appendFile(w io.Writer, path string) error {
	in, err := os.Open(filepath.Clean(path))
	if err != nil {
		return kerrors.IO("opening", path, err)
	}
	defer in.Close()

	if _, err := copyBuffered(w, in); err != nil {
		return kerrors.IO("copying", path, err)
	}

	return nil
}
