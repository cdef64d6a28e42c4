package encryption

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/idelchi/kirmah/internal/header"
	"github.com/idelchi/kirmah/internal/kerrors"
)

// encodeStage gzips src when full is set, then base64 encodes it with a
// trailing newline. The cipher only ever sees ASCII.
func encodeStage(full bool) stageFunc {
	return func(_ context.Context, _ PipelineContext, src, dst string) (err error) {
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

		bw := bufio.NewWriterSize(out, defaultBufferSize)
		enc := base64.NewEncoder(base64.StdEncoding, bw)

		var sink io.WriteCloser = enc

		if full {
			gz, err := gzip.NewWriterLevel(enc, gzip.BestCompression)
			if err != nil {
				return fmt.Errorf("creating gzip writer: %w", err)
			}

			if _, err := copyBuffered(gz, in); err != nil {
				return fmt.Errorf("compressing: %w", err)
			}

			if err := gz.Close(); err != nil {
				return fmt.Errorf("compressing: %w", err)
			}
		} else if _, err := copyBuffered(sink, in); err != nil {
			return kerrors.IO("encoding", src, err)
		}

		if err := sink.Close(); err != nil {
			return kerrors.IO("encoding", dst, err)
		}

		if err := bw.WriteByte('\n'); err != nil {
			return kerrors.IO("writing", dst, err)
		}

		return kerrors.IO("writing", dst, bw.Flush())
	}
}

// decodeInto reverses encodeStage, writing the plain bytes of src to w.
func decodeInto(src string, w io.Writer, full bool) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return kerrors.IO("opening", src, err)
	}
	defer in.Close()

	var r io.Reader = base64.NewDecoder(base64.StdEncoding, bufio.NewReaderSize(in, defaultBufferSize))

	if full {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return kerrors.Corrupt("decompressing", err)
		}
		defer gz.Close()

		r = gz
	}

	if _, err := copyBuffered(w, r); err != nil {
		return kerrors.Corrupt("decoding", err)
	}

	return nil
}

// sealInto writes header and payload to w. With compression enabled the
// payload is gzipped into the workspace first, since the header records the
// final payload length.
func (p *Processor) sealInto(pc PipelineContext, src string, w io.Writer, modes header.Modes) (int64, error) {
	payload := src

	if modes.Compression != header.None {
		payload = pc.Workspace.Path("sealed")

		if err := gzipFile(src, payload); err != nil {
			return 0, err
		}
	}

	info, err := os.Stat(payload)
	if err != nil {
		return 0, kerrors.IO("stat", payload, err)
	}

	head, err := p.codec.Build(info.Size(), modes)
	if err != nil {
		return 0, fmt.Errorf("building header: %w", err)
	}

	if _, err := w.Write(head); err != nil {
		return 0, kerrors.IO("writing header", src, err)
	}

	if err := appendFile(w, payload); err != nil {
		return 0, err
	}

	return info.Size(), nil
}

// openHeader reads and checks the header of src against the key.
func (p *Processor) openHeader(src string) (header.Header, error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return header.Header{}, kerrors.IO("opening", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return header.Header{}, kerrors.IO("stat", src, err)
	}

	buf := make([]byte, header.Size)
	if _, err := io.ReadFull(in, buf); err != nil {
		return header.Header{}, fmt.Errorf("%w: %q is shorter than a header", kerrors.ErrNotKirmah, src)
	}

	h, ok := p.codec.Read(buf)
	if !ok {
		return header.Header{}, fmt.Errorf("%w: %q", kerrors.ErrNotKirmah, src)
	}

	if h.Secure != p.codec.Expected(info.Size()-header.Size) {
		return header.Header{}, fmt.Errorf("%w: check value mismatch for %q", kerrors.ErrBadKey, src)
	}

	return h, nil
}

// unsealStage strips the header of src, gunzipping the payload when the
// header records compression.
func unsealStage(h header.Header) stageFunc {
	return func(_ context.Context, _ PipelineContext, src, dst string) (err error) {
		in, err := os.Open(filepath.Clean(src))
		if err != nil {
			return kerrors.IO("opening", src, err)
		}
		defer in.Close()

		if _, err := in.Seek(header.Size, io.SeekStart); err != nil {
			return kerrors.IO("seeking", src, err)
		}

		out, err := os.Create(filepath.Clean(dst))
		if err != nil {
			return kerrors.IO("creating", dst, err)
		}

		defer func() {
			if cerr := out.Close(); err == nil && cerr != nil {
				err = kerrors.IO("closing", dst, cerr)
			}
		}()

		if h.Compression == header.None {
			_, err := copyBuffered(out, in)

			return kerrors.IO("copying", src, err)
		}

		gz, err := gzip.NewReader(bufio.NewReaderSize(in, defaultBufferSize))
		if err != nil {
			return kerrors.Corrupt("decompressing", err)
		}
		defer gz.Close()

		if _, err := copyBuffered(out, gz); err != nil {
			return kerrors.Corrupt("decompressing", err)
		}

		return nil
	}
}

func gzipFile(src, dst string) (err error) {
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

	gz, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}

	if _, err := copyBuffered(gz, in); err != nil {
		return fmt.Errorf("compressing %q: %w", src, err)
	}

	return gz.Close()
}
