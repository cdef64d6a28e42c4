package encryption

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/idelchi/kirmah/internal/kerrors"
	"github.com/idelchi/kirmah/internal/permute"
)

// maxChunks bounds the permutation table of the randomize stage.
const maxChunks = 4000

//nolint:gochecknoglobals
var (
	sizeBands   = []int64{22, 44, 122, 444, 1222, 14444, 52222, 244444, 522222, 1444444}
	bandOffsets = []int64{2, 3, 7, 9, 21, 33, 87, 151, 427}
)

const (
	smallDivisor = 4
	largeOffset  = 739
)

// ChunkLayout returns the randomize chunk size and chunk count for a
// payload of size bytes.
func ChunkLayout(size int64) (chunkSize, count int64) {
	switch {
	case size <= sizeBands[0]:
		chunkSize = ceilDiv(size, smallDivisor) + 1
	default:
		chunkSize = ceilDiv(size, sizeBands[len(sizeBands)-1]) + largeOffset

		for i, lower := range sizeBands[:len(sizeBands)-1] {
			if size >= lower && size < sizeBands[i+1] {
				chunkSize = ceilDiv(size, lower) + bandOffsets[i]

				break
			}
		}
	}

	if chunkSize == 0 {
		chunkSize = 1
	}

	for ceilDiv(size, chunkSize) > maxChunks {
		chunkSize *= 3
	}

	return chunkSize, ceilDiv(size, chunkSize)
}

// layout holds the keyed chunk placement of one payload.
type layout struct {
	chunkSize int64
	order     []int
	// rest is the gap between the last chunk and a full chunk.
	rest int64
}

func (p *Processor) layoutFor(size int64) layout {
	chunkSize, count := ChunkLayout(size)

	rest := chunkSize - size%chunkSize
	if rest == chunkSize {
		rest = 0
	}

	return layout{
		chunkSize: chunkSize,
		order:     permute.Permute([]byte(p.mark2), int(count)),
		rest:      rest,
	}
}

// offset returns where the chunk placed at slot pos starts. Slots after the
// one holding the short final chunk shift back by rest.
func (l layout) offset(pos int) int64 {
	off := int64(pos) * l.chunkSize
	if pos > l.order[len(l.order)-1] {
		off -= l.rest
	}

	return off
}

// randomizeStage writes each chunk of src reversed at its keyed slot.
func (p *Processor) randomizeStage(ctx context.Context, _ PipelineContext, src, dst string) (err error) {
	in, out, size, err := openPair(src, dst)
	if err != nil {
		return err
	}
	defer in.Close()

	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = kerrors.IO("closing", dst, cerr)
		}
	}()

	l := p.layoutFor(size)
	buf := make([]byte, l.chunkSize)

	for _, pos := range l.order {
		if err := ctx.Err(); err != nil {
			return kerrors.Cancelled(context.Cause(ctx))
		}

		n, err := io.ReadFull(in, buf)
		if err != nil && err != io.ErrUnexpectedEOF { //nolint:errorlint // io.ReadFull returns it unwrapped
			return kerrors.IO("reading", src, err)
		}

		piece := buf[:n]
		slices.Reverse(piece)

		if _, err := out.WriteAt(piece, l.offset(pos)); err != nil {
			return kerrors.IO("writing", dst, err)
		}
	}

	return nil
}

// unrandomizeStage restores the chunk order written by randomizeStage.
func (p *Processor) unrandomizeStage(ctx context.Context, _ PipelineContext, src, dst string) (err error) {
	in, out, size, err := openPair(src, dst)
	if err != nil {
		return err
	}
	defer in.Close()

	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = kerrors.IO("closing", dst, cerr)
		}
	}()

	l := p.layoutFor(size)
	buf := make([]byte, l.chunkSize)
	last := len(l.order) - 1

	for i, pos := range l.order {
		if err := ctx.Err(); err != nil {
			return kerrors.Cancelled(context.Cause(ctx))
		}

		piece := buf
		if i == last {
			piece = buf[:l.chunkSize-l.rest]
		}

		if n, err := in.ReadAt(piece, l.offset(pos)); n < len(piece) {
			return kerrors.Corrupt("reading randomized chunk", err)
		}

		slices.Reverse(piece)

		if _, err := out.Write(piece); err != nil {
			return kerrors.IO("writing", dst, err)
		}
	}

	return nil
}

func openPair(src, dst string) (in, out *os.File, size int64, err error) {
	in, err = os.Open(filepath.Clean(src))
	if err != nil {
		return nil, nil, 0, kerrors.IO("opening", src, err)
	}

	info, err := in.Stat()
	if err != nil {
		in.Close()

		return nil, nil, 0, kerrors.IO("stat", src, err)
	}

	out, err = os.Create(filepath.Clean(dst))
	if err != nil {
		in.Close()

		return nil, nil, 0, kerrors.IO("creating", dst, err)
	}

	return in, out, info.Size(), nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
