package encryption

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/idelchi/kirmah/internal/kerrors"
	"github.com/idelchi/kirmah/internal/noise"
	"github.com/idelchi/kirmah/internal/parttable"
)

const (
	mixLabel = "kirmah"
	mixParts = 22
)

func (p *Processor) mixTable() ([]parttable.Descriptor, error) {
	table, err := p.tables.Build(mixLabel, mixParts, false)
	if err != nil {
		return nil, fmt.Errorf("building mix table: %w", err)
	}

	return table.ByIndex(), nil
}

// partitionLen returns the length of partition k of a payload of size bytes
// cut into pieces of psize.
func partitionLen(size, psize int64, k int) int64 {
	return max(0, min(psize, size-int64(k)*psize))
}

// mixStage writes, slot by slot, noise, the partition the slot carries, and
// noise again. Noise is armored and enciphered before truncation.
func (p *Processor) mixStage(ctx context.Context, _ PipelineContext, src, dst string) (err error) {
	parts, err := p.mixTable()
	if err != nil {
		return err
	}

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

	bw := bufio.NewWriterSize(out, defaultBufferSize)
	psize := ceilDiv(size, mixParts)

	for _, d := range parts {
		if err := ctx.Err(); err != nil {
			return kerrors.Cancelled(context.Cause(ctx))
		}

		prefix, err := p.cipheredNoise(d.PrefixNoise)
		if err != nil {
			return err
		}

		suffix, err := p.cipheredNoise(d.SuffixNoise)
		if err != nil {
			return err
		}

		if _, err := bw.Write(prefix); err != nil {
			return kerrors.IO("writing", dst, err)
		}

		length := partitionLen(size, psize, d.Position)
		section := io.NewSectionReader(in, int64(d.Position)*psize, length)

		if _, err := copyBuffered(bw, section); err != nil {
			return kerrors.IO("copying partition", src, err)
		}

		if _, err := bw.Write(suffix); err != nil {
			return kerrors.IO("writing", dst, err)
		}
	}

	return kerrors.IO("writing", dst, bw.Flush())
}

func (p *Processor) cipheredNoise(length int) ([]byte, error) {
	raw, err := noise.Random(length, true)
	if err != nil {
		return nil, err
	}

	return p.cipher.EncryptBytes(raw)[:length], nil
}

// unmixStage restores the partitions written by mixStage in index order.
func (p *Processor) unmixStage(ctx context.Context, _ PipelineContext, src, dst string) (err error) {
	parts, err := p.mixTable()
	if err != nil {
		return err
	}

	in, out, total, err := openPair(src, dst)
	if err != nil {
		return err
	}
	defer in.Close()

	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = kerrors.IO("closing", dst, cerr)
		}
	}()

	var noiseTotal int64
	for _, d := range parts {
		noiseTotal += int64(d.Noise())
	}

	size := total - noiseTotal
	if size < 0 {
		return kerrors.Corrupt("unmixing", ErrNoiseOverrun)
	}

	psize := ceilDiv(size, mixParts)
	offsets := slotOffsets(parts, size, psize)

	slotOf := make([]int, mixParts)
	for s, d := range parts {
		slotOf[d.Position] = s
	}

	bw := bufio.NewWriterSize(out, defaultBufferSize)

	for k := range mixParts {
		if err := ctx.Err(); err != nil {
			return kerrors.Cancelled(context.Cause(ctx))
		}

		s := slotOf[k]
		section := io.NewSectionReader(in, offsets[s]+int64(parts[s].PrefixNoise), partitionLen(size, psize, k))

		if _, err := copyBuffered(bw, section); err != nil {
			return kerrors.IO("copying partition", src, err)
		}
	}

	return kerrors.IO("writing", dst, bw.Flush())
}

// slotOffsets returns the start of every slot: the noise and partition
// bytes of all slots before it.
func slotOffsets(parts []parttable.Descriptor, size, psize int64) []int64 {
	offsets := make([]int64, len(parts))

	var off int64

	for s, d := range parts {
		offsets[s] = off
		off += int64(d.Noise()) + partitionLen(size, psize, d.Position)
	}

	return offsets
}
