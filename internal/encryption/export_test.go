package encryption

import (
	"context"

	"github.com/idelchi/kirmah/internal/parttable"
)

// RandomizeFile runs the randomize stage alone.
func (p *Processor) RandomizeFile(ctx context.Context, src, dst string) error {
	return p.randomizeStage(ctx, PipelineContext{}, src, dst)
}

// MixFile runs the mix stage alone.
func (p *Processor) MixFile(ctx context.Context, src, dst string) error {
	return p.mixStage(ctx, PipelineContext{}, src, dst)
}

// MixLayout returns the mix descriptors in slot order and the slot offsets
// for a payload of size bytes, followed by the total mixed length.
func (p *Processor) MixLayout(size int64) ([]int64, []parttable.Descriptor, error) {
	parts, err := p.mixTable()
	if err != nil {
		return nil, nil, err
	}

	psize := ceilDiv(size, mixParts)
	offsets := slotOffsets(parts, size, psize)

	last := parts[len(parts)-1]
	total := offsets[len(offsets)-1] + int64(last.Noise()) + partitionLen(size, psize, last.Position)

	return append(offsets, total), parts, nil
}

// PartitionLen exposes the partition length rule of the mix stage.
func PartitionLen(size int64, k int) int64 {
	return partitionLen(size, ceilDiv(size, mixParts), k)
}
