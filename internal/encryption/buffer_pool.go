package encryption

import (
	"io"
	"sync"
)

const defaultBufferSize = 64 * 1024

// bufferPool provides reusable byte slices for artifact copies.
//
//nolint:gochecknoglobals
var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, defaultBufferSize)

		return &buf
	},
}

// copyBuffered copies src to dst through a pooled buffer.
func copyBuffered(dst io.Writer, src io.Reader) (int64, error) {
	buf := bufferPool.Get().(*[]byte) //nolint:forcetypeassert // pool only holds *[]byte
	defer bufferPool.Put(buf)

	return io.CopyBuffer(dst, src, *buf)
}
