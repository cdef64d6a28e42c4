package encryption

import (
	"bufio"
	"context"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/idelchi/kirmah/internal/kerrors"
)

const (
	// encodeCeiling and decodeCeiling bound the guarded add/subtract branch.
	// They differ, and both values are part of the file format.
	encodeCeiling = 11000
	decodeCeiling = 110000
)

// StreamCipher is the per-character substitution cipher. Every input byte
// becomes one code point, written as UTF-8.
type StreamCipher struct {
	key []byte
}

// NewStreamCipher returns a cipher over the raw key bytes.
func NewStreamCipher(key []byte) *StreamCipher {
	return &StreamCipher{key: key}
}

// KeyLen returns the cycle length of the key index.
func (c *StreamCipher) KeyLen() int {
	return len(c.key)
}

func (c *StreamCipher) encodeValue(v, i int) rune {
	k, shift := int(c.key[i]), i/4 //nolint:mnd

	if v+k+shift < encodeCeiling {
		return rune(v + shift + k)
	}

	return rune(v + shift - k)
}

func (c *StreamCipher) decodeValue(r rune, i int) int {
	v, k, shift := int(r), int(c.key[i]), i/4 //nolint:mnd

	if v+k+shift < decodeCeiling {
		return v - shift - k
	}

	return v - shift + k
}

// Encrypt enciphers r into w. start is the key index of the first byte.
// ctx is polled each time the key index wraps.
func (c *StreamCipher) Encrypt(ctx context.Context, r io.Reader, w io.Writer, start int) error {
	br := bufio.NewReaderSize(r, defaultBufferSize)
	bw := bufio.NewWriterSize(w, defaultBufferSize)

	i := start % len(c.key)

	for {
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return err
		}

		if i >= len(c.key) {
			i = 0

			if err := ctx.Err(); err != nil {
				return kerrors.Cancelled(context.Cause(ctx))
			}
		}

		if _, err := bw.WriteRune(c.encodeValue(int(b), i)); err != nil {
			return err
		}

		i++
	}

	return bw.Flush()
}

// Decrypt deciphers r into w. start is the key index of the first character.
func (c *StreamCipher) Decrypt(ctx context.Context, r io.Reader, w io.Writer, start int) error {
	br := bufio.NewReaderSize(r, defaultBufferSize)
	bw := bufio.NewWriterSize(w, defaultBufferSize)

	i := start % len(c.key)

	for {
		ch, size, err := br.ReadRune()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return err
		}

		if ch == utf8.RuneError && size == 1 {
			return kerrors.Corrupt("deciphering", ErrInvalidRune)
		}

		if i >= len(c.key) {
			i = 0

			if err := ctx.Err(); err != nil {
				return kerrors.Cancelled(context.Cause(ctx))
			}
		}

		v := c.decodeValue(ch, i)
		if v < 0 || v > 0xff {
			return kerrors.Corrupt("deciphering", ErrByteRange)
		}

		if err := bw.WriteByte(byte(v)); err != nil {
			return err
		}

		i++
	}

	return bw.Flush()
}

// EncryptBytes enciphers data from key index 0.
func (c *StreamCipher) EncryptBytes(data []byte) []byte {
	out := make([]byte, 0, len(data)*2) //nolint:mnd

	for j, b := range data {
		out = utf8.AppendRune(out, c.encodeValue(int(b), j%len(c.key)))
	}

	return out
}
