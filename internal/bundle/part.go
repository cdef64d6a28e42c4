package bundle

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/idelchi/kirmah/internal/header"
	"github.com/idelchi/kirmah/internal/kerrors"
)

// lengthDigits is the width of the length prefix that follows a part header.
const lengthDigits = 3

// obfuscate shifts every byte of head by the configuration key byte at
// index+i and encodes the result as UTF-8.
func obfuscate(head []byte, configKey string, index int) []byte {
	out := make([]byte, 0, len(head)*2) //nolint:mnd

	for i, b := range head {
		out = utf8.AppendRune(out, rune(configKey[index+i])+rune(b))
	}

	return out
}

// deobfuscate reverses obfuscate.
func deobfuscate(data []byte, configKey string, index int) ([]byte, error) {
	out := make([]byte, 0, header.Size)

	for i := 0; len(data) > 0; i++ {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			return nil, kerrors.Corrupt("part head", nil)
		}

		if index+i >= len(configKey) {
			return nil, kerrors.Corrupt("part head too long", nil)
		}

		v := r - rune(configKey[index+i])
		if v < 0 || v > 0xff {
			return nil, kerrors.Corrupt("part head value", nil)
		}

		out = append(out, byte(v))
		data = data[size:]
	}

	return out, nil
}

// headWriter is the sink of a part's gzip stream. It holds back the first
// header.Size bytes, and once they are complete writes the part header, the
// length prefix and the obfuscated head before passing the rest through.
type headWriter struct {
	w         io.Writer
	preamble  []byte
	configKey string
	index     int

	head    bytes.Buffer
	flushed bool
}

func (hw *headWriter) Write(p []byte) (int, error) {
	n := len(p)

	if !hw.flushed {
		take := min(header.Size-hw.head.Len(), len(p))
		hw.head.Write(p[:take])
		p = p[take:]

		if hw.head.Len() < header.Size {
			return n, nil
		}

		if err := hw.flush(); err != nil {
			return 0, err
		}
	}

	if _, err := hw.w.Write(p); err != nil {
		return 0, err
	}

	return n, nil
}

// Close writes the head if the stream was shorter than header.Size.
func (hw *headWriter) Close() error {
	if hw.flushed {
		return nil
	}

	return hw.flush()
}

func (hw *headWriter) flush() error {
	hw.flushed = true

	obf := obfuscate(hw.head.Bytes(), hw.configKey, hw.index)

	var buf bytes.Buffer

	buf.Write(hw.preamble)
	fmt.Fprintf(&buf, "%0*d", lengthDigits, hw.index+len(obf))
	buf.Write(obf)

	_, err := hw.w.Write(buf.Bytes())

	return err
}

// trimWriter drops the first skip bytes written to it and withholds the
// last hold bytes, forwarding only what lies between.
type trimWriter struct {
	w    io.Writer
	skip int64
	hold int

	tail    []byte
	written int64
	total   int64
}

func (tw *trimWriter) Write(p []byte) (int, error) {
	n := len(p)
	tw.total += int64(n)

	if tw.skip > 0 {
		drop := min(tw.skip, int64(len(p)))
		tw.skip -= drop
		p = p[drop:]
	}

	tw.tail = append(tw.tail, p...)

	if excess := len(tw.tail) - tw.hold; excess > 0 {
		if _, err := tw.w.Write(tw.tail[:excess]); err != nil {
			return 0, kerrors.IO("writing", "merged output", err)
		}

		tw.written += int64(excess)
		tw.tail = append(tw.tail[:0], tw.tail[excess:]...)
	}

	return n, nil
}

// Close fails when the stream was too short to hold both trimmed ends.
func (tw *trimWriter) Close() error {
	if tw.skip > 0 || len(tw.tail) < tw.hold {
		return kerrors.Corrupt("part shorter than its noise", nil)
	}

	return nil
}
