// Package header encodes and decodes the fixed 22 byte preamble of kirmah
// files.
//
// Layout:
//
//	[0:5]   magic 05 d9 83 4d 48
//	[5:7]   version "02"
//	[7:12]  'Z' + two 2-digit positions (compression)
//	[12:15] 'R' + 2-digit position (randomize)
//	[15:18] 'M' + 2-digit position (mix)
//	[18:22] 'S' + 3-digit check value
//
// Each position indexes the key mark; the parity of the mark byte found there
// carries the flag (even means on).
package header

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Size is the length of every header.
const Size = 22

const (
	magic   = "\x05\xd9\x83MH"
	version = "02"

	posCompression = 7
	posRandom      = 12
	posMix         = 15
	posSecure      = 18

	cursorStep = 5
)

// Compression selects which compression stages run.
type Compression int

const (
	// None disables compression.
	None Compression = iota
	// All compresses both the plain input and the final payload.
	All
	// End compresses the final payload only.
	End
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case All:
		return "all"
	case End:
		return "end"
	default:
		return "Compression(" + strconv.Itoa(int(c)) + ")"
	}
}

// Modes lists the optional stages recorded in a header.
type Modes struct {
	Compression Compression
	Random      bool
	Mix         bool
}

// Header is a decoded header.
type Header struct {
	Version int
	Modes
	// Secure is the check value, a byte of the mark chosen by payload length.
	Secure byte
}

// Codec builds and reads headers for one key mark.
type Codec struct {
	mark []byte
}

// NewCodec returns a Codec bound to mark.
func NewCodec(mark string) *Codec {
	return &Codec{mark: []byte(mark)}
}

// Expected returns the check value for a payload of length bytes.
func (c *Codec) Expected(length int64) byte {
	return c.mark[length%int64(len(c.mark))]
}

// Build encodes modes for a payload of length bytes.
func (c *Codec) Build(length int64, modes Modes) ([]byte, error) {
	c1, err := c.position(1, modes.Compression != None)
	if err != nil {
		return nil, err
	}

	c2, err := c.position(c1+cursorStep, modes.Compression == All)
	if err != nil {
		return nil, err
	}

	r, err := c.position(c2+cursorStep, modes.Random)
	if err != nil {
		return nil, err
	}

	m, err := c.position(r+cursorStep, modes.Mix)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, Size)
	buf = append(buf, magic...)
	buf = append(buf, version...)
	buf = fmt.Appendf(buf, "Z%02d%02dR%02dM%02dS%03d", c1, c2, r, m, c.Expected(length))

	return buf, nil
}

// Read decodes b. It reports false when b is not a kirmah header for this
// mark layout: wrong size, magic, marker byte or digits.
func (c *Codec) Read(b []byte) (Header, bool) {
	if len(b) < Size || !bytes.HasPrefix(b, []byte(magic)) {
		return Header{}, false
	}

	if b[posCompression] != 'Z' || b[posRandom] != 'R' || b[posMix] != 'M' || b[posSecure] != 'S' {
		return Header{}, false
	}

	ver, ok := digits(b[len(magic):posCompression])
	if !ok {
		return Header{}, false
	}

	var flags [4]bool

	for i, field := range [][]byte{
		b[posCompression+1 : posCompression+3],
		b[posCompression+3 : posRandom],
		b[posRandom+1 : posMix],
		b[posMix+1 : posSecure],
	} {
		pos, ok := digits(field)
		if !ok || pos >= len(c.mark) {
			return Header{}, false
		}

		flags[i] = c.mark[pos]%2 == 0
	}

	secure, ok := digits(b[posSecure+1 : Size])
	if !ok || secure > 255 {
		return Header{}, false
	}

	h := Header{
		Version: ver,
		Modes:   Modes{Compression: None, Random: flags[2], Mix: flags[3]},
		Secure:  byte(secure),
	}

	if flags[0] {
		h.Compression = End
		if flags[1] {
			h.Compression = All
		}
	}

	return h, true
}

// position scans the mark from start, wrapping once, for a byte whose
// parity matches even.
func (c *Codec) position(start int, even bool) (int, error) {
	n := len(c.mark)

	for k := range n {
		i := (start + k) % n
		if (c.mark[i]%2 == 0) == even {
			return i, nil
		}
	}

	return 0, errors.New("mark has no byte of the requested parity")
}

func digits(b []byte) (int, bool) {
	n := 0

	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}

		n = n*10 + int(c-'0')
	}

	return n, true
}
