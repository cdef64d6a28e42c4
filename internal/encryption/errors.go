package encryption

import "errors"

var (
	// ErrInvalidRune is returned when ciphertext is not valid UTF-8.
	ErrInvalidRune = errors.New("invalid character in ciphertext")
	// ErrByteRange is returned when a deciphered value does not fit in a byte.
	ErrByteRange = errors.New("deciphered value outside byte range")
	// ErrNoiseOverrun is returned when the recorded noise exceeds the mixed payload.
	ErrNoiseOverrun = errors.New("noise lengths exceed payload size")
)
