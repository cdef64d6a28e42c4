package encryption_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/idelchi/kirmah/internal/encryption"
	"github.com/idelchi/kirmah/internal/kerrors"
	"github.com/idelchi/kirmah/internal/testutil"
)

func TestStreamCipherRoundTrip(t *testing.T) {
	t.Parallel()

	c := encryption.NewStreamCipher(testutil.Load(t).KeyBytes())
	plain := sampleData(5000)

	var sealed bytes.Buffer
	if err := c.Encrypt(context.Background(), bytes.NewReader(plain), &sealed, 0); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(sealed.Bytes(), c.EncryptBytes(plain)) {
		t.Error("Encrypt and EncryptBytes disagree")
	}

	var opened bytes.Buffer
	if err := c.Decrypt(context.Background(), &sealed, &opened, 0); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(opened.Bytes(), plain) {
		t.Error("round trip changed the data")
	}
}

func TestStreamCipherStartOffset(t *testing.T) {
	t.Parallel()

	c := encryption.NewStreamCipher(testutil.Load(t).KeyBytes())
	plain := sampleData(3000)
	whole := c.EncryptBytes(plain)

	for _, cut := range []int{1, 333, c.KeyLen(), 2*c.KeyLen() + 5} {
		var head, tail bytes.Buffer

		ctx := context.Background()

		if err := c.Encrypt(ctx, bytes.NewReader(plain[:cut]), &head, 0); err != nil {
			t.Fatal(err)
		}

		if err := c.Encrypt(ctx, bytes.NewReader(plain[cut:]), &tail, cut%c.KeyLen()); err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(append(head.Bytes(), tail.Bytes()...), whole) {
			t.Errorf("cut at %d: split encryption differs from a single pass", cut)
		}
	}
}

func TestStreamCipherRejectsGarbage(t *testing.T) {
	t.Parallel()

	c := encryption.NewStreamCipher(testutil.Load(t).KeyBytes())

	for name, input := range map[string][]byte{
		"invalid utf8": {0xff, 0xfe},
		"out of range": []byte("一丁"),
	} {
		err := c.Decrypt(context.Background(), bytes.NewReader(input), &bytes.Buffer{}, 0)
		if !errors.Is(err, kerrors.ErrBadKey) {
			t.Errorf("%s: error = %v, want ErrBadKey", name, err)
		}
	}
}

func TestStreamCipherCancelled(t *testing.T) {
	t.Parallel()

	c := encryption.NewStreamCipher(testutil.Load(t).KeyBytes())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Encrypt(ctx, bytes.NewReader(sampleData(4*c.KeyLen())), &bytes.Buffer{}, 0)
	if !errors.Is(err, kerrors.ErrCancelled) {
		t.Errorf("error = %v, want ErrCancelled", err)
	}
}
