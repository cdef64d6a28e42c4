package bundle

import (
	"bytes"
	"errors"
	"testing"

	"github.com/idelchi/kirmah/internal/header"
	"github.com/idelchi/kirmah/internal/kerrors"
)

const testConfigKey = "96a19fdaa74ca95211b0563ac96c3cc08dfb5137f19786d053bfce071ed420bee066c6391d4e7d468b2e10c86493e49a3b42d06deb5e8e84b83b7be1aabc97cd"

func TestObfuscateRoundTrip(t *testing.T) {
	t.Parallel()

	head := []byte{0x1f, 0x8b, 0x08, 0x00, 0xff, 0x7f, 0x80, 0x00, 0x00, 0xfe, 0x01, 0x02,
		0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0xc0}

	for _, index := range []int{0, 11, 61} {
		obf := obfuscate(head, testConfigKey, index)

		got, err := deobfuscate(obf, testConfigKey, index)
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(got, head) {
			t.Errorf("index %d: got %x, want %x", index, got, head)
		}
	}
}

func TestDeobfuscateRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := deobfuscate([]byte{0xff}, testConfigKey, 0); !errors.Is(err, kerrors.ErrBadKey) {
		t.Errorf("error = %v, want ErrBadKey", err)
	}

	if _, err := deobfuscate([]byte("\x01"), testConfigKey, 0); !errors.Is(err, kerrors.ErrBadKey) {
		t.Errorf("below-key value: error = %v, want ErrBadKey", err)
	}
}

func TestHeadWriter(t *testing.T) {
	t.Parallel()

	preamble := bytes.Repeat([]byte{'H'}, header.Size)
	payload := bytes.Repeat([]byte{0x42}, 40)

	var out bytes.Buffer

	hw := &headWriter{w: &out, preamble: preamble, configKey: testConfigKey, index: 3}

	// Write in small pieces to cross the head boundary mid-write.
	for i := 0; i < len(payload); i += 7 {
		if _, err := hw.Write(payload[i:min(i+7, len(payload))]); err != nil {
			t.Fatal(err)
		}
	}

	if err := hw.Close(); err != nil {
		t.Fatal(err)
	}

	obf := obfuscate(payload[:header.Size], testConfigKey, 3)

	want := append([]byte{}, preamble...)
	want = append(want, []byte(padded(3+len(obf)))...)
	want = append(want, obf...)
	want = append(want, payload[header.Size:]...)

	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("got %q\nwant %q", out.Bytes(), want)
	}
}

func padded(n int) string {
	return string([]byte{byte('0' + n/100), byte('0' + n/10%10), byte('0' + n%10)})
}

func TestTrimWriter(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	tw := &trimWriter{w: &out, skip: 3, hold: 4}

	for _, piece := range []string{"ab", "cDATA", "-MO", "REzz", "zz"} {
		if _, err := tw.Write([]byte(piece)); err != nil {
			t.Fatal(err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	if out.String() != "DATA-MORE" || tw.written != 9 {
		t.Errorf("got %q (%d bytes)", out.String(), tw.written)
	}

	short := &trimWriter{w: &bytes.Buffer{}, skip: 3, hold: 4}
	short.Write([]byte("abcde")) //nolint:errcheck // in-memory

	if err := short.Close(); !errors.Is(err, kerrors.ErrBadKey) {
		t.Errorf("short stream: error = %v, want ErrBadKey", err)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := record{Name: "file.bin", Count: 22}.marshal()
	if err != nil {
		t.Fatal(err)
	}

	rec, err := unmarshalRecord(data)
	if err != nil {
		t.Fatal(err)
	}

	if rec.Name != "file.bin" || rec.Count != 22 {
		t.Errorf("got %+v", rec)
	}

	if _, err := unmarshalRecord([]byte("not cbor")); err == nil {
		t.Error("garbage decoded without error")
	}
}

func TestRecordLegacyLiteral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		name  string
		count int
	}{
		{in: "{'name': 'file.bin', 'count': 22}", name: "file.bin", count: 22},
		{in: "{'name': \"it's.txt\", 'count': 62}\n", name: "it's.txt", count: 62},
	}

	for _, tt := range tests {
		rec, err := unmarshalRecord([]byte(tt.in))
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}

		if rec.Name != tt.name || rec.Count != tt.count {
			t.Errorf("%q: got %+v", tt.in, rec)
		}
	}

	if _, err := unmarshalRecord([]byte("{'name': 'x'}")); err == nil {
		t.Error("incomplete literal decoded without error")
	}
}
