package bundle

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// record is the content of a .kcf file: enough to rebuild the part table.
type record struct {
	Name  string `cbor:"name"`
	Count int    `cbor:"count"`
}

//nolint:gochecknoglobals
var (
	recordEnc cbor.EncMode
	recordDec cbor.DecMode

	// legacyRecord matches the dict literal written by older kirmah releases,
	// e.g. {'name': 'file.bin', 'count': 22}.
	legacyRecord = regexp.MustCompile(`^\{'name': (?:'([^']*)'|"([^"]*)"), 'count': (\d+)\}\s*$`)
)

func init() {
	var err error

	recordEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bundle: cbor encoder: " + err.Error())
	}

	recordDec, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("bundle: cbor decoder: " + err.Error())
	}
}

func (r record) marshal() ([]byte, error) {
	data, err := recordEnc.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	return data, nil
}

// unmarshalRecord decodes a CBOR record, falling back to the legacy dict
// literal.
func unmarshalRecord(data []byte) (record, error) {
	var r record

	err := recordDec.Unmarshal(data, &r)
	if err == nil {
		return r, nil
	}

	m := legacyRecord.FindSubmatch(data)
	if m == nil {
		return record{}, fmt.Errorf("decoding record: %w", err)
	}

	count, cerr := strconv.Atoi(string(m[3]))
	if cerr != nil {
		return record{}, fmt.Errorf("decoding record count: %w", cerr)
	}

	return record{Name: string(m[1]) + string(m[2]), Count: count}, nil
}
