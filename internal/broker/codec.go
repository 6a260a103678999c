package broker

import (
	"fmt"
	"reflect"

	"codeberg.org/mutker/fanmon/internal/errors"
	"github.com/fxamacker/cbor/v2"
)

// Envelope kinds.
const (
	KindPropertiesChanged = "properties_changed"
	KindInterfacesAdded   = "interfaces_added"
	KindFunctional        = "functional"
	KindPresence          = "presence"
)

// Envelope wraps every message exchanged over the broker. Body is the CBOR
// encoding of the kind-specific payload.
type Envelope struct {
	Kind string          `cbor:"1,keyasint"`
	Path string          `cbor:"2,keyasint,omitempty"`
	Body cbor.RawMessage `cbor:"3,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Property values arrive as untyped maps; decode them with string keys.
	decOpts := cbor.DecOptions{
		DupMapKey:      cbor.DupMapKeyQuiet,
		IndefLength:    cbor.IndefLengthAllowed,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Encode builds an envelope around body and encodes it.
func Encode(kind, path string, body any) ([]byte, error) {
	errFactory := errors.New()

	raw, err := encMode.Marshal(body)
	if err != nil {
		return nil, errFactory.Wrap(ErrEncodeFailed, err)
	}

	data, err := encMode.Marshal(Envelope{Kind: kind, Path: path, Body: raw})
	if err != nil {
		return nil, errFactory.Wrap(ErrEncodeFailed, err)
	}
	return data, nil
}

// Decode parses an envelope; the body is left encoded.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, errors.New().Wrap(ErrDecodeFailed, err)
	}
	return &env, nil
}

// DecodeBody decodes the envelope body into v.
func (e *Envelope) DecodeBody(v any) error {
	if err := decMode.Unmarshal(e.Body, v); err != nil {
		return errors.New().Wrap(ErrDecodeFailed, err)
	}
	return nil
}
