package world

import "github.com/fxamacker/cbor/v2"

// Deterministic CBOR: identical values always encode to identical bytes,
// so a memento survives dematerialize→materialize byte-for-byte.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Marshal encodes v with the deterministic encoding used for mementos.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes strict CBOR (no duplicate keys, no unknown fields).
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
