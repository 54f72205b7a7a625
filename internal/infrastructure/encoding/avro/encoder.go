package avro

import (
	"encoding/json"
	"fmt"

	"github.com/linkedin/goavro/v2"
)

// Encoder wraps a goavro codec. goavro codecs are safe for concurrent use.
type Encoder struct {
	codec *goavro.Codec
}

// NewEncoder creates a new encoder from an Avro schema string
func NewEncoder(schema string) (*Encoder, error) {
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create avro codec: %w", err)
	}
	return &Encoder{
		codec: codec,
	}, nil
}

// EncodeJSON converts a JSON byte slice to Avro binary format
func (e *Encoder) EncodeJSON(jsonData []byte) ([]byte, error) {
	native, _, err := e.codec.NativeFromTextual(jsonData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode avro json: %w", err)
	}
	return e.EncodeNative(native)
}

// EncodeNative converts a Go native map to Avro binary format
func (e *Encoder) EncodeNative(native interface{}) ([]byte, error) {
	binary, err := e.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("failed to encode to avro binary: %w", err)
	}
	return binary, nil
}

// DecodeNative turns Avro binary back into the goavro native form.
func (e *Encoder) DecodeNative(binary []byte) (map[string]interface{}, error) {
	native, _, err := e.codec.NativeFromBinary(binary)
	if err != nil {
		return nil, fmt.Errorf("failed to decode avro binary: %w", err)
	}
	record, ok := native.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("avro payload is %T, want record", native)
	}
	return record, nil
}

// TextualJSON renders Avro binary as Avro JSON, for logs and debugging.
func (e *Encoder) TextualJSON(binary []byte) (json.RawMessage, error) {
	native, _, err := e.codec.NativeFromBinary(binary)
	if err != nil {
		return nil, fmt.Errorf("failed to decode avro binary: %w", err)
	}
	text, err := e.codec.TextualFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("failed to encode avro json: %w", err)
	}
	return text, nil
}
