package queue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// MaxMessageSize is the largest encoded message the queue accepts, in bytes.
const MaxMessageSize = 64 * 1024

// Encode serializes v to JSON and base64 and enforces MaxMessageSize.
func Encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	if err := CheckSize(encoded); err != nil {
		return "", err
	}
	return encoded, nil
}

// Decode reverses Encode.
func Decode(encoded string, v any) error {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode base64: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	return nil
}

func CheckSize(encoded string) error {
	if len(encoded) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrMessageTooLarge, len(encoded), MaxMessageSize)
	}
	return nil
}
