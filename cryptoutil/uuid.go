// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package cryptoutil

import (
	"github.com/google/uuid"

	"github.com/tacerus/luksrku/lukserr"
)

// UUIDSize is the binary size of a UUID as stored in every on-disk record.
const UUIDSize = 16

// NewUUID generates a fresh random (v4) UUID in binary form.
func NewUUID() [UUIDSize]byte {
	id := uuid.New()
	var out [UUIDSize]byte
	copy(out[:], id[:])
	return out
}

// SprintfUUID formats 16 raw bytes as the canonical 8-4-4-4-12 hex form.
func SprintfUUID(raw [UUIDSize]byte) string {
	return uuid.UUID(raw).String()
}

// ParseUUID parses the canonical 8-4-4-4-12 hex form back into 16 raw bytes.
func ParseUUID(text string) ([UUIDSize]byte, error) {
	id, err := uuid.Parse(text)
	if err != nil {
		return [UUIDSize]byte{}, lukserr.New(lukserr.KindFormat, "ParseUUID", err)
	}
	var out [UUIDSize]byte
	copy(out[:], id[:])
	return out, nil
}

// IsValidUUID reports whether text is a canonical UUID string.
func IsValidUUID(text string) bool {
	if len(text) != 36 {
		return false
	}
	_, err := uuid.Parse(text)
	return err == nil
}
