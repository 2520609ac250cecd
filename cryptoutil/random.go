// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// Package cryptoutil implements the primitives section 4.1 of the design
// describes: CSPRNG output, PBKDF2 key derivation, AES-256-GCM authenticated
// encryption, constant-time comparison, memory wiping, UUID formatting and
// ASCII passphrase encoding.
package cryptoutil

import (
	"crypto/rand"
	"fmt"
	"os"
)

// RandomBytes fills out with CSPRNG output. A failure here means the OS
// random source is broken beyond repair, so the process terminates rather
// than proceed with weak key material.
func RandomBytes(out []byte) {
	if _, err := rand.Read(out); err != nil {
		fmt.Fprintf(os.Stderr, "RandomBytes: fatal - CSPRNG failure - %v\n", err)
		os.Exit(111)
	}
}

// RandomKey32 returns 32 fresh random bytes, suitable for a TLS-PSK or a
// LUKS passphrase.
func RandomKey32() [32]byte {
	var out [32]byte
	RandomBytes(out[:])
	return out
}
