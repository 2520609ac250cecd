// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package cryptoutil

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// MinPBKDF2Iterations is the build-time floor section 4.2 requires: the
// database key derivation must never be configured below this count.
const MinPBKDF2Iterations = 200000

// DeriveKey runs PBKDF2-HMAC-SHA256 over password and salt, producing a
// 32-byte AES-256 key. password is a raw byte secret, never a string, so the
// caller's buffer - and only the caller's buffer - needs wiping afterward.
func DeriveKey(password, salt []byte, iterations uint32) [32]byte {
	derived := pbkdf2.Key(password, salt, int(iterations), 32, sha256.New)
	var key [32]byte
	copy(key[:], derived)
	Wipe(derived)
	return key
}
