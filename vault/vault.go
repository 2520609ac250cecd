// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// Package vault holds secret byte regions encrypted at rest in process
// memory under an ephemeral key and a rotating mask, per section 4.3.
package vault

import (
	"sync"

	"github.com/tacerus/luksrku/cryptoutil"
)

const maskSize = 64

// Vault is a single-writer/single-reader secret region. At rest, data holds
// E_key(plaintext) XOR mask; between Open and Close it holds plaintext. A
// vault is process-local and is never written to disk.
type Vault struct {
	mu   sync.Mutex
	data []byte
	key  [32]byte
	iv   [16]byte
	mask [maskSize]byte
	open bool
}

// New builds a vault holding a copy of plaintext, immediately encrypted at
// rest. The caller must wipe its own copy of plaintext afterward - New does
// not do it, since plaintext usually still lives inside a larger structure
// (a KeyDB) the caller owns.
func New(plaintext []byte) *Vault {
	v := &Vault{data: make([]byte, len(plaintext))}
	copy(v.data, plaintext)
	v.key = cryptoutil.RandomKey32()
	cryptoutil.RandomBytes(v.iv[:])
	cryptoutil.RandomBytes(v.mask[:])
	applyMask(v.data, v.mask[:])
	cryptoutil.CTREncryptKeystream(v.key, v.iv, v.data)
	return v
}

func applyMask(data, mask []byte) {
	for i := range data {
		data[i] ^= mask[i%len(mask)]
	}
}

// Open decrypts the vault in place and returns the live plaintext slice.
// Callers must call Close as soon as possible and must not retain the
// returned slice past Close.
func (v *Vault) Open() []byte {
	v.mu.Lock()
	if v.open {
		panic("vault: Open called while already open")
	}
	cryptoutil.CTREncryptKeystream(v.key, v.iv, v.data)
	applyMask(v.data, v.mask[:])
	v.open = true
	return v.data
}

// Close re-encrypts the vault with a freshly regenerated mask, so the
// ciphertext at rest changes on every close even though the logical
// plaintext does not, defeating a trivial snapshot comparison.
func (v *Vault) Close() {
	if !v.open {
		panic("vault: Close called while not open")
	}
	cryptoutil.RandomBytes(v.mask[:])
	applyMask(v.data, v.mask[:])
	cryptoutil.CTREncryptKeystream(v.key, v.iv, v.data)
	v.open = false
	v.mu.Unlock()
}

// Len returns the length of the secret region without opening the vault.
func (v *Vault) Len() int {
	return len(v.data)
}

// Wipe destroys the vault's key material and ciphertext. The vault must not
// be used afterward.
func (v *Vault) Wipe() {
	v.mu.Lock()
	defer v.mu.Unlock()
	cryptoutil.Wipe(v.key[:])
	cryptoutil.Wipe(v.data)
}
