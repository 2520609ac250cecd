// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/tacerus/luksrku/lukserr"
)

// GCMIVSize and GCMTagSize match the on-disk record layout in section 3.
const (
	GCMIVSize  = 12
	GCMTagSize = 16
)

// AEADEncrypt seals plaintext under key and iv using AES-256-GCM, returning
// ciphertext and the detached authentication tag.
func AEADEncrypt(key [32]byte, iv [GCMIVSize]byte, plaintext []byte) (ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, nil, lukserr.New(lukserr.KindCrypto, "AEADEncrypt", err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, GCMTagSize)
	if err != nil {
		return nil, nil, lukserr.New(lukserr.KindCrypto, "AEADEncrypt", err)
	}
	sealed := gcm.Seal(nil, iv[:], plaintext, nil)
	ciphertext = sealed[:len(sealed)-GCMTagSize]
	tag = sealed[len(sealed)-GCMTagSize:]
	return ciphertext, tag, nil
}

// AEADDecrypt opens ciphertext+tag under key and iv. A tag mismatch - wrong
// passphrase or tampered file - is reported as lukserr.KindAuth, never as a
// generic error, so callers can distinguish corruption from bad input.
func AEADDecrypt(key [32]byte, iv [GCMIVSize]byte, ciphertext, tag []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, lukserr.New(lukserr.KindCrypto, "AEADDecrypt", err)
	}
	gcm, err := cipher.NewGCMWithTagSize(block, GCMTagSize)
	if err != nil {
		return nil, lukserr.New(lukserr.KindCrypto, "AEADDecrypt", err)
	}
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := gcm.Open(nil, iv[:], sealed, nil)
	if err != nil {
		return nil, lukserr.New(lukserr.KindAuth, "AEADDecrypt", fmt.Errorf("%w: %v", lukserr.ErrAuthFailure, err))
	}
	return plaintext, nil
}

// CTREncryptKeystream XORs data in place with the AES-256-CTR keystream
// produced by key with iv as the initial counter block. Calling it twice on the same data
// with the same key and iv reverses the operation - this is how the vault's
// step 5 (ephemeral-key layer) is applied and un-applied.
func CTREncryptKeystream(key [32]byte, iv [16]byte, data []byte) error {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return lukserr.New(lukserr.KindCrypto, "CTREncryptKeystream", err)
	}
	stream := cipher.NewCTR(block, iv[:])
	stream.XORKeyStream(data, data)
	return nil
}
