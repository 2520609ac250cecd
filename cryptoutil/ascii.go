// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package cryptoutil

import (
	"encoding/base64"

	"github.com/tacerus/luksrku/lukserr"
)

// LUKSPassphraseTextSizeBytes is the fixed buffer size a display/ASCII
// passphrase must fit in, including its NUL terminator (section 3).
const LUKSPassphraseTextSizeBytes = 46

// AsciiEncode turns a raw 32-byte LUKS passphrase into a deterministic,
// printable, NUL-terminator-safe string. Raw-URL base64 is injective, uses
// only URL-safe printable characters (no whitespace), and 32 bytes encode to
// 43 characters - comfortably under the 45 usable characters the fixed
// LUKSPassphraseTextSizeBytes buffer leaves after its terminator.
func AsciiEncode(raw [32]byte) string {
	return base64.RawURLEncoding.EncodeToString(raw[:])
}

// AsciiDecode reverses AsciiEncode. Nothing in the production path calls it:
// the server sends raw passphrases, and the client and the editor only ever
// encode them (the client hands the encoded text to cryptsetup).
func AsciiDecode(text string) ([32]byte, error) {
	var out [32]byte
	raw, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		return out, lukserr.New(lukserr.KindFormat, "AsciiDecode", err)
	}
	if len(raw) != 32 {
		return out, lukserr.New(lukserr.KindFormat, "AsciiDecode", lukserr.ErrTruncated)
	}
	copy(out[:], raw)
	return out, nil
}
