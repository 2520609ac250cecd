// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package keydb

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/lukserr"
)

// header is magic + version; record is salt + iterations + IV + tag, all
// little-endian, exactly as laid out in section 3.
const (
	saltSize      = 16
	headerSize    = MagicSize + 4
	recordPrefix  = saltSize + 4 + cryptoutil.GCMIVSize + cryptoutil.GCMTagSize
)

// Read loads a database file, authenticating it under passphrase and
// migrating legacy versions to the current in-memory shape. The caller is
// responsible for prompting with echo disabled and for wiping passphrase
// once Read returns.
func Read(path string, passphrase []byte) (*KeyDB, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lukserr.New(lukserr.KindIO, "Read", lukserr.ErrNotFound)
		}
		return nil, lukserr.New(lukserr.KindIO, "Read", err)
	}
	if len(raw) < headerSize+recordPrefix {
		return nil, lukserr.New(lukserr.KindFormat, "Read", lukserr.ErrTruncated)
	}
	var gotMagic [MagicSize]byte
	copy(gotMagic[:], raw[:MagicSize])
	if gotMagic != magic {
		return nil, lukserr.New(lukserr.KindFormat, "Read", lukserr.ErrBadMagic)
	}
	version := binary.LittleEndian.Uint32(raw[MagicSize:headerSize])

	rest := raw[headerSize:]
	salt := rest[:saltSize]
	iterations := binary.LittleEndian.Uint32(rest[saltSize : saltSize+4])
	var iv [cryptoutil.GCMIVSize]byte
	copy(iv[:], rest[saltSize+4:saltSize+4+cryptoutil.GCMIVSize])
	tagStart := saltSize + 4 + cryptoutil.GCMIVSize
	tag := rest[tagStart : tagStart+cryptoutil.GCMTagSize]
	ciphertext := rest[tagStart+cryptoutil.GCMTagSize:]

	key := cryptoutil.DeriveKey(passphrase, salt, iterations)
	defer cryptoutil.Wipe(key[:])
	payload, err := cryptoutil.AEADDecrypt(key, iv, ciphertext, tag)
	if err != nil {
		return nil, lukserr.New(lukserr.KindAuth, "Read", err)
	}
	defer cryptoutil.Wipe(payload)

	switch version {
	case 1:
		return unmarshalV1(payload)
	case 2:
		return unmarshalV2(payload)
	case CurrentVersion:
		return unmarshalV3(payload)
	default:
		return nil, lukserr.New(lukserr.KindFormat, "Read", lukserr.ErrUnsupportedVersion)
	}
}

// Write persists db at the current version, encrypted under passphrase with
// a freshly generated salt and IV. The write is atomic: content lands in a
// sibling temp file which is fsynced and renamed over path.
func Write(db *KeyDB, path string, passphrase []byte) error {
	if len(db.Hosts) > MaxHosts {
		return lukserr.New(lukserr.KindResource, "Write", fmt.Errorf("too many hosts: %d", len(db.Hosts)))
	}
	payload := marshalV3(db)
	defer cryptoutil.Wipe(payload)

	var salt [saltSize]byte
	cryptoutil.RandomBytes(salt[:])
	var iv [cryptoutil.GCMIVSize]byte
	cryptoutil.RandomBytes(iv[:])

	key := cryptoutil.DeriveKey(passphrase, salt[:], MinPBKDF2Iterations)
	defer cryptoutil.Wipe(key[:])
	ciphertext, tag, err := cryptoutil.AEADEncrypt(key, iv, payload)
	if err != nil {
		return lukserr.New(lukserr.KindCrypto, "Write", err)
	}

	out := make([]byte, 0, headerSize+recordPrefix+len(ciphertext))
	out = append(out, magic[:]...)
	out = binary.LittleEndian.AppendUint32(out, CurrentVersion)
	out = append(out, salt[:]...)
	out = binary.LittleEndian.AppendUint32(out, MinPBKDF2Iterations)
	out = append(out, iv[:]...)
	out = append(out, tag...)
	out = append(out, ciphertext...)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".luksrku-db-*")
	if err != nil {
		return lukserr.New(lukserr.KindIO, "Write", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return lukserr.New(lukserr.KindIO, "Write", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return lukserr.New(lukserr.KindIO, "Write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return lukserr.New(lukserr.KindIO, "Write", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return lukserr.New(lukserr.KindIO, "Write", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return lukserr.New(lukserr.KindIO, "Write", err)
	}
	return nil
}
