// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// Package unlock implements the fixed-size record stream of section 4.6:
// after a TLS-PSK handshake, the server sends one UnlockMsg per volume
// belonging to the authenticated host, then closes the connection.
package unlock

import (
	"io"

	"github.com/tacerus/luksrku/lukserr"
)

// MsgSize is the wire size of UnlockMsg: volume_uuid[16] + luks_passphrase_raw[32].
const MsgSize = 16 + 32

// Msg is one server-to-client unlock record.
type Msg struct {
	VolumeUUID [16]byte
	RawPass    [32]byte
}

// Marshal encodes m into MsgSize bytes.
func (m Msg) Marshal() []byte {
	out := make([]byte, MsgSize)
	copy(out[:16], m.VolumeUUID[:])
	copy(out[16:], m.RawPass[:])
	return out
}

// ParseMsg decodes exactly MsgSize bytes into a Msg.
func ParseMsg(buf []byte) (Msg, error) {
	if len(buf) != MsgSize {
		return Msg{}, lukserr.New(lukserr.KindProtocol, "ParseMsg", lukserr.ErrTruncated)
	}
	var m Msg
	copy(m.VolumeUUID[:], buf[:16])
	copy(m.RawPass[:], buf[16:])
	return m, nil
}

// SendAll writes one Msg per entry in volumeUUIDs/passphrases, in the given
// order, then lets the caller close w. len(volumeUUIDs) must equal
// len(passphrases); this is section 5's "database order, stable across
// connections" ordering guarantee.
func SendAll(w io.Writer, volumeUUIDs [][16]byte, passphrases [][32]byte) error {
	for i := range volumeUUIDs {
		msg := Msg{VolumeUUID: volumeUUIDs[i], RawPass: passphrases[i]}
		buf := msg.Marshal()
		if _, err := w.Write(buf); err != nil {
			return lukserr.New(lukserr.KindIO, "SendAll", err)
		}
	}
	return nil
}

// ReadLoop reads fixed-size Msg records from r until a clean EOF, invoking
// handle for each one. Any read that returns a partial MsgSize record
// (neither 0 nor MsgSize bytes) is a fatal protocol error, per section 4.6.
func ReadLoop(r io.Reader, handle func(Msg) error) error {
	buf := make([]byte, MsgSize)
	for {
		n, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return nil
		}
		if err == io.ErrUnexpectedEOF {
			return lukserr.New(lukserr.KindProtocol, "ReadLoop", lukserr.ErrTruncated)
		}
		if err != nil {
			return lukserr.New(lukserr.KindIO, "ReadLoop", err)
		}
		msg, perr := ParseMsg(buf[:n])
		if perr != nil {
			return perr
		}
		if err := handle(msg); err != nil {
			return err
		}
	}
}
