// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// Package discovery implements the UDP broadcast query / unicast response
// exchange of section 4.4, plus the server cooldown and client blacklist
// that keep it from being used for amplification or UUID probing.
package discovery

import (
	"github.com/tacerus/luksrku/lukserr"
)

const (
	// QuerySize is the wire size of Query: magic[8] + host_uuid[16].
	QuerySize = 8 + 16
	// ResponseSize is the wire size of Response: magic[8].
	ResponseSize = 8
)

var (
	queryMagic    = [8]byte{'L', 'U', 'K', 'S', 'R', 'K', 'U', 'Q'}
	responseMagic = [8]byte{'L', 'U', 'K', 'S', 'R', 'K', 'U', 'R'}
)

// Query is the client-to-server broadcast discovery message.
type Query struct {
	HostUUID [16]byte
}

// Marshal encodes q into QuerySize bytes.
func (q Query) Marshal() []byte {
	out := make([]byte, 0, QuerySize)
	out = append(out, queryMagic[:]...)
	out = append(out, q.HostUUID[:]...)
	return out
}

// ParseQuery decodes a received packet, rejecting anything whose magic does
// not match or whose length is wrong.
func ParseQuery(buf []byte) (Query, error) {
	if len(buf) != QuerySize {
		return Query{}, lukserr.New(lukserr.KindProtocol, "ParseQuery", lukserr.ErrTruncated)
	}
	var gotMagic [8]byte
	copy(gotMagic[:], buf[:8])
	if gotMagic != queryMagic {
		return Query{}, lukserr.New(lukserr.KindProtocol, "ParseQuery", lukserr.ErrBadMagic)
	}
	var q Query
	copy(q.HostUUID[:], buf[8:24])
	return q, nil
}

// Response is the server-to-client unicast discovery reply.
type Response struct{}

// Marshal encodes the response's fixed magic.
func (Response) Marshal() []byte {
	return append([]byte{}, responseMagic[:]...)
}

// ParseResponse validates a received reply.
func ParseResponse(buf []byte) (Response, error) {
	if len(buf) != ResponseSize {
		return Response{}, lukserr.New(lukserr.KindProtocol, "ParseResponse", lukserr.ErrTruncated)
	}
	var gotMagic [8]byte
	copy(gotMagic[:], buf)
	if gotMagic != responseMagic {
		return Response{}, lukserr.New(lukserr.KindProtocol, "ParseResponse", lukserr.ErrBadMagic)
	}
	return Response{}, nil
}
