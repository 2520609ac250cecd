// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package transport

import (
	"testing"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/keydb"
	"github.com/tacerus/luksrku/vault"
)

func TestServerPSKCacheResolvesKnownHost(t *testing.T) {
	db := keydb.New()
	h, err := db.AddHost("web1")
	if err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	wantPSK := h.PSK
	hostUUID := h.HostUUID
	vkdb := vault.Build(db)

	cache := NewServerPSKCache(vkdb)
	psk, ok := cache.Get(cryptoutil.SprintfUUID(hostUUID))
	if !ok {
		t.Fatal("expected known host identity to resolve")
	}
	if string(psk.Key) != string(wantPSK[:]) {
		t.Fatal("resolved PSK does not match host's key")
	}
	if !cache.Resolved || cache.ResolvedHostUUID != hostUUID {
		t.Fatal("cache did not record the resolved host")
	}
}

func TestServerPSKCacheRejectsUnknownIdentity(t *testing.T) {
	db := keydb.New()
	vkdb := vault.Build(db)
	cache := NewServerPSKCache(vkdb)
	if _, ok := cache.Get("not-a-uuid"); ok {
		t.Fatal("expected malformed identity to be rejected")
	}
	if _, ok := cache.Get(cryptoutil.SprintfUUID(cryptoutil.NewUUID())); ok {
		t.Fatal("expected unknown uuid to be rejected")
	}
	if cache.Resolved {
		t.Fatal("cache must not mark itself resolved on failure")
	}
}
