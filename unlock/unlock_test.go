// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package unlock

import (
	"bytes"
	"testing"
)

func TestMsgRoundTrip(t *testing.T) {
	m := Msg{VolumeUUID: [16]byte{1, 2, 3}, RawPass: [32]byte{9, 9, 9}}
	got, err := ParseMsg(m.Marshal())
	if err != nil {
		t.Fatalf("ParseMsg: %v", err)
	}
	if got != m {
		t.Fatal("round-tripped message mismatch")
	}
}

func TestParseMsgRejectsShortBuffer(t *testing.T) {
	if _, err := ParseMsg(make([]byte, MsgSize-1)); err == nil {
		t.Fatal("expected short buffer to be rejected")
	}
}

func TestSendAllThenReadLoopPreservesOrder(t *testing.T) {
	volumes := [][16]byte{{1}, {2}, {3}}
	passes := [][32]byte{{10}, {20}, {30}}

	var buf bytes.Buffer
	if err := SendAll(&buf, volumes, passes); err != nil {
		t.Fatalf("SendAll: %v", err)
	}

	var got []Msg
	if err := ReadLoop(&buf, func(m Msg) error {
		got = append(got, m)
		return nil
	}); err != nil {
		t.Fatalf("ReadLoop: %v", err)
	}
	if len(got) != len(volumes) {
		t.Fatalf("expected %d messages, got %d", len(volumes), len(got))
	}
	for i := range volumes {
		if got[i].VolumeUUID != volumes[i] || got[i].RawPass != passes[i] {
			t.Fatalf("message %d out of order or corrupted", i)
		}
	}
}

func TestReadLoopRejectsShortRead(t *testing.T) {
	buf := bytes.NewReader(make([]byte, MsgSize+3))
	err := ReadLoop(buf, func(Msg) error { return nil })
	if err == nil {
		t.Fatal("expected a short trailing read to be a protocol error")
	}
}
