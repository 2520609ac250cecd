// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package luksctl

import "testing"

func TestNoOpRecordsOpens(t *testing.T) {
	n := NewNoOp()
	if n.IsLUKSDeviceOpened("root") {
		t.Fatal("fresh NoOp should report nothing opened")
	}
	if !n.OpenLUKSDevice("vol-uuid", "root", "passphrase-text", true) {
		t.Fatal("OpenLUKSDevice should always succeed")
	}
	if !n.IsLUKSDeviceOpened("root") {
		t.Fatal("root should now be reported as opened")
	}
	if len(n.Opens) != 1 || n.Opens[0].DevmapperName != "root" || !n.Opens[0].AllowDiscards {
		t.Fatalf("unexpected recorded open: %+v", n.Opens)
	}
}
