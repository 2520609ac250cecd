// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package cryptoutil

import "runtime"

// Wipe zeroes b and pins it past the last write with runtime.KeepAlive so
// the Go compiler cannot prove the store dead and elide it - a buffer that
// escapes to the heap (every secret buffer in this codebase does, since it
// is always passed by slice) is safe from the usual "dead store" class of
// optimization, but KeepAlive removes any doubt as the compiler evolves.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
