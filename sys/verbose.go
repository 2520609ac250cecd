// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package sys

import (
	"log"
	"sync/atomic"
)

var verbose atomic.Bool

// SetVerbose toggles the global -v debug-logging level. The original CLI
// treats verbosity as a single on/off switch rather than a leveled logger,
// and this carries that simplicity forward.
func SetVerbose(on bool) {
	verbose.Store(on)
}

// Verbose reports the current -v setting.
func Verbose() bool {
	return verbose.Load()
}

// Debugf logs format only when verbose logging is enabled.
func Debugf(format string, args ...interface{}) {
	if verbose.Load() {
		log.Printf(format, args...)
	}
}
