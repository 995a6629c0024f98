// Package memzero wipes secret material from memory on a best-effort basis.
package memzero

import (
	"crypto/subtle"
	"runtime"
)

// Zero overwrites b with zeros.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	runtime.KeepAlive(b)
}

// Key wipes a fixed-size 32-byte key in place.
func Key(k *[32]byte) {
	if k == nil {
		return
	}
	Zero(k[:])
}
