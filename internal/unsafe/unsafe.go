// Package unsafe provides the zero-copy byte/string helpers the parser's
// hot loop uses when comparing scratch buffers against fixed literals like
// "HTTP/".
package unsafe

import (
	"bytes"
	"unsafe"
)

// B2S converts a byte slice to a string without memory allocation.
// Note: the returned string must not be modified, as it points to the same
// memory as the byte slice.
func B2S(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// S2B converts a string to a byte slice without memory allocation.
// Note: the returned byte slice must not be modified, as it points to the
// same memory as the string.
func S2B(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// EqualBytes compares a byte slice with a string without allocating an
// intermediate byte slice for the string.
func EqualBytes(a []byte, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return bytes.Equal(a, S2B(b))
}
