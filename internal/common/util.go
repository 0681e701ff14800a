package common

import "crypto/rand"

// GenerateRandByteArray returns size bytes from crypto/rand. It panics if
// the system random source fails, which leaves nothing sensible to do.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic("common: crypto/rand failed: " + err.Error())
	}
	return b
}

// WipeByteArray zeroes b in place. Nil is fine.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
