package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(64)
	b := GenerateRandByteArray(64)

	require.Len(t, a, 64)
	require.Len(t, b, 64)
	assert.False(t, bytes.Equal(a, b), "two 64-byte random draws must differ")
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)

	WipeByteArray(nil)
}
