package pst

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsASCII(t *testing.T) {
	require.True(t, isASCII([]byte("hello world")))
	require.False(t, isASCII([]byte{0xE9})) // Windows-1252 'é'
	require.True(t, isASCII(nil))
}

func TestDecodeANSIAsciiFastPath(t *testing.T) {
	s, err := decodeANSI([]byte("plain ascii"))
	require.NoError(t, err)
	require.Equal(t, "plain ascii", s)
}

func TestDecodeANSIWindows1252(t *testing.T) {
	// 0x80 is the euro sign in Windows-1252, not the C1 control Latin-1
	// would give it; a clean way to tell the two codepages apart.
	s, err := decodeANSI([]byte{0x80})
	require.NoError(t, err)
	require.Equal(t, "€", s)

	s, err = decodeANSI([]byte{0xE9})
	require.NoError(t, err)
	require.Equal(t, "é", s)
}
