package stream

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndFlushTo(t *testing.T) {
	s := New()
	n, err := s.Write([]byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	s.WriteString("world")

	var out bytes.Buffer
	n, err = s.FlushTo(&out)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, "hello world", out.String())
	assert.Equal(t, 0, s.Len())
}

func TestWriteSpansMultipleChunks(t *testing.T) {
	s := New()
	big := strings.Repeat("x", ChunkSize+100)
	s.WriteString(big)
	assert.Equal(t, len(big), s.Len())

	var out bytes.Buffer
	_, err := s.FlushTo(&out)
	require.NoError(t, err)
	assert.Equal(t, big, out.String())
}

func TestPrintfSmallAndLarge(t *testing.T) {
	s := New()
	n := s.Printf("%s=%d", "x", 42)
	assert.Equal(t, len("x=42"), n)

	s2 := New()
	big := strings.Repeat("y", printfScratch+50)
	n2 := s2.Printf("%s", big)
	assert.Equal(t, len(big), n2)

	var out bytes.Buffer
	_, err := s2.FlushTo(&out)
	require.NoError(t, err)
	assert.Equal(t, big, out.String())
}

func TestReadByteConsumesInOrder(t *testing.T) {
	s := New()
	s.WriteString("abc")

	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('a'), b)

	b, err = s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('b'), b)
}

func TestFlushFilteredKeepsMatchingLinesOnly(t *testing.T) {
	s := New()
	s.WriteString("apple\r\nbanana\r\ncherry\r\n")

	var out bytes.Buffer
	err := s.FlushFiltered(&out, "an")
	require.NoError(t, err)
	assert.Equal(t, "banana\r\n", out.String())
}

func TestFlushFilteredFinalUnterminatedLineHasNoCRLF(t *testing.T) {
	s := New()
	s.WriteString("match-me\r\nmatch-trailing")

	var out bytes.Buffer
	err := s.FlushFiltered(&out, "match")
	require.NoError(t, err)
	assert.Equal(t, "match-me\r\nmatch-trailing", out.String())
}
