package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyInput(t *testing.T) {
	assert.Nil(t, Chunk("", 500, 50))
	assert.Nil(t, Chunk("   ", 500, 50))
	assert.Nil(t, Chunk("\n\t  \n", 500, 50))
}

func TestChunkShortText(t *testing.T) {
	chunks := Chunk("hello world", 500, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestChunkWindowsAndOverlap(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := Chunk(text, 10, 3)

	require.Equal(t, []string{
		"abcdefghij",
		"hijklmnopq",
		"opqrstuvwx",
		"vwxyz",
	}, chunks)

	// Adjacent chunks share exactly the overlap.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		assert.Equal(t, prev[len(prev)-3:], chunks[i][:3])
	}

	// The union of windows covers the whole input.
	assert.True(t, strings.HasPrefix(chunks[0], "a"))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "z"))
}

func TestChunkTrimsAndSkipsBlankWindows(t *testing.T) {
	chunks := Chunk("abc       xyz", 5, 1)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
}

func TestChunkTerminatesWithLargeOverlap(t *testing.T) {
	// overlap one less than the window advances a single character per step;
	// the loop bound must still terminate.
	text := "aaaaaaaaaaaa"
	chunks := Chunk(text, 5, 4)
	assert.Len(t, chunks, 8)
}

func TestChunkMultibyteRunes(t *testing.T) {
	text := strings.Repeat("é", 20)
	chunks := Chunk(text, 8, 2)
	require.NotEmpty(t, chunks)
	assert.Equal(t, strings.Repeat("é", 8), chunks[0])
}
