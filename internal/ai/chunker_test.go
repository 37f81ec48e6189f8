package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// words builds a space-separated string of n numbered words
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "w" + string(rune('a'+i%26))
	}
	return strings.Join(parts, " ")
}

// TestChunk_ShortTextSingleChunk tests that text shorter than the window yields one chunk
func TestChunk_ShortTextSingleChunk(t *testing.T) {
	chunks, err := Chunk("alpha beta gamma", ChunkConfig{Size: 10, Overlap: 2})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "alpha beta gamma", chunks[0])
}

// TestChunk_OverlappingWindows tests window advancement by size-overlap
func TestChunk_OverlappingWindows(t *testing.T) {
	// 10 words, size 4, overlap 2 -> starts at 0,2,4,6,8
	text := "w1 w2 w3 w4 w5 w6 w7 w8 w9 w10"
	chunks, err := Chunk(text, ChunkConfig{Size: 4, Overlap: 2})

	require.NoError(t, err)
	require.Len(t, chunks, 5)
	assert.Equal(t, "w1 w2 w3 w4", chunks[0])
	assert.Equal(t, "w3 w4 w5 w6", chunks[1])
	assert.Equal(t, "w9 w10", chunks[4])
}

// TestChunk_EmptyInput tests that empty and whitespace-only input yield no chunks
func TestChunk_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t  "} {
		chunks, err := Chunk(input, ChunkConfig{Size: 4, Overlap: 1})
		require.NoError(t, err)
		assert.Nil(t, chunks)
	}
}

// TestChunk_StripsMarkup tests that HTML markup does not leak into chunks
func TestChunk_StripsMarkup(t *testing.T) {
	chunks, err := Chunk("<p>hello <b>bold</b> world</p>", ChunkConfig{Size: 10, Overlap: 0})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello bold world", chunks[0])
}

// TestChunk_InvalidOverlap tests that an overlap >= size is rejected
func TestChunk_InvalidOverlap(t *testing.T) {
	_, err := Chunk("some text", ChunkConfig{Size: 4, Overlap: 4})
	assert.Error(t, err)

	_, err = Chunk("some text", ChunkConfig{Size: 4, Overlap: -1})
	assert.Error(t, err)
}

// TestChunk_ZeroSizeUsesDefaults tests that a zero config falls back to defaults
func TestChunk_ZeroSizeUsesDefaults(t *testing.T) {
	chunks, err := Chunk(words(600), ChunkConfig{})

	require.NoError(t, err)
	// 600 words, size 500, step 400 -> starts at 0 and 400
	assert.Len(t, chunks, 2)
}

// TestStripTags tests markup removal and entity unescaping
func TestStripTags(t *testing.T) {
	assert.Equal(t, "plain text", StripTags("plain text"))
	assert.Equal(t, " hello  world ", StripTags("<p>hello <br/>world</p>"))
	assert.Equal(t, "a < b & c", StripTags("a &lt; b &amp; c"))
}

// TestHashCleanBody tests that the hash tracks rendered text, not markup
func TestHashCleanBody(t *testing.T) {
	plain := HashCleanBody("hello world")
	wrapped := HashCleanBody("  hello world  ")

	assert.Equal(t, plain, wrapped)
	assert.NotEqual(t, plain, HashCleanBody("hello there"))
	assert.Len(t, plain, 64)
}
