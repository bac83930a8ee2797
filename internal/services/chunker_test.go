package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestChunkTextParagraphsWithOverlap(t *testing.T) {
	chunks := NewTextChunker().ChunkText("aaaa\n\nbbbb\n\ncccc", 10, 2)
	assert.Equal(t, []string{"aaaa\n\nbbbb", "bb\n\ncccc"}, chunks)
}

func TestChunkTextSplitsLongParagraphsIntoSentences(t *testing.T) {
	chunks := NewTextChunker().ChunkText("One. Two. Three.", 8, 0)
	assert.Equal(t, []string{"One Two", "Three"}, chunks)
}

func TestChunkTextEmptyInput(t *testing.T) {
	tc := NewTextChunker()
	assert.Nil(t, tc.ChunkText("", 10, 2))
	assert.Nil(t, tc.ChunkText("\n\n  \n\n", 10, 2))
}

func TestChunkTextDefaults(t *testing.T) {
	text := strings.Repeat("word ", 100)
	chunks := NewTextChunker().ChunkText(text, 0, -5)
	assert.Equal(t, []string{strings.TrimSpace(text)}, chunks)
}

func TestChunkTextCountsRunes(t *testing.T) {
	chunks := NewTextChunker().ChunkText("ção\n\nñañá", 9, 0)
	assert.Equal(t, []string{"ção\n\nñañá"}, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 9)
	}
}

func TestChunkTextClampsOverlap(t *testing.T) {
	chunks := NewTextChunker().ChunkText("abcdefgh\n\nijklmnop", 8, 8)
	assert.Equal(t, []string{"abcdefgh", "gh\n\nijklmnop"}, chunks)
}
