package services

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 600
	defaultChunkOverlap = 60
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// chunkBuffer accumulates pieces up to a rune budget and seeds each new chunk with
// the tail of the previous one.
type chunkBuffer struct {
	max     int
	overlap int
	current strings.Builder
	chunks  []string
}

func (b *chunkBuffer) add(piece, sep string) {
	size := utf8.RuneCountInString(b.current.String())
	if size > 0 && size+utf8.RuneCountInString(sep)+utf8.RuneCountInString(piece) > b.max {
		b.flush()
	}
	if b.current.Len() > 0 {
		b.current.WriteString(sep)
	}
	b.current.WriteString(piece)
}

func (b *chunkBuffer) flush() {
	prev := b.current.String()
	b.chunks = append(b.chunks, prev)
	b.current.Reset()
	b.current.WriteString(lastNRunes(prev, b.overlap))
}

func (b *chunkBuffer) done() []string {
	if b.current.Len() > 0 {
		b.chunks = append(b.chunks, b.current.String())
	}
	return b.chunks
}

// ChunkText splits on blank lines first and on sentence ends for paragraphs that
// are longer than maxChunkSize.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	buf := &chunkBuffer{max: maxChunkSize, overlap: overlap}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			buf.add(para, "\n\n")
			continue
		}
		for _, sentence := range splitIntoSentences(para) {
			buf.add(sentence, " ")
		}
	}
	return buf.done()
}

func splitIntoSentences(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var result []string
	for _, s := range sentences {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return result
}

func lastNRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}
