package ai

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"strings"
)

// ChunkConfig controls word-window chunking of post bodies.
type ChunkConfig struct {
	Size    int // window length in words
	Overlap int // words shared between consecutive windows
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    500,
		Overlap: 100,
	}
}

// Chunk splits rich text into overlapping word windows. Markup is
// stripped first; the window start advances by Size-Overlap words, so
// Overlap must be smaller than Size. Empty or whitespace-only input
// yields no chunks. The function is pure and safe for concurrent use.
func Chunk(text string, cfg ChunkConfig) ([]string, error) {
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("chunk overlap must satisfy 0 <= overlap < size, got size=%d overlap=%d", cfg.Size, cfg.Overlap)
	}

	clean := strings.TrimSpace(StripTags(text))
	if clean == "" {
		return nil, nil
	}

	words := strings.Fields(clean)
	step := cfg.Size - cfg.Overlap

	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words); start += step {
		end := start + cfg.Size
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// HashCleanBody fingerprints the plain-text content of a body. Derived
// artifacts are recomputed when this hash changes, not just on creation.
func HashCleanBody(body string) string {
	clean := strings.TrimSpace(StripTags(body))
	sum := sha256.Sum256([]byte(clean))
	return hex.EncodeToString(sum[:])
}

// StripTags removes HTML markup and unescapes entities, leaving plain text.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
			}
		case r == '<':
			inTag = true
			// tag boundaries separate words in the rendered text
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	return html.UnescapeString(b.String())
}
