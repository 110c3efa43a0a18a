// Package chunker splits document text into overlapping word-bounded
// segments, the unit stored in the vector index.
package chunker

import (
	"fmt"
	"strings"
)

// Split cuts text into a sliding window of at most maxSize words, each
// window sharing overlap words with its predecessor. Chunks are joined
// with single spaces, so the output is deterministic for a given input.
// Empty or whitespace-only text yields no chunks.
func Split(text string, maxSize, overlap int) ([]string, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunker: max size must be positive, got %d", maxSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunker: overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxSize {
		return nil, fmt.Errorf("chunker: overlap %d must be smaller than max size %d", overlap, maxSize)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	var chunks []string
	start := 0
	total := len(words)

	for start < total {
		end := start + maxSize
		if end > total {
			end = total
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))

		if end >= total {
			break
		}
		if overlap > 0 {
			start = end - overlap
		} else {
			start = end
		}
	}

	return chunks, nil
}
