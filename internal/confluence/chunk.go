package confluence

import (
	"fmt"

	"wikiqa/internal/config"
)

// ChunkContent splits a page's text into contiguous, non-overlapping slices
// of at most chunkSize characters; chunkSize < 1 selects the default size.
// Indices are assigned in slice order from zero and concatenating all chunk
// texts reproduces the content exactly. The split is rune-safe so
// multi-byte characters never straddle chunks. Pure function; no side
// effects.
func ChunkContent(page *Page, chunkSize int) []Chunk {
	if chunkSize < 1 {
		chunkSize = config.DefaultChunkSize
	}
	if page == nil || page.Content == "" {
		return []Chunk{}
	}

	runes := []rune(page.Content)
	chunks := make([]Chunk, 0, (len(runes)+chunkSize-1)/chunkSize)
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		index := len(chunks)
		chunks = append(chunks, Chunk{
			ID:        fmt.Sprintf("%s_%d", page.ID, index),
			Index:     index,
			PageID:    page.ID,
			PageTitle: page.Title,
			Text:      string(runes[start:end]),
		})
	}
	return chunks
}
