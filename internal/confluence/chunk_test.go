package confluence

import (
	"strconv"
	"strings"
	"testing"

	"wikiqa/internal/config"
)

func TestChunkContentRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		content   string
		chunkSize int
	}{
		{"even split", strings.Repeat("abcd", 25), 10},
		{"ragged tail", strings.Repeat("x", 103), 25},
		{"chunk larger than content", "short", 1000},
		{"unit chunks", "abc", 1},
		{"multibyte runes", strings.Repeat("héllo wörld ", 20), 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := &Page{ID: "42", Title: "Test", Content: tc.content}
			chunks := ChunkContent(page, tc.chunkSize)

			var rebuilt strings.Builder
			for i, chunk := range chunks {
				rebuilt.WriteString(chunk.Text)

				if chunk.Index != i {
					t.Fatalf("chunk %d has index %d", i, chunk.Index)
				}
				if want := "42_" + strconv.Itoa(i); chunk.ID != want {
					t.Fatalf("chunk %d has id %q, want %q", i, chunk.ID, want)
				}
				if chunk.PageID != "42" || chunk.PageTitle != "Test" {
					t.Fatalf("chunk %d lost page attribution: %+v", i, chunk)
				}
				// Every chunk except possibly the last is exactly chunkSize.
				if i < len(chunks)-1 && len([]rune(chunk.Text)) != tc.chunkSize {
					t.Fatalf("chunk %d has %d runes, want %d", i, len([]rune(chunk.Text)), tc.chunkSize)
				}
				if len([]rune(chunk.Text)) > tc.chunkSize {
					t.Fatalf("chunk %d exceeds size: %d runes", i, len([]rune(chunk.Text)))
				}
			}

			if rebuilt.String() != tc.content {
				t.Fatal("concatenated chunks do not reproduce the content")
			}
		})
	}
}

func TestChunkContentEmpty(t *testing.T) {
	if got := ChunkContent(&Page{ID: "1"}, 100); len(got) != 0 {
		t.Fatalf("empty content should produce no chunks, got %d", len(got))
	}
	if got := ChunkContent(nil, 100); len(got) != 0 {
		t.Fatalf("nil page should produce no chunks, got %d", len(got))
	}
}

func TestChunkContentDefaultSize(t *testing.T) {
	page := &Page{ID: "1", Title: "T", Content: strings.Repeat("a", config.DefaultChunkSize+1)}

	chunks := ChunkContent(page, 0)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks at the default size, got %d", len(chunks))
	}
	if got := len([]rune(chunks[0].Text)); got != config.DefaultChunkSize {
		t.Fatalf("first chunk has %d runes, want %d", got, config.DefaultChunkSize)
	}
	if chunks[1].Text != "a" {
		t.Fatalf("tail chunk is %q", chunks[1].Text)
	}
}
