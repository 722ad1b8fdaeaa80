package indexer

import (
	"bibliophage/internal/domain"
)

// Segment is one window of the source text. Offsets count code points;
// CharEnd is exclusive.
type Segment struct {
	Index     int
	Text      string
	CharStart int
	CharEnd   int
}

// Chunk splits text into overlapping windows of at most cfg.ChunkSize code
// points. Window i starts at i*(size-overlap); the last window ends at the
// end of the text and may be shorter. Empty text yields no segments.
//
// Text is decoded as code points before splitting, so no boundary can fall
// inside a multi-byte character. Invalid UTF-8 bytes decode to U+FFFD.
func Chunk(text string, cfg domain.ChunkingConfig) ([]Segment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	step := cfg.Step()
	segments := make([]Segment, 0, ExpectedChunks(n, cfg))
	for start := 0; ; start += step {
		end := min(start+cfg.ChunkSize, n)
		segments = append(segments, Segment{
			Index:     len(segments),
			Text:      string(runes[start:end]),
			CharStart: start,
			CharEnd:   end,
		})
		if end == n {
			break
		}
	}

	return segments, nil
}

// ExpectedChunks returns the number of segments Chunk produces for a text of
// n code points: max(1, ceil((n-overlap)/step)), or 0 for empty text.
func ExpectedChunks(n int, cfg domain.ChunkingConfig) int {
	if n == 0 {
		return 0
	}
	if n <= cfg.ChunkSize {
		return 1
	}
	step := cfg.Step()
	return (n - cfg.ChunkOverlap + step - 1) / step
}
