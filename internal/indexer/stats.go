package indexer

import (
	"math"
	"sort"
	"unicode/utf8"
)

// TokensPerRune approximates tokens from code points (about 4 per token).
const TokensPerRune = 4.0

// ChunkStats summarizes the chunks produced for one record.
type ChunkStats struct {
	Chunks     int     `json:"chunks"`
	MinRunes   int     `json:"min_runes"`
	MaxRunes   int     `json:"max_runes"`
	MeanTokens float64 `json:"mean_tokens"`
	P95Tokens  int     `json:"p95_tokens"`
	TotalRunes int     `json:"total_runes"`
}

// ComputeChunkStats computes size statistics over segments.
func ComputeChunkStats(segments []Segment) ChunkStats {
	if len(segments) == 0 {
		return ChunkStats{}
	}

	runes := make([]int, 0, len(segments))
	tokens := make([]int, 0, len(segments))
	total := 0
	for _, s := range segments {
		n := utf8.RuneCountInString(s.Text)
		runes = append(runes, n)
		tokens = append(tokens, estimateTokens(n))
		total += n
	}
	sort.Ints(runes)

	return ChunkStats{
		Chunks:     len(segments),
		MinRunes:   runes[0],
		MaxRunes:   runes[len(runes)-1],
		MeanTokens: mean(tokens),
		P95Tokens:  percentile(tokens, 0.95),
		TotalRunes: total,
	}
}

func estimateTokens(runes int) int {
	t := int(math.Round(float64(runes) / TokensPerRune))
	if t < 1 {
		return 1
	}
	return t
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return math.Round(float64(sum)/float64(len(values))*100) / 100
}

// percentile uses the nearest-rank method on a copy of values.
func percentile(values []int, p float64) int {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
