package domain

import "fmt"

const (
	DefaultChunkSize    = 600
	DefaultChunkOverlap = 50
)

// ChunkingConfig controls how extracted text is split. Sizes are counted in
// Unicode code points.
type ChunkingConfig struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
}

// DefaultChunkingConfig returns the deployment defaults.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{ChunkSize: DefaultChunkSize, ChunkOverlap: DefaultChunkOverlap}
}

// Validate rejects configurations where consecutive chunks would not advance.
func (c ChunkingConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be greater than 0, got %d", ErrInvalidConfiguration, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must not be negative, got %d", ErrInvalidConfiguration, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be less than chunk_size (%d)", ErrInvalidConfiguration, c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Step is the distance between the starts of consecutive chunks.
func (c ChunkingConfig) Step() int {
	return c.ChunkSize - c.ChunkOverlap
}

// Resolve returns cfg, or fallback when cfg is absent. A config whose fields
// are both zero counts as absent.
func Resolve(cfg *ChunkingConfig, fallback ChunkingConfig) ChunkingConfig {
	if cfg == nil || (cfg.ChunkSize == 0 && cfg.ChunkOverlap == 0) {
		return fallback
	}
	return *cfg
}
