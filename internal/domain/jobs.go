package domain

import (
	"fmt"
	"time"
)

// JobState is a stage of an ingestion job.
type JobState string

const (
	JobReceived   JobState = "RECEIVED"
	JobExtracting JobState = "EXTRACTING"
	JobChunking   JobState = "CHUNKING"
	JobEmbedding  JobState = "EMBEDDING"
	JobIndexing   JobState = "INDEXING"
	JobPersisted  JobState = "PERSISTED"
	JobFailed     JobState = "FAILED"
)

var jobOrder = []JobState{JobReceived, JobExtracting, JobChunking, JobEmbedding, JobIndexing, JobPersisted}

// Terminal reports whether no further transition is allowed.
func (s JobState) Terminal() bool {
	return s == JobPersisted || s == JobFailed
}

// Next returns the state that follows s on the success path.
func (s JobState) Next() (JobState, bool) {
	for i, st := range jobOrder[:len(jobOrder)-1] {
		if st == s {
			return jobOrder[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether moving from s to to is legal: one step
// forward on the success path, or to FAILED from any non-terminal state.
func (s JobState) CanTransition(to JobState) bool {
	if s.Terminal() {
		return false
	}
	if to == JobFailed {
		return true
	}
	next, ok := s.Next()
	return ok && next == to
}

// ValidateTransition returns an error for an illegal transition.
func (s JobState) ValidateTransition(to JobState) error {
	if !s.CanTransition(to) {
		return fmt.Errorf("%w: illegal job transition %s -> %s", ErrInconsistent, s, to)
	}
	return nil
}

// JobTransition records when a job entered a state.
type JobTransition struct {
	State JobState  `json:"state"`
	At    time.Time `json:"at"`
}

// IngestJob is the ledger entry of one ingestion attempt.
type IngestJob struct {
	ID         string          `json:"id"`
	PdfID      string          `json:"pdf_id"`
	OriginPath string          `json:"origin_path"`
	State      JobState        `json:"state"`
	Error      string          `json:"error,omitempty"`
	ChunkCount int             `json:"chunk_count"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	History    []JobTransition `json:"history,omitempty"`
}
