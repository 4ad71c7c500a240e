package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type DuplicateMatch struct {
	CandidateID string
	Similarity  float32
}

// DuplicateDetector flags resumes that closely match one already screened by
// the same recruiter.
type DuplicateDetector interface {
	// Inspect looks for a near-identical resume and then indexes this one.
	// A nil match means no duplicate was found.
	Inspect(ctx context.Context, candidateID uuid.UUID, recruiter, resumeText string) (*DuplicateMatch, error)
	Index(ctx context.Context, candidateID uuid.UUID, recruiter, resumeText string) error
}

type duplicateDetector struct {
	embedder  Embedder
	index     ResumeIndex
	threshold float32
}

func NewDuplicateDetector(embedder Embedder, index ResumeIndex, threshold float64) DuplicateDetector {
	return &duplicateDetector{
		embedder:  embedder,
		index:     index,
		threshold: float32(threshold),
	}
}

func (d *duplicateDetector) Inspect(ctx context.Context, candidateID uuid.UUID, recruiter, resumeText string) (*DuplicateMatch, error) {
	embedding, err := d.embedder.GenerateEmbedding(ctx, resumeText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed resume: %w", err)
	}

	results, err := d.index.SearchSimilar(ctx, embedding, recruiter, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar resumes: %w", err)
	}

	var match *DuplicateMatch
	if len(results) > 0 && results[0].Score >= d.threshold && results[0].CandidateID != candidateID.String() {
		match = &DuplicateMatch{CandidateID: results[0].CandidateID, Similarity: results[0].Score}
	}

	if err := d.index.Upsert(ctx, candidateID, recruiter, embedding); err != nil {
		return match, fmt.Errorf("failed to index resume: %w", err)
	}

	return match, nil
}

func (d *duplicateDetector) Index(ctx context.Context, candidateID uuid.UUID, recruiter, resumeText string) error {
	embedding, err := d.embedder.GenerateEmbedding(ctx, resumeText)
	if err != nil {
		return fmt.Errorf("failed to embed resume: %w", err)
	}
	return d.index.Upsert(ctx, candidateID, recruiter, embedding)
}
