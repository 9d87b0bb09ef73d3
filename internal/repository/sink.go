package repository

import (
	"context"

	"github.com/abhi542/MouldLensAI/internal/entity"
)

// ReadingSink adapts the repository to the pipeline's sink contract so the
// primary and secondary sinks stay interchangeable and independent.
type ReadingSink struct {
	repo ReadingRepository
}

func NewReadingSink(repo ReadingRepository) *ReadingSink {
	return &ReadingSink{repo: repo}
}

func (s *ReadingSink) Name() string { return "document_store" }

func (s *ReadingSink) Write(ctx context.Context, rec *entity.OutcomeRecord) error {
	return s.repo.Insert(ctx, rec)
}
