package batches

import (
	"context"
	"fmt"

	"stockledger/internal/core/id"
	"stockledger/pkg/logger"
)

// Service provides business operations for the batch registry.
type Service struct {
	repo Repository
}

// NewService creates a new batch registry service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upsert creates the batch on first reference or refreshes its mutable
// fields (dates, notes) on later calls. Never touches quantity.
func (s *Service) Upsert(ctx context.Context, input UpsertInput) (id.ID, error) {
	if err := input.Validate(); err != nil {
		return id.Nil(), err
	}

	batchID, err := s.repo.Upsert(ctx, input)
	if err != nil {
		return id.Nil(), fmt.Errorf("upsert batch: %w", err)
	}

	logger.Debug(ctx, "batch upserted",
		"batch_id", batchID,
		"product_id", input.ProductID,
		"batch_no", input.BatchNo,
	)

	return batchID, nil
}

// GetByID retrieves a batch.
func (s *Service) GetByID(ctx context.Context, batchID id.ID) (Batch, error) {
	return s.repo.GetByID(ctx, batchID)
}

// List retrieves batches with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Batch, error) {
	return s.repo.List(ctx, filter)
}
