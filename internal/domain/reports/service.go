package reports

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/positions"
)

// Service composes the report queries.
type Service struct {
	repo      Repository
	positions positions.Repository
	ledger    ledger.Repository
}

// NewService creates the report service.
func NewService(repo Repository, posRepo positions.Repository, ledgerRepo ledger.Repository) *Service {
	return &Service{repo: repo, positions: posRepo, ledger: ledgerRepo}
}

// GetAvailableBatches lists batches with stock for a product in a warehouse,
// in batch creation order.
func (s *Service) GetAvailableBatches(ctx context.Context, productID, warehouseID id.ID) ([]positions.AvailableBatch, error) {
	if id.IsNil(productID) || id.IsNil(warehouseID) {
		return nil, apperror.NewValidation("product and warehouse are required")
	}
	return s.positions.ListAvailable(ctx, productID, warehouseID)
}

// GetBatchStock lists positions joined with batch identity.
func (s *Service) GetBatchStock(ctx context.Context, filter BatchStockFilter) ([]BatchStockRow, error) {
	return s.repo.GetBatchStock(ctx, filter)
}

// GetNearExpiryBatches lists batches expiring within days from now that
// still have stock, soonest first.
func (s *Service) GetNearExpiryBatches(ctx context.Context, days int, warehouseID *id.ID) ([]NearExpiryRow, error) {
	if days < 0 {
		return nil, apperror.NewValidation("days must not be negative").
			WithDetail("days", days)
	}
	horizon := time.Now().UTC().AddDate(0, 0, days)
	return s.repo.GetNearExpiryBatches(ctx, horizon, warehouseID)
}

// GetInventoryTransactions lists ledger history, newest first. Voided rows
// are excluded unless the filter asks for them.
func (s *Service) GetInventoryTransactions(ctx context.Context, filter TransactionFilter) ([]TransactionRow, error) {
	return s.repo.GetTransactions(ctx, filter)
}

// StockOnHand computes the transit-aware view: the regular position
// aggregate (already net of regular in/out/discard) plus in-transit inbound
// minus in-transit outbound summed from non-voided ledger rows. Recomputed
// on every call, never stored.
func (s *Service) StockOnHand(ctx context.Context, productID, warehouseID id.ID, batchID *id.ID) (StockOnHand, error) {
	if id.IsNil(productID) || id.IsNil(warehouseID) {
		return StockOnHand{}, apperror.NewValidation("product and warehouse are required")
	}

	regular, err := s.repo.RegularQty(ctx, productID, warehouseID, batchID)
	if err != nil {
		return StockOnHand{}, fmt.Errorf("sum regular stock: %w", err)
	}

	transit, err := s.ledger.SumTransit(ctx, productID, warehouseID, batchID)
	if err != nil {
		return StockOnHand{}, fmt.Errorf("sum transit stock: %w", err)
	}

	return StockOnHand{
		ProductID:   productID,
		WarehouseID: warehouseID,
		BatchID:     batchID,
		RegularQty:  regular,
		TransitIn:   transit.In,
		TransitOut:  transit.Out,
		Total:       regular.Add(transit.In).Sub(transit.Out),
	}, nil
}

// GetTurnover reports receipts, issues and opening/closing balances over a
// period.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	if filter.From.IsZero() || filter.To.IsZero() {
		return Turnover{}, apperror.NewValidation("period bounds are required")
	}
	if filter.To.Before(filter.From) {
		return Turnover{}, apperror.NewValidation("period end precedes period start")
	}
	return s.repo.GetTurnover(ctx, filter)
}

// CheckConsistency reconciles a position against its ledger: qty_on_hand
// must equal the signed sum of non-voided transactions for the key.
func (s *Service) CheckConsistency(ctx context.Context, key positions.Key) (ConsistencyReport, error) {
	pos, err := s.positions.Get(ctx, key)
	if err != nil {
		return ConsistencyReport{}, err
	}

	sum, err := s.ledger.SignedSum(ctx, key.ProductID, key.WarehouseID, key.BatchID)
	if err != nil {
		return ConsistencyReport{}, fmt.Errorf("sum ledger: %w", err)
	}

	return ConsistencyReport{
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		BatchID:     key.BatchID,
		QtyOnHand:   pos.QtyOnHand,
		LedgerSum:   sum,
		Consistent:  pos.QtyOnHand.Equal(sum),
	}, nil
}
