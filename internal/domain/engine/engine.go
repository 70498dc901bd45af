// Package engine coordinates stock movements: every posting pairs one stock
// position mutation with one ledger append inside a single transaction, with
// the position row locked for the duration.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/allocation"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/movetype"
	"stockledger/internal/domain/positions"
	"stockledger/pkg/logger"
)

// AuditPort records an audit trail of postings and voids.
type AuditPort interface {
	Record(ctx context.Context, action, entityID, actorID string, meta map[string]any) error
}

// Service is the movement engine.
type Service struct {
	registry  *movetype.Registry
	positions positions.Repository
	writer    *ledger.Writer
	txm       tx.Manager
	audit     AuditPort
}

// NewService creates the movement engine. audit may be nil.
func NewService(registry *movetype.Registry, posRepo positions.Repository, writer *ledger.Writer, txm tx.Manager, audit AuditPort) *Service {
	return &Service{
		registry:  registry,
		positions: posRepo,
		writer:    writer,
		txm:       txm,
		audit:     audit,
	}
}

// MovementInput describes one stock movement to post.
type MovementInput struct {
	TxnDate      time.Time
	Code         movetype.Code
	TxnType      string
	SourceType   string
	SourceID     string
	SourceLineID *string
	ProductID    id.ID
	WarehouseID  id.ID
	BatchID      id.ID
	Qty          types.Quantity
	UnitCost     types.Money
	CurrencyID   *id.ID
	ExchangeRate *types.Money
	UomID        *id.ID
	ActorID      string
}

// MovementResult reports the posted transaction and the resulting position.
// Position is zero-valued for transit-class movements, which are ledger-only.
type MovementResult struct {
	TransactionID id.ID
	Position      positions.StockPosition
}

// PostMovement applies one movement atomically.
//
// Regular and discard classes lock the position row, mutate it and append the
// ledger line in the same transaction; both commit or both roll back. Transit
// classes append to the ledger only — in-transit stock is never on hand, it
// surfaces through the derived stock-on-hand view.
func (s *Service) PostMovement(ctx context.Context, input MovementInput) (MovementResult, error) {
	mt, err := s.registry.LookupByCode(input.Code)
	if err != nil {
		return MovementResult{}, err
	}

	if !mt.IsTransit() && id.IsNil(input.BatchID) {
		return MovementResult{}, apperror.NewValidation("batch is required").
			WithDetail("field", "batchId")
	}

	var result MovementResult
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.postLocked(ctx, input, mt)
		return err
	})
	if err != nil {
		return MovementResult{}, err
	}

	s.recordAudit(ctx, "inventory:post:"+string(input.Code), result.TransactionID.String(), input.ActorID, map[string]any{
		"product_id":   input.ProductID.String(),
		"warehouse_id": input.WarehouseID.String(),
		"qty":          input.Qty.String(),
		"source":       input.SourceType + ":" + input.SourceID,
	})

	logger.Info(ctx, "movement posted",
		"txn_id", result.TransactionID,
		"code", input.Code,
		"product_id", input.ProductID,
		"warehouse_id", input.WarehouseID,
		"qty", input.Qty.String(),
	)

	return result, nil
}

// postLocked runs inside the transaction.
func (s *Service) postLocked(ctx context.Context, input MovementInput, mt movetype.MovementType) (MovementResult, error) {
	now := time.Now().UTC()

	if mt.IsTransit() {
		txnID, err := s.writer.Record(ctx, s.ledgerInput(input, input.UnitCost), input.Code)
		if err != nil {
			return MovementResult{}, err
		}
		return MovementResult{TransactionID: txnID}, nil
	}

	key := positions.Key{
		ProductID:   input.ProductID,
		WarehouseID: input.WarehouseID,
		BatchID:     input.BatchID,
	}

	pos, err := s.positions.GetForUpdate(ctx, key)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return MovementResult{}, err
		}
		if !mt.IsInbound() {
			// Lazy creation is an inbound privilege.
			return MovementResult{}, err
		}
		pos = positions.StockPosition{
			ProductID:   key.ProductID,
			WarehouseID: key.WarehouseID,
			BatchID:     key.BatchID,
			QtyOnHand:   types.Zero(),
			UnitCost:    types.Zero(),
			CurrencyID:  input.CurrencyID,
			UomID:       input.UomID,
		}
	}

	next, err := positions.ApplyMovement(pos, mt, input.Qty, input.UnitCost, now)
	if err != nil {
		return MovementResult{}, err
	}

	// Outbound lines are priced at the position's average; receipts at the
	// caller-supplied cost.
	lineCost := input.UnitCost
	if !mt.IsInbound() {
		lineCost = pos.UnitCost
	}

	if err := s.positions.Upsert(ctx, next); err != nil {
		return MovementResult{}, fmt.Errorf("upsert position: %w", err)
	}

	txnID, err := s.writer.Record(ctx, s.ledgerInput(input, lineCost), input.Code)
	if err != nil {
		return MovementResult{}, err
	}

	return MovementResult{TransactionID: txnID, Position: next}, nil
}

func (s *Service) ledgerInput(input MovementInput, unitCost types.Money) ledger.Input {
	var batchID *id.ID
	if !id.IsNil(input.BatchID) {
		b := input.BatchID
		batchID = &b
	}
	return ledger.Input{
		TxnDate:      input.TxnDate,
		TxnType:      input.TxnType,
		SourceType:   input.SourceType,
		SourceID:     input.SourceID,
		SourceLineID: input.SourceLineID,
		ProductID:    input.ProductID,
		WarehouseID:  input.WarehouseID,
		BatchID:      batchID,
		Qty:          input.Qty,
		UnitCost:     unitCost,
		CurrencyID:   input.CurrencyID,
		ExchangeRate: input.ExchangeRate,
		UomID:        input.UomID,
	}
}

// AllocationApplication applies a planned multi-batch outbound movement.
type AllocationApplication struct {
	TxnDate      time.Time
	Code         movetype.Code
	TxnType      string
	SourceType   string
	SourceID     string
	ProductID    id.ID
	WarehouseID  id.ID
	Lines        []allocation.Line
	CurrencyID   *id.ID
	ExchangeRate *types.Money
	UomID        *id.ID
	ActorID      string
}

// ApplyAllocation applies every line of a plan in one outer transaction: a
// failure partway through rolls back all prior lines. Availability is
// re-checked per line under the row lock, so a stale plan surfaces as
// InsufficientStock — the caller replans and retries.
func (s *Service) ApplyAllocation(ctx context.Context, app AllocationApplication) ([]MovementResult, error) {
	mt, err := s.registry.LookupByCode(app.Code)
	if err != nil {
		return nil, err
	}
	if mt.IsInbound() {
		return nil, apperror.NewValidation("allocation movement must be outbound").
			WithDetail("code", string(app.Code))
	}
	if mt.IsTransit() {
		// Transit is ledger-only and never drains a position; a transit line
		// through here would decrement qty_on_hand behind the ledger's back.
		return nil, apperror.NewValidation("allocation movement must not be transit").
			WithDetail("code", string(app.Code))
	}
	if len(app.Lines) == 0 {
		return nil, apperror.NewValidation("allocation has no lines")
	}

	// Lock in batch-id order so two concurrent multi-line movements can not
	// deadlock each other. Results and line numbering keep the caller's plan
	// order.
	order := make([]int, len(app.Lines))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return bytes.Compare(app.Lines[order[i]].BatchID[:], app.Lines[order[j]].BatchID[:]) < 0
	})

	results := make([]MovementResult, len(app.Lines))
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		inputs := make([]ledger.Input, 0, len(app.Lines))
		for _, idx := range order {
			line := app.Lines[idx]
			key := positions.Key{
				ProductID:   app.ProductID,
				WarehouseID: app.WarehouseID,
				BatchID:     line.BatchID,
			}
			pos, err := s.positions.GetForUpdate(ctx, key)
			if err != nil {
				return err
			}
			next, err := positions.ApplyMovement(pos, mt, line.Quantity, types.Zero(), now)
			if err != nil {
				return err
			}
			if err := s.positions.Upsert(ctx, next); err != nil {
				return fmt.Errorf("upsert position: %w", err)
			}

			lineRef := fmt.Sprintf("%d", idx+1)
			batchID := line.BatchID
			inputs = append(inputs, ledger.Input{
				TxnDate:      app.TxnDate,
				TxnType:      app.TxnType,
				SourceType:   app.SourceType,
				SourceID:     app.SourceID,
				SourceLineID: &lineRef,
				ProductID:    app.ProductID,
				WarehouseID:  app.WarehouseID,
				BatchID:      &batchID,
				Qty:          line.Quantity,
				UnitCost:     pos.UnitCost,
				CurrencyID:   app.CurrencyID,
				ExchangeRate: app.ExchangeRate,
				UomID:        app.UomID,
			})
			results[idx] = MovementResult{Position: next}
		}

		txnIDs, err := s.writer.RecordAll(ctx, inputs, app.Code)
		if err != nil {
			return err
		}
		for k, idx := range order {
			results[idx].TransactionID = txnIDs[k]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "inventory:allocate:"+string(app.Code), app.SourceType+":"+app.SourceID, app.ActorID, map[string]any{
		"product_id":   app.ProductID.String(),
		"warehouse_id": app.WarehouseID.String(),
		"lines":        len(app.Lines),
	})

	logger.Info(ctx, "allocation applied",
		"code", app.Code,
		"product_id", app.ProductID,
		"warehouse_id", app.WarehouseID,
		"lines", len(app.Lines),
	)

	return results, nil
}

// VoidTransaction soft-voids a ledger row and audits the action. The void is
// a display/audit flag only; qty_on_hand is deliberately untouched.
func (s *Service) VoidTransaction(ctx context.Context, txnID id.ID, actorID string) error {
	if err := s.writer.Void(ctx, txnID); err != nil {
		return err
	}

	s.recordAudit(ctx, "inventory:void", txnID.String(), actorID, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action, entityID, actorID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entityID, actorID, meta); err != nil {
		logger.Warn(ctx, "audit record failed", "action", action, "error", err)
	}
}
