package ledger

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/movetype"
	"stockledger/pkg/logger"
)

// Writer appends ledger rows. Pure append: it never mutates quantities and
// holds no locks of its own — the movement engine calls it inside the same
// transaction that updates the stock position.
type Writer struct {
	repo     Repository
	registry *movetype.Registry
}

// NewWriter creates a ledger writer.
func NewWriter(repo Repository, registry *movetype.Registry) *Writer {
	return &Writer{repo: repo, registry: registry}
}

// Record validates input, derives amounts and appends the row.
// Returns the new transaction id.
func (w *Writer) Record(ctx context.Context, input Input, code movetype.Code) (id.ID, error) {
	mt, err := w.registry.LookupByCode(code)
	if err != nil {
		return id.Nil(), err
	}

	txn, err := NewTransaction(input, mt, time.Now().UTC())
	if err != nil {
		return id.Nil(), err
	}

	if err := w.repo.Insert(ctx, txn); err != nil {
		return id.Nil(), fmt.Errorf("insert transaction: %w", err)
	}

	return txn.ID, nil
}

// RecordAll validates and appends several rows sharing one movement code,
// returning the new ids in input order. Inside a transaction the repository
// uses the COPY protocol, which keeps multi-line movements cheap.
func (w *Writer) RecordAll(ctx context.Context, inputs []Input, code movetype.Code) ([]id.ID, error) {
	mt, err := w.registry.LookupByCode(code)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txns := make([]Transaction, 0, len(inputs))
	ids := make([]id.ID, 0, len(inputs))
	for _, input := range inputs {
		txn, err := NewTransaction(input, mt, now)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
		ids = append(ids, txn.ID)
	}

	if err := w.repo.InsertMany(ctx, txns); err != nil {
		return nil, fmt.Errorf("insert transactions: %w", err)
	}

	return ids, nil
}

// Void flips the soft-void flag on a transaction. Display/audit only: the
// position's qty_on_hand is untouched, a reversal needs a compensating
// movement.
func (w *Writer) Void(ctx context.Context, txnID id.ID) error {
	if err := w.repo.SetVoided(ctx, txnID, true); err != nil {
		return err
	}

	logger.Info(ctx, "transaction voided", "txn_id", txnID)
	return nil
}

// GetByID retrieves one ledger row.
func (w *Writer) GetByID(ctx context.Context, txnID id.ID) (Transaction, error) {
	return w.repo.GetByID(ctx, txnID)
}
