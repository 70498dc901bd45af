package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/batches"
	"stockledger/internal/infrastructure/storage/postgres"
)

const batchesTable = "inv_batches"

// BatchRepo implements batches.Repository.
type BatchRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txm *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert inserts or refreshes a batch by its (product_id, batch_no) natural
// key and returns the row id. The unique constraint makes concurrent
// identical calls converge on one row: the loser of the insert race lands in
// the DO UPDATE arm.
func (r *BatchRepo) Upsert(ctx context.Context, input batches.UpsertInput) (id.ID, error) {
	sql := `
		INSERT INTO inv_batches (id, product_id, batch_no, mfg_date, exp_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (product_id, batch_no) DO UPDATE SET
			mfg_date = EXCLUDED.mfg_date,
			exp_date = EXCLUDED.exp_date,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id
	`

	var batchID id.ID
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql,
		id.New(), input.ProductID, input.BatchNo, input.MfgDate, input.ExpDate, input.Notes,
	).Scan(&batchID)
	if err != nil {
		return id.Nil(), postgres.MapError(fmt.Errorf("upsert batch: %w", err))
	}

	return batchID, nil
}

// GetByID retrieves a batch.
func (r *BatchRepo) GetByID(ctx context.Context, batchID id.ID) (batches.Batch, error) {
	var batch batches.Batch

	q := r.builder.Select(
		"id", "product_id", "batch_no", "mfg_date", "exp_date", "notes",
		"created_at", "updated_at",
	).From(batchesTable).
		Where(squirrel.Eq{"id": batchID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return batch, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &batch, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return batch, apperror.NewNotFound("batch", batchID.String())
		}
		return batch, fmt.Errorf("get batch: %w", err)
	}

	return batch, nil
}

// List retrieves batches with filtering, oldest first.
func (r *BatchRepo) List(ctx context.Context, filter batches.ListFilter) ([]batches.Batch, error) {
	q := r.builder.Select(
		"id", "product_id", "batch_no", "mfg_date", "exp_date", "notes",
		"created_at", "updated_at",
	).From(batchesTable)

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.BatchNo != nil {
		q = q.Where(squirrel.Eq{"batch_no": *filter.BatchNo})
	}

	q = q.OrderBy("created_at", "id")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []batches.Batch
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &result, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}

	return result, nil
}

// Ensure interface compliance.
var _ batches.Repository = (*BatchRepo)(nil)
