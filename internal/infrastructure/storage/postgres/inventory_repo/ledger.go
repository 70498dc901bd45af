package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
)

const transactionsTable = "inv_transactions"

var transactionColumns = []string{
	"id", "txn_date", "movement_type_id", "txn_type",
	"source_type", "source_id", "source_line_id",
	"product_id", "warehouse_id", "batch_id",
	"qty", "unit_cost", "amount",
	"currency_id", "exchange_rate", "foreign_amount", "total_amount",
	"uom_id", "is_deleted", "created_at",
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func transactionRow(txn ledger.Transaction) []any {
	return []any{
		txn.ID, txn.TxnDate, txn.MovementTypeID, txn.TxnType,
		txn.SourceType, txn.SourceID, txn.SourceLineID,
		txn.ProductID, txn.WarehouseID, txn.BatchID,
		txn.Qty, txn.UnitCost, txn.Amount,
		txn.CurrencyID, txn.ExchangeRate, txn.ForeignAmount, txn.TotalAmount,
		txn.UomID, txn.IsDeleted, txn.CreatedAt,
	}
}

// Insert appends one ledger row.
func (r *LedgerRepo) Insert(ctx context.Context, txn ledger.Transaction) error {
	q := r.builder.Insert(transactionsTable).
		Columns(transactionColumns...).
		Values(transactionRow(txn)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert transaction: %w", err))
	}

	return nil
}

// InsertMany appends several rows.
// Fast path: COPY when inside a transaction.
func (r *LedgerRepo) InsertMany(ctx context.Context, txns []ledger.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(txns))
		for _, txn := range txns {
			rows = append(rows, transactionRow(txn))
		}
		if _, err := inserter.CopyFromSlice(ctx, transactionsTable, transactionColumns, rows); err != nil {
			return postgres.MapError(fmt.Errorf("copy transactions: %w", err))
		}
		return nil
	}

	// Fallback: row-at-a-time insert. Prefer calling InsertMany within tx.
	for _, txn := range txns {
		if err := r.Insert(ctx, txn); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves one ledger row.
func (r *LedgerRepo) GetByID(ctx context.Context, txnID id.ID) (ledger.Transaction, error) {
	var txn ledger.Transaction

	q := r.builder.Select(transactionColumns...).
		From(transactionsTable).
		Where(squirrel.Eq{"id": txnID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return txn, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &txn, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return txn, apperror.NewNotFound("transaction", txnID.String())
		}
		return txn, fmt.Errorf("get transaction: %w", err)
	}

	return txn, nil
}

// SetVoided flips the soft-void flag. The row itself is immutable otherwise.
func (r *LedgerRepo) SetVoided(ctx context.Context, txnID id.ID, voided bool) error {
	q := r.builder.Update(transactionsTable).
		Set("is_deleted", voided).
		Where(squirrel.Eq{"id": txnID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("void transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("transaction", txnID.String())
	}

	return nil
}

// List returns ledger rows matching filter, newest first.
func (r *LedgerRepo) List(ctx context.Context, filter ledger.Filter) ([]ledger.Transaction, error) {
	cols := make([]string, 0, len(transactionColumns))
	for _, c := range transactionColumns {
		cols = append(cols, "t."+c)
	}

	q := r.builder.Select(cols...).
		From(transactionsTable + " t").
		Join(movementTypesTable + " m ON m.id = t.movement_type_id")

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"t.product_id": *filter.ProductID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"t.warehouse_id": *filter.WarehouseID})
	}
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"t.batch_id": *filter.BatchID})
	}
	if filter.MovementClass != nil {
		q = q.Where(squirrel.Eq{"m.class": string(*filter.MovementClass)})
	}
	if filter.SourceType != nil {
		q = q.Where(squirrel.Eq{"t.source_type": *filter.SourceType})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"t.txn_date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"t.txn_date": *filter.To})
	}
	if !filter.IncludeVoided {
		q = q.Where(squirrel.Eq{"t.is_deleted": false})
	}

	q = q.OrderBy("t.txn_date DESC", "t.created_at DESC")

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

	var txns []ledger.Transaction
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &txns, sql, args...); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}

	return txns, nil
}

// SumTransit sums non-voided TRANSIT-class quantities by direction.
func (r *LedgerRepo) SumTransit(ctx context.Context, productID, warehouseID id.ID, batchID *id.ID) (ledger.TransitTotals, error) {
	sql := `
		SELECT
			COALESCE(SUM(t.qty) FILTER (WHERE m.direction = 'IN'), 0) AS transit_in,
			COALESCE(SUM(t.qty) FILTER (WHERE m.direction = 'OUT'), 0) AS transit_out
		FROM inv_transactions t
		JOIN inv_movement_types m ON m.id = t.movement_type_id
		WHERE t.product_id = $1
		  AND t.warehouse_id = $2
		  AND ($3::uuid IS NULL OR t.batch_id = $3)
		  AND m.class = 'TRANSIT'
		  AND NOT t.is_deleted
	`

	var in, out decimal.Decimal
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, productID, warehouseID, batchID).Scan(&in, &out)
	if err != nil && err != pgx.ErrNoRows {
		return ledger.TransitTotals{}, fmt.Errorf("sum transit: %w", err)
	}

	return ledger.TransitTotals{In: in, Out: out}, nil
}

// SignedSum is the conservation check for one position key: signed sum of
// qty over non-voided position-affecting rows (transit excluded).
func (r *LedgerRepo) SignedSum(ctx context.Context, productID, warehouseID, batchID id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN m.direction = 'IN' THEN t.qty ELSE -t.qty END),
			0
		)
		FROM inv_transactions t
		JOIN inv_movement_types m ON m.id = t.movement_type_id
		WHERE t.product_id = $1
		  AND t.warehouse_id = $2
		  AND t.batch_id = $3
		  AND m.class <> 'TRANSIT'
		  AND NOT t.is_deleted
	`

	var sum decimal.Decimal
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, productID, warehouseID, batchID).Scan(&sum)
	if err != nil && err != pgx.ErrNoRows {
		return types.Zero(), fmt.Errorf("signed sum: %w", err)
	}

	return sum, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*LedgerRepo)(nil)
