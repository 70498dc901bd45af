// Package inventory_repo provides PostgreSQL implementations for the
// inventory engine repositories.
package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/domain/movetype"
	"stockledger/internal/infrastructure/storage/postgres"
)

const movementTypesTable = "inv_movement_types"

// MovementTypeRepo implements movetype.Repository.
type MovementTypeRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMovementTypeRepo creates a new movement type repository.
func NewMovementTypeRepo(txm *postgres.TxManager) *MovementTypeRepo {
	return &MovementTypeRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListAll retrieves the whole reference table.
func (r *MovementTypeRepo) ListAll(ctx context.Context) ([]movetype.MovementType, error) {
	q := r.builder.Select("id", "code", "direction", "class", "active").
		From(movementTypesTable).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var all []movetype.MovementType
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &all, sql, args...); err != nil {
		return nil, fmt.Errorf("select movement types: %w", err)
	}

	return all, nil
}

// Seed inserts the builtin movement type set, skipping rows that already
// exist. Called once at setup time.
func (r *MovementTypeRepo) Seed(ctx context.Context, all []movetype.MovementType) error {
	q := r.builder.Insert(movementTypesTable).
		Columns("id", "code", "direction", "class", "active")

	for _, mt := range all {
		q = q.Values(mt.ID, string(mt.Code), string(mt.Direction), string(mt.Class), mt.Active)
	}

	sql, args, err := q.Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("seed movement types: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ movetype.Repository = (*MovementTypeRepo)(nil)
