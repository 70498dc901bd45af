package movetype

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
)

// Repository loads movement types from the reference table.
type Repository interface {
	ListAll(ctx context.Context) ([]MovementType, error)
}

// Registry is an in-memory lookup over the movement type reference table.
// Hydrated once at startup; the table is read-only at runtime.
type Registry struct {
	byID   map[int32]MovementType
	byCode map[Code]MovementType
	all    []MovementType
}

// NewRegistry loads all movement types through repo.
func NewRegistry(ctx context.Context, repo Repository) (*Registry, error) {
	all, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load movement types: %w", err)
	}
	return NewRegistryFromTypes(all), nil
}

// NewRegistryFromTypes builds a registry from a known set.
// Used by tests and by callers that seed Builtin() themselves.
func NewRegistryFromTypes(all []MovementType) *Registry {
	r := &Registry{
		byID:   make(map[int32]MovementType, len(all)),
		byCode: make(map[Code]MovementType, len(all)),
		all:    make([]MovementType, 0, len(all)),
	}
	for _, mt := range all {
		r.byID[mt.ID] = mt
		r.byCode[mt.Code] = mt
		r.all = append(r.all, mt)
	}
	return r
}

// LookupByCode returns the movement type for code.
func (r *Registry) LookupByCode(code Code) (MovementType, error) {
	mt, ok := r.byCode[code]
	if !ok || !mt.Active {
		return MovementType{}, apperror.NewNotFound("movement type", string(code))
	}
	return mt, nil
}

// LookupByID returns the movement type for id.
func (r *Registry) LookupByID(id int32) (MovementType, error) {
	mt, ok := r.byID[id]
	if !ok || !mt.Active {
		return MovementType{}, apperror.NewNotFound("movement type", id)
	}
	return mt, nil
}

// ListActive returns all active movement types.
func (r *Registry) ListActive() []MovementType {
	active := make([]MovementType, 0, len(r.all))
	for _, mt := range r.all {
		if mt.Active {
			active = append(active, mt)
		}
	}
	return active
}
