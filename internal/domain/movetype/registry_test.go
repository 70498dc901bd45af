package movetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
)

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistryFromTypes(Builtin())

	mt, err := reg.LookupByCode(CodeRegularIn)
	require.NoError(t, err)
	assert.Equal(t, int32(1), mt.ID)
	assert.True(t, mt.IsInbound())
	assert.False(t, mt.IsTransit())

	mt, err = reg.LookupByID(4)
	require.NoError(t, err)
	assert.Equal(t, CodeTransitOut, mt.Code)
	assert.True(t, mt.IsTransit())
	assert.False(t, mt.IsInbound())
}

func TestRegistryLookup_Unknown(t *testing.T) {
	reg := NewRegistryFromTypes(Builtin())

	_, err := reg.LookupByCode("ADJUSTMENT")
	assert.True(t, apperror.IsNotFound(err))

	_, err = reg.LookupByID(99)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRegistryLookup_Inactive(t *testing.T) {
	all := Builtin()
	for i := range all {
		if all[i].Code == CodeDiscard {
			all[i].Active = false
		}
	}
	reg := NewRegistryFromTypes(all)

	_, err := reg.LookupByCode(CodeDiscard)
	assert.True(t, apperror.IsNotFound(err))

	active := reg.ListActive()
	assert.Len(t, active, 4)
	for _, mt := range active {
		assert.NotEqual(t, CodeDiscard, mt.Code)
	}
}

func TestBuiltinSemantics(t *testing.T) {
	byCode := make(map[Code]MovementType)
	for _, mt := range Builtin() {
		byCode[mt.Code] = mt
	}

	assert.Equal(t, DirectionIn, byCode[CodeRegularIn].Direction)
	assert.Equal(t, DirectionOut, byCode[CodeRegularOut].Direction)
	assert.Equal(t, ClassTransit, byCode[CodeTransitIn].Class)
	assert.Equal(t, ClassTransit, byCode[CodeTransitOut].Class)

	// Discard drains stock like an issue, labelled separately for reporting.
	assert.Equal(t, DirectionOut, byCode[CodeDiscard].Direction)
	assert.Equal(t, ClassDiscard, byCode[CodeDiscard].Class)
}
