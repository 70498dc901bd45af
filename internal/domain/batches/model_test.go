package batches

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockledger/internal/core/id"
)

func TestUpsertInputValidate(t *testing.T) {
	mfg := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	expOK := mfg.AddDate(1, 0, 0)
	expBad := mfg.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		input   UpsertInput
		wantErr bool
	}{
		{
			name:  "valid with dates",
			input: UpsertInput{ProductID: id.New(), BatchNo: "LOT-001", MfgDate: &mfg, ExpDate: &expOK},
		},
		{
			name:  "valid without dates",
			input: UpsertInput{ProductID: id.New(), BatchNo: "LOT-002"},
		},
		{
			name:  "expiry equal to manufacture is allowed",
			input: UpsertInput{ProductID: id.New(), BatchNo: "LOT-003", MfgDate: &mfg, ExpDate: &mfg},
		},
		{
			name:    "missing product",
			input:   UpsertInput{BatchNo: "LOT-004"},
			wantErr: true,
		},
		{
			name:    "blank batch number",
			input:   UpsertInput{ProductID: id.New(), BatchNo: "   "},
			wantErr: true,
		},
		{
			name:    "expiry before manufacture",
			input:   UpsertInput{ProductID: id.New(), BatchNo: "LOT-005", MfgDate: &mfg, ExpDate: &expBad},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
