package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  GenerationParams
		wantErr bool
		field   string
	}{
		{
			name:   "valid",
			params: GenerationParams{ComboIncrement: 200, LeadIn: LeadInSpinners, Volume: 50},
		},
		{
			name:    "zero increment",
			params:  GenerationParams{ComboIncrement: 0, LeadIn: LeadInSlider, Volume: 50},
			wantErr: true,
			field:   "ComboIncrement",
		},
		{
			name:    "unknown lead-in",
			params:  GenerationParams{ComboIncrement: 10, LeadIn: "circles", Volume: 50},
			wantErr: true,
			field:   "LeadIn",
		},
		{
			name:    "volume too loud",
			params:  GenerationParams{ComboIncrement: 10, LeadIn: LeadInSlider, Volume: 101},
			wantErr: true,
			field:   "Volume",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestValidateRequests(t *testing.T) {
	ar := 9.3
	tooHigh := 12.0

	assert.NoError(t, ValidateRequests([]SegmentRequest{
		{Approach: &ar, StartCombo: 200, Extent: ExtentNext},
		{StartCombo: 0, Extent: ExtentEnd},
	}))

	var cerr *ConfigError
	err := ValidateRequests(nil)
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "sets", cerr.Field)

	err = ValidateRequests([]SegmentRequest{
		{StartCombo: 0, Extent: ExtentEnd},
		{Approach: &tooHigh, StartCombo: 0, Extent: ExtentEnd},
	})
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "sets[1].Approach", cerr.Field)
	assert.Contains(t, cerr.Error(), "at most 11")

	err = ValidateRequests([]SegmentRequest{{StartCombo: -1, Extent: ExtentNext}})
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "sets[0].StartCombo", cerr.Field)
}
