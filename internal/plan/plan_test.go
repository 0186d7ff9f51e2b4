package plan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/practicer/internal/model"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	body := `{"combo_increment":150,"lead_in":"slider","sets":[{"approach":9.3,"start_combo":200,"extent":"end"},{"start_combo":0}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 150, p.Params.ComboIncrement)
	assert.Equal(t, model.LeadInSlider, p.Params.LeadIn)
	assert.True(t, p.Set.ComboIncrement)
	assert.True(t, p.Set.LeadIn)
	assert.False(t, p.Set.Volume)

	require.Len(t, p.Requests, 2)
	require.NotNil(t, p.Requests[0].Approach)
	assert.Equal(t, 9.3, *p.Requests[0].Approach)
	assert.Equal(t, model.ExtentEnd, p.Requests[0].Extent)
	assert.Nil(t, p.Requests[1].Approach)
	assert.Equal(t, model.ExtentNext, p.Requests[1].Extent)
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no sets", `{"combo_increment":100}`},
		{"empty sets", `{"sets":[]}`},
		{"bad lead-in", `{"lead_in":"circles","sets":[{"start_combo":0}]}`},
		{"negative combo", `{"sets":[{"start_combo":-1}]}`},
		{"unknown field", `{"sets":[{"start_combo":0,"speed":2}]}`},
		{"loud", `{"volume":200,"sets":[{"start_combo":0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			var cerr *model.ConfigError
			assert.True(t, errors.As(err, &cerr), "got %v", err)
		})
	}
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"sets":`))
	var cerr *model.ConfigError
	assert.True(t, errors.As(err, &cerr))
}

func TestParseSet(t *testing.T) {
	req, err := ParseSet("ar=9.3, combo=200 ,extent=END")
	require.NoError(t, err)
	require.NotNil(t, req.Approach)
	assert.Equal(t, 9.3, *req.Approach)
	assert.Equal(t, 200, req.StartCombo)
	assert.Equal(t, model.ExtentEnd, req.Extent)

	req, err = ParseSet("")
	require.NoError(t, err)
	assert.Nil(t, req.Approach)
	assert.Equal(t, model.ExtentNext, req.Extent)
}

func TestParseSetErrors(t *testing.T) {
	for _, set := range []string{"ar=fast", "combo=1.5", "extent=forever", "speed=2", "ar", "ar=20"} {
		_, err := ParseSet(set)
		var cerr *model.ConfigError
		assert.True(t, errors.As(err, &cerr), set)
	}
}
