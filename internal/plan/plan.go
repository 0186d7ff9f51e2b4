// Package plan reads generation plans from JSON files and --set flags.
package plan

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/verte-zerg/practicer/internal/model"
)

//go:embed plan.schema.json
var schemaJSON string

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// Plan is a full generation request. Unset params stay zero so that flags and
// config can fill them in.
type Plan struct {
	Params   model.GenerationParams
	Requests []model.SegmentRequest
	// Set reports which params the file provided.
	Set struct {
		ComboIncrement bool
		LeadIn         bool
		Volume         bool
	}
}

type fileSet struct {
	Approach   *float64 `json:"approach"`
	StartCombo int      `json:"start_combo"`
	Extent     string   `json:"extent"`
}

type file struct {
	ComboIncrement *int      `json:"combo_increment"`
	LeadIn         *string   `json:"lead_in"`
	Volume         *int      `json:"volume"`
	Sets           []fileSet `json:"sets"`
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the plan schema and decodes it.
func Parse(data []byte) (*Plan, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &model.ConfigError{Field: "plan", Message: err.Error()}
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return nil, &model.ConfigError{Field: first.Field(), Message: first.Description()}
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &model.ConfigError{Field: "plan", Message: err.Error()}
	}

	p := &Plan{}
	if f.ComboIncrement != nil {
		p.Params.ComboIncrement = *f.ComboIncrement
		p.Set.ComboIncrement = true
	}
	if f.LeadIn != nil {
		p.Params.LeadIn = model.LeadIn(*f.LeadIn)
		p.Set.LeadIn = true
	}
	if f.Volume != nil {
		p.Params.Volume = *f.Volume
		p.Set.Volume = true
	}
	for _, s := range f.Sets {
		extent := model.Extent(s.Extent)
		if extent == "" {
			extent = model.ExtentNext
		}
		p.Requests = append(p.Requests, model.SegmentRequest{Approach: s.Approach, StartCombo: s.StartCombo, Extent: extent})
	}
	return p, nil
}

// ParseSet parses a --set value such as "ar=9.3,combo=200,extent=next".
// Missing keys keep the chart's approach, start at combo 0 and extend to the next boundary.
func ParseSet(set string) (model.SegmentRequest, error) {
	req := model.SegmentRequest{Extent: model.ExtentNext}
	for _, part := range strings.Split(set, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return req, &model.ConfigError{Field: "set", Message: fmt.Sprintf("expected key=value, got %q", part)}
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "ar", "approach":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return req, &model.ConfigError{Field: "set.ar", Message: fmt.Sprintf("invalid number %q", value)}
			}
			req.Approach = &v
		case "combo", "start":
			v, err := strconv.Atoi(value)
			if err != nil {
				return req, &model.ConfigError{Field: "set.combo", Message: fmt.Sprintf("invalid integer %q", value)}
			}
			req.StartCombo = v
		case "extent":
			req.Extent = model.Extent(strings.ToLower(value))
		default:
			return req, &model.ConfigError{Field: "set", Message: fmt.Sprintf("unknown key %q", key)}
		}
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}
