// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/google/uuid"
)

// LeadIn selects how lead-in combo is built.
type LeadIn string

const (
	// LeadInSpinners emits one zero-length spinner per combo.
	LeadInSpinners LeadIn = "spinners"
	// LeadInSlider emits a single slider that reverses until the combo is reached.
	LeadInSlider LeadIn = "slider"
)

// Extent selects where a practice segment ends.
type Extent string

const (
	// ExtentNext ends a segment at the next combo boundary.
	ExtentNext Extent = "next"
	// ExtentEnd runs a segment to the end of the chart.
	ExtentEnd Extent = "end"
)

// GenerationParams apply to every segment of a run.
type GenerationParams struct {
	ComboIncrement int    `json:"combo_increment" validate:"required,min=1"`
	LeadIn         LeadIn `json:"lead_in" validate:"required,oneof=spinners slider"`
	Volume         int    `json:"volume" validate:"min=0,max=100"`
}

// SegmentRequest is one requested family of segments. A nil Approach keeps
// the chart's own approach rate.
type SegmentRequest struct {
	Approach   *float64 `json:"approach,omitempty" validate:"omitempty,min=0,max=11"`
	StartCombo int      `json:"start_combo" validate:"min=0"`
	Extent     Extent   `json:"extent" validate:"required,oneof=next end"`
}

// Beatmap is mirror metadata for one difficulty.
type Beatmap struct {
	OsuFile      string
	BeatmapID    int
	SetID        int
	MaxCombo     int
	ApproachRate float64
}

// RunRecord is a completed generation run.
type RunRecord struct {
	ID          uuid.UUID
	StartedAt   time.Time
	EndedAt     time.Time
	SetID       int
	SourceEntry string
	Title       string
	Params      GenerationParams
	OutputPath  string
	OutputBytes int64
	Segments    []SegmentRecord
}

// SegmentRecord is one generated difficulty of a run.
type SegmentRecord struct {
	Entry       string
	Version     string
	Start       int
	End         int
	StartCombo  int
	Approach    float64
	EventCount  int
	PrimerCount int
}
