package transcode

import (
	"sync"

	"github.com/verte-zerg/practicer/internal/practice"
)

// Stage is a coarse step of a run.
type Stage string

const (
	StageIdle     Stage = "idle"
	StageFetching Stage = "fetching"
	StageCreating Stage = "creating"
	StageSegment  Stage = "segment"
	StageWarning  Stage = "warning"
	StageDone     Stage = "done"
)

// ProgressEvent describes one step of a run. Segment is set for StageSegment.
type ProgressEvent struct {
	Stage   Stage
	Message string
	Done    int
	Total   int
	Segment *SegmentInfo
}

// ProgressCallback receives the events of one run. Calls are serialized.
type ProgressCallback func(ProgressEvent)

// SegmentInfo describes one generated difficulty.
type SegmentInfo struct {
	Entry      string
	Version    string
	Window     practice.Window
	StartCombo int
	Approach   float64
	Events     int
	Primer     int
}

type reporter struct {
	mu   sync.Mutex
	fn   ProgressCallback
	done int
}

func newReporter(fn ProgressCallback) *reporter {
	return &reporter{fn: fn}
}

func (r *reporter) emit(ev ProgressEvent) {
	if r.fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fn(ev)
}

// segment counts a finished segment and reports it.
func (r *reporter) segment(info SegmentInfo, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
	if r.fn == nil {
		return
	}
	r.fn(ProgressEvent{Stage: StageSegment, Message: info.Version, Done: r.done, Total: total, Segment: &info})
}
