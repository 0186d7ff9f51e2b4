package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/practicer/internal/practice"
	"github.com/verte-zerg/practicer/internal/transcode"
)

func TestRenderStatusFormats(t *testing.T) {
	m := NewModel("Song [Hard]", nil)
	m.Update(progressMsg{Stage: transcode.StageFetching, Message: "set 874"})
	if out := m.renderStatus(); !containsAll(out, []string{"Downloading", "set 874"}) {
		t.Fatalf("unexpected status: %s", out)
	}

	info := transcode.SegmentInfo{Entry: "A [Hard 0-200 0x].osu", Window: practice.Window{Start: 0, End: 200}}
	m.Update(progressMsg{Stage: transcode.StageSegment, Done: 3, Total: 8, Segment: &info})
	if out := m.renderStatus(); !containsAll(out, []string{"Writing segments", "3/8"}) {
		t.Fatalf("unexpected status: %s", out)
	}
	if view := m.View(); !containsAll(view, []string{"Song [Hard]", "A [Hard 0-200 0x].osu"}) {
		t.Fatalf("view missing expected lines: %s", view)
	}
}

func TestWarningsAreKept(t *testing.T) {
	m := NewModel("x", nil)
	m.Update(progressMsg{Stage: transcode.StageCreating, Message: "a.osu"})
	m.Update(progressMsg{Stage: transcode.StageWarning, Message: "no hit objects start in combo 4-8, skipped"})
	if m.stage != transcode.StageCreating {
		t.Fatalf("warning must not change the stage, got %s", m.stage)
	}
	if !strings.Contains(m.View(), "combo 4-8") {
		t.Fatalf("expected warning in view")
	}
}

func TestRecentEntriesBounded(t *testing.T) {
	m := NewModel("x", nil)
	for i := 0; i < recentEntries+3; i++ {
		info := transcode.SegmentInfo{Entry: strings.Repeat("e", i+1)}
		m.Update(progressMsg{Stage: transcode.StageSegment, Done: i + 1, Total: 10, Segment: &info})
	}
	if len(m.recent) != recentEntries {
		t.Fatalf("expected %d recent entries, got %d", recentEntries, len(m.recent))
	}
}

func TestCancelKey(t *testing.T) {
	canceled := false
	m := NewModel("x", func() { canceled = true })
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !canceled || !m.canceled {
		t.Fatalf("expected ctrl+c to cancel the run")
	}
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
}

func TestDoneQuits(t *testing.T) {
	m := NewModel("x", nil)
	_, cmd := m.Update(doneMsg{})
	if !m.finished || cmd == nil {
		t.Fatalf("expected done to finish the view")
	}
	if m.View() != "" {
		t.Fatalf("expected empty view after finishing")
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
