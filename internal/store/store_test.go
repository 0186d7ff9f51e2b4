package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/practicer/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "practicer.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func testRun(setID int, ended time.Time, segments int) model.RunRecord {
	run := model.RunRecord{
		StartedAt:   ended.Add(-time.Second),
		EndedAt:     ended,
		SetID:       setID,
		SourceEntry: "A - B (m) [Hard].osu",
		Title:       "B",
		Params:      model.GenerationParams{ComboIncrement: 200, LeadIn: model.LeadInSlider, Volume: 40},
		OutputPath:  "/tmp/out.osz",
		OutputBytes: 4096,
	}
	for i := 0; i < segments; i++ {
		run.Segments = append(run.Segments, model.SegmentRecord{
			Entry:      "entry",
			Version:    "Hard",
			Start:      i * 200,
			End:        (i + 1) * 200,
			StartCombo: 100,
			Approach:   9.3,
			EventCount: 10 + i,
		})
	}
	return run
}

func TestInsertAndListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := s.InsertRun(ctx, testRun(1, base, 2))
	if err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	if first == uuid.Nil {
		t.Fatalf("expected generated id")
	}
	second, err := s.InsertRun(ctx, testRun(2, base.Add(time.Hour), 1))
	if err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	runs, err := s.ListRuns(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second || runs[1].ID != first {
		t.Fatalf("expected newest first, got %+v", runs)
	}
	if runs[1].Params.LeadIn != model.LeadInSlider || runs[1].Params.ComboIncrement != 200 {
		t.Fatalf("unexpected params %+v", runs[1].Params)
	}
	if !runs[1].EndedAt.Equal(base) {
		t.Fatalf("unexpected ended_at %v", runs[1].EndedAt)
	}

	runs, err = s.ListRuns(ctx, 1, 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one run, got %d (%v)", len(runs), err)
	}
	runs, err = s.ListRuns(ctx, 0, 1)
	if err != nil || len(runs) != 1 || runs[0].ID != first {
		t.Fatalf("expected run for set 1, got %+v (%v)", runs, err)
	}
}

func TestListSegmentsForRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	run := testRun(7, time.Now().UTC(), 3)
	run.ID = uuid.New()

	id, err := s.InsertRun(ctx, run)
	if err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	if id != run.ID {
		t.Fatalf("expected provided id to be kept")
	}

	segs, err := s.ListSegmentsForRuns(ctx, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("ListSegmentsForRuns failed: %v", err)
	}
	got := segs[id]
	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(got))
	}
	for i, seg := range got {
		if seg.Start != i*200 || seg.EventCount != 10+i {
			t.Fatalf("segment %d out of order: %+v", i, seg)
		}
	}

	empty, err := s.ListSegmentsForRuns(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result, got %v (%v)", empty, err)
	}
}

func TestInsertRunDuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	run := testRun(1, time.Now().UTC(), 1)
	run.ID = uuid.New()

	if _, err := s.InsertRun(ctx, run); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}
	if _, err := s.InsertRun(ctx, run); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}
	segs, err := s.ListSegmentsForRuns(ctx, []uuid.UUID{run.ID})
	if err != nil {
		t.Fatalf("ListSegmentsForRuns failed: %v", err)
	}
	if len(segs[run.ID]) != 1 {
		t.Fatalf("failed insert must not add segments, got %d", len(segs[run.ID]))
	}
}
