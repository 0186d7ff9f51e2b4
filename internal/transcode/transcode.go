// Package transcode turns one chart of a beatmap set into practice segments.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/practicer/internal/chart"
	"github.com/verte-zerg/practicer/internal/model"
	"github.com/verte-zerg/practicer/internal/osz"
	"github.com/verte-zerg/practicer/internal/practice"
)

// defaultApproach is used when a chart sets neither approach rate nor overall difficulty.
const defaultApproach = 5.0

// Source names the chart to transcode inside an archive.
type Source struct {
	EntryName string
	// SetID names the output archive. Zero falls back to the chart's BeatmapSetID.
	SetID int
}

// Options tune a run.
type Options struct {
	Progress ProgressCallback
	// Workers bounds parallel segment rendering. Zero means one per CPU.
	Workers int
}

// Result is a finished run.
type Result struct {
	Archive  []byte
	Filename string
	Title    string
	SetID    int
	Cached   bool
	Segments []SegmentInfo
	Warnings []string
}

type job struct {
	request  model.SegmentRequest
	window   practice.Window
	selected []chart.Event
}

type rendered struct {
	info SegmentInfo
	text string
}

// Run generates every requested segment of source and returns the new archive.
// Requests are assumed valid. Either every segment is produced or an error is returned.
func Run(ctx context.Context, archive []byte, source Source, params model.GenerationParams, requests []model.SegmentRequest, opts Options) (*Result, error) {
	rep := newReporter(opts.Progress)
	res, err := run(ctx, archive, source, params, requests, opts, rep)
	if err != nil {
		rep.emit(ProgressEvent{Stage: StageIdle, Message: err.Error()})
		return nil, err
	}
	rep.emit(ProgressEvent{Stage: StageDone, Message: res.Filename, Done: len(res.Segments), Total: len(res.Segments)})
	return res, nil
}

func run(ctx context.Context, archive []byte, source Source, params model.GenerationParams, requests []model.SegmentRequest, opts Options, rep *reporter) (*Result, error) {
	rep.emit(ProgressEvent{Stage: StageCreating, Message: source.EntryName})

	arc, err := osz.Open(archive)
	if err != nil {
		return nil, err
	}
	doc, err := loadChart(arc, source.EntryName)
	if err != nil {
		return nil, err
	}
	events := doc.Events()
	if len(events) == 0 {
		return nil, &chart.FormatError{Entry: source.EntryName, Message: "chart has no hit objects"}
	}

	maxCombo := doc.MaxCombo()
	approach := doc.Float(chart.SectionDifficulty, "ApproachRate",
		doc.Float(chart.SectionDifficulty, "OverallDifficulty", defaultApproach))
	name := doc.Get(chart.SectionMetadata, "Version")

	res := &Result{Title: doc.Get(chart.SectionMetadata, "Title"), SetID: source.SetID}
	if res.SetID == 0 {
		res.SetID = int(doc.Float(chart.SectionMetadata, "BeatmapSetID", 0))
	}

	var jobs []job
	for _, req := range requests {
		for _, w := range practice.Windows(maxCombo, params.ComboIncrement, req.Extent) {
			selected := practice.SelectEvents(events, w.Start, w.End)
			if len(selected) == 0 {
				msg := fmt.Sprintf("no hit objects start in combo %d-%d, skipped", w.Start, w.End)
				res.Warnings = append(res.Warnings, msg)
				rep.emit(ProgressEvent{Stage: StageWarning, Message: msg})
				continue
			}
			jobs = append(jobs, job{request: req, window: w, selected: selected})
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]rendered, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = render(doc, source.EntryName, name, approach, params, j)
			rep.segment(results[i].info, len(jobs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, r := range results {
		if arc.AddEntry(r.info.Entry, []byte(r.text)) {
			msg := fmt.Sprintf("%s was generated more than once, keeping the last", r.info.Entry)
			res.Warnings = append(res.Warnings, msg)
			rep.emit(ProgressEvent{Stage: StageWarning, Message: msg})
		}
		res.Segments = append(res.Segments, r.info)
	}

	res.Archive, err = arc.Bytes()
	if err != nil {
		return nil, err
	}
	res.Filename = osz.OutputFilename(res.SetID, res.Title)
	return res, nil
}

func loadChart(arc *osz.Archive, entryName string) (*chart.Document, error) {
	body, ok := arc.Entry(entryName)
	if !ok {
		return nil, &chart.FormatError{Entry: entryName, Message: "entry not found in archive"}
	}
	text, err := chart.Decode(body)
	if err != nil {
		return nil, &chart.FormatError{Entry: entryName, Message: err.Error()}
	}
	doc, err := chart.Parse(text)
	if err != nil {
		var fe *chart.FormatError
		if errors.As(err, &fe) {
			fe.Entry = entryName
		}
		return nil, err
	}
	return doc, nil
}

func render(doc *chart.Document, entryName, name string, approach float64, params model.GenerationParams, j job) rendered {
	target := approach
	if j.request.Approach != nil {
		target = *j.request.Approach
	}
	version := SegmentVersion(name, j.window, j.request.StartCombo, approach, target)

	primer := practice.Generate(params.LeadIn, j.request.StartCombo, params.Volume, j.selected[0])
	stream := make([]chart.Event, 0, len(primer)+len(j.selected))
	stream = append(stream, primer...)
	stream = append(stream, j.selected...)

	clone := doc.Clone()
	clone.SetValue(chart.SectionMetadata, "Version", chart.Text(version))
	clone.SetValue(chart.SectionMetadata, "BeatmapID", chart.Number(0))
	clone.SetValue(chart.SectionDifficulty, "ApproachRate", chart.Number(target))

	return rendered{
		info: SegmentInfo{
			Entry:      osz.DifficultyFilename(entryName, version),
			Version:    version,
			Window:     j.window,
			StartCombo: j.request.StartCombo,
			Approach:   target,
			Events:     len(j.selected),
			Primer:     len(primer),
		},
		text: chart.Serialize(clone, stream),
	}
}

// SegmentVersion names a practice difficulty, e.g. "Hard 200-400 200x AR9.5".
func SegmentVersion(name string, w practice.Window, startCombo int, original, approach float64) string {
	version := fmt.Sprintf("%s %d-%d %dx", name, w.Start, w.End, startCombo)
	if approach != original {
		version += " AR" + strconv.FormatFloat(approach, 'f', -1, 64)
	}
	return version
}
