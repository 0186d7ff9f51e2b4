package transcode

import (
	"context"
	"fmt"

	"github.com/verte-zerg/practicer/internal/model"
)

// Fetcher downloads beatmap set archives.
type Fetcher interface {
	Download(ctx context.Context, setID int) (data []byte, cached bool, err error)
}

// Transcoder runs generation for beatmaps fetched from a mirror.
type Transcoder struct {
	fetcher Fetcher
	opts    Options
}

// New returns a Transcoder using f for downloads.
func New(f Fetcher, opts Options) *Transcoder {
	return &Transcoder{fetcher: f, opts: opts}
}

// Generate downloads the set of bm and runs every request against its chart.
// A failed download aborts the run with no output.
func (t *Transcoder) Generate(ctx context.Context, bm model.Beatmap, params model.GenerationParams, requests []model.SegmentRequest) (*Result, error) {
	rep := newReporter(t.opts.Progress)
	rep.emit(ProgressEvent{Stage: StageFetching, Message: fmt.Sprintf("set %d", bm.SetID)})

	data, cached, err := t.fetcher.Download(ctx, bm.SetID)
	if err != nil {
		rep.emit(ProgressEvent{Stage: StageIdle, Message: err.Error()})
		return nil, fmt.Errorf("failed to download set %d: %w", bm.SetID, err)
	}

	res, err := Run(ctx, data, Source{EntryName: bm.OsuFile, SetID: bm.SetID}, params, requests, t.opts)
	if err != nil {
		return nil, err
	}
	res.Cached = cached
	return res, nil
}
