package transcode

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/practicer/internal/chart"
	"github.com/verte-zerg/practicer/internal/model"
	"github.com/verte-zerg/practicer/internal/osz"
	"github.com/verte-zerg/practicer/internal/practice"
)

const entryName = "Artist - Song (mapper) [Hard].osu"

const threeCircles = `osu file format v14

[General]
AudioFilename: audio.mp3

[Metadata]
Title:Song
Version:Hard
BeatmapID:77
BeatmapSetID:99

[Difficulty]
OverallDifficulty:8
ApproachRate:9
SliderMultiplier:1.4
SliderTickRate:1

[TimingPoints]
0,500,4,2,0,60,1,0

[HitObjects]
100,100,1000,5,0,0:0:0:0:
200,100,1500,1,0,0:0:0:0:
300,100,2000,1,0,0:0:0:0:
`

func buildArchive(t *testing.T, osu string) []byte {
	t.Helper()
	a := osz.New()
	a.AddEntry("audio.mp3", []byte{0xff, 0xfb})
	a.AddEntry(entryName, []byte(osu))
	data, err := a.Bytes()
	require.NoError(t, err)
	return data
}

func parseEntry(t *testing.T, arc *osz.Archive, name string) *chart.Document {
	t.Helper()
	body, ok := arc.Entry(name)
	require.True(t, ok, name)
	doc, err := chart.Parse(string(body))
	require.NoError(t, err)
	return doc
}

var defaultParams = model.GenerationParams{ComboIncrement: 2, LeadIn: model.LeadInSpinners, Volume: 50}

func TestRunReconstructsChart(t *testing.T) {
	res, err := Run(context.Background(), buildArchive(t, threeCircles), Source{EntryName: entryName}, defaultParams,
		[]model.SegmentRequest{{StartCombo: 0, Extent: model.ExtentEnd}}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Segments, 2)

	arc, err := osz.Open(res.Archive)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"audio.mp3",
		entryName,
		"Artist - Song (mapper) [Hard 0-3 0x].osu",
		"Artist - Song (mapper) [Hard 2-3 0x].osu",
	}, arc.Entries())

	var joined []string
	for _, seg := range res.Segments {
		assert.Zero(t, seg.Primer)
		for _, e := range parseEntry(t, arc, seg.Entry).Events() {
			if len(joined) > 0 && joined[len(joined)-1] == e.Raw {
				continue
			}
			joined = append(joined, e.Raw)
		}
	}
	var want []string
	for _, e := range parseEntry(t, arc, entryName).Events() {
		want = append(want, e.Raw)
	}
	assert.Equal(t, want, joined)

	// The source entry is carried over untouched.
	body, _ := arc.Entry(entryName)
	assert.Equal(t, threeCircles, string(body))
}

func TestRunRewritesMetadata(t *testing.T) {
	ar := 9.5
	res, err := Run(context.Background(), buildArchive(t, threeCircles), Source{EntryName: entryName, SetID: 1234}, defaultParams,
		[]model.SegmentRequest{{Approach: &ar, StartCombo: 5, Extent: model.ExtentNext}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Practicer - 1234 Song.osz", res.Filename)
	require.Len(t, res.Segments, 2)

	seg := res.Segments[0]
	assert.Equal(t, "Hard 0-2 5x AR9.5", seg.Version)
	assert.Equal(t, 5, seg.Primer)
	assert.Equal(t, 3, seg.Events)

	arc, err := osz.Open(res.Archive)
	require.NoError(t, err)
	doc := parseEntry(t, arc, seg.Entry)
	assert.Equal(t, "Hard 0-2 5x AR9.5", doc.Get(chart.SectionMetadata, "Version"))
	assert.Equal(t, 0.0, doc.Float(chart.SectionMetadata, "BeatmapID", -1))
	assert.Equal(t, 9.5, doc.Float(chart.SectionDifficulty, "ApproachRate", 0))

	events := doc.Events()
	require.Len(t, events, 8)
	for _, e := range events[:5] {
		assert.Equal(t, chart.Hold, e.Kind)
		assert.Equal(t, -1000, e.Time)
	}
	assert.Equal(t, 5, events[5].StartCombo)
}

func TestRunKeepsApproachName(t *testing.T) {
	ar := 9.0
	res, err := Run(context.Background(), buildArchive(t, threeCircles), Source{EntryName: entryName}, defaultParams,
		[]model.SegmentRequest{{Approach: &ar, Extent: model.ExtentNext}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hard 0-2 0x", res.Segments[0].Version)
	assert.Equal(t, "Practicer - 99 Song.osz", res.Filename)
}

func TestRunFallsBackToOverallDifficulty(t *testing.T) {
	osu := strings.Replace(threeCircles, "ApproachRate:9\n", "", 1)
	res, err := Run(context.Background(), buildArchive(t, osu), Source{EntryName: entryName}, defaultParams,
		[]model.SegmentRequest{{Extent: model.ExtentNext}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 8.0, res.Segments[0].Approach)

	arc, err := osz.Open(res.Archive)
	require.NoError(t, err)
	doc := parseEntry(t, arc, res.Segments[0].Entry)
	assert.Equal(t, 8.0, doc.Float(chart.SectionDifficulty, "ApproachRate", 0))
}

func TestRunSkipsEmptyWindows(t *testing.T) {
	osu := strings.Replace(threeCircles,
		"200,100,1500,1,0,0:0:0:0:",
		"200,100,1500,2,0,L|300:100,1,1400,0|0,0:0|0:0,0:0:0:0:", 1)
	params := defaultParams
	params.ComboIncrement = 4

	res, err := Run(context.Background(), buildArchive(t, osu), Source{EntryName: entryName}, params,
		[]model.SegmentRequest{{Extent: model.ExtentNext}}, Options{})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "4-8")
	require.Len(t, res.Segments, 3)
	assert.Equal(t, "Hard 12-13 0x", res.Segments[2].Version)
}

func TestRunCollisionLastWins(t *testing.T) {
	var warnings []string
	opts := Options{Progress: func(ev ProgressEvent) {
		if ev.Stage == StageWarning {
			warnings = append(warnings, ev.Message)
		}
	}}
	requests := []model.SegmentRequest{
		{StartCombo: 0, Extent: model.ExtentNext},
		{StartCombo: 0, Extent: model.ExtentNext},
	}
	res, err := Run(context.Background(), buildArchive(t, threeCircles), Source{EntryName: entryName}, defaultParams, requests, opts)
	require.NoError(t, err)
	assert.Len(t, res.Segments, 4)
	assert.Len(t, warnings, 2)
	assert.Equal(t, warnings, res.Warnings)

	arc, err := osz.Open(res.Archive)
	require.NoError(t, err)
	assert.Equal(t, 4, arc.Len())
}

func TestRunProgress(t *testing.T) {
	var stages []Stage
	segments := 0
	opts := Options{Workers: 2, Progress: func(ev ProgressEvent) {
		if ev.Stage == StageSegment {
			segments++
			assert.Equal(t, 2, ev.Total)
			assert.NotNil(t, ev.Segment)
			return
		}
		stages = append(stages, ev.Stage)
	}}
	_, err := Run(context.Background(), buildArchive(t, threeCircles), Source{EntryName: entryName}, defaultParams,
		[]model.SegmentRequest{{Extent: model.ExtentNext}}, opts)
	require.NoError(t, err)
	assert.Equal(t, []Stage{StageCreating, StageDone}, stages)
	assert.Equal(t, 2, segments)
}

func TestRunMissingEntry(t *testing.T) {
	var last Stage
	_, err := Run(context.Background(), buildArchive(t, threeCircles), Source{EntryName: "nope.osu"}, defaultParams,
		[]model.SegmentRequest{{Extent: model.ExtentNext}}, Options{Progress: func(ev ProgressEvent) { last = ev.Stage }})

	var fe *chart.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "nope.osu", fe.Entry)
	assert.Equal(t, StageIdle, last)
}

func TestRunBadChart(t *testing.T) {
	_, err := Run(context.Background(), buildArchive(t, "not a chart\n"), Source{EntryName: entryName}, defaultParams,
		[]model.SegmentRequest{{Extent: model.ExtentNext}}, Options{})

	var fe *chart.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, entryName, fe.Entry)
	assert.Equal(t, 1, fe.Line)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, buildArchive(t, threeCircles), Source{EntryName: entryName}, defaultParams,
		[]model.SegmentRequest{{Extent: model.ExtentNext}}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeFetcher struct {
	data   []byte
	cached bool
	err    error
}

func (f fakeFetcher) Download(ctx context.Context, setID int) ([]byte, bool, error) {
	return f.data, f.cached, f.err
}

func TestTranscoderGenerate(t *testing.T) {
	var stages []Stage
	tr := New(fakeFetcher{data: buildArchive(t, threeCircles), cached: true}, Options{Progress: func(ev ProgressEvent) {
		stages = append(stages, ev.Stage)
	}})
	res, err := tr.Generate(context.Background(), model.Beatmap{OsuFile: entryName, SetID: 5}, defaultParams,
		[]model.SegmentRequest{{Extent: model.ExtentEnd}})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 5, res.SetID)
	assert.Equal(t, StageFetching, stages[0])
	assert.Equal(t, StageDone, stages[len(stages)-1])
}

func TestTranscoderFetchFailure(t *testing.T) {
	boom := errors.New("mirror down")
	var stages []Stage
	tr := New(fakeFetcher{err: boom}, Options{Progress: func(ev ProgressEvent) {
		stages = append(stages, ev.Stage)
	}})
	res, err := tr.Generate(context.Background(), model.Beatmap{OsuFile: entryName, SetID: 5}, defaultParams,
		[]model.SegmentRequest{{Extent: model.ExtentEnd}})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Stage{StageFetching, StageIdle}, stages)
}

func TestSegmentVersion(t *testing.T) {
	w := practice.Window{Start: 200, End: 400}
	assert.Equal(t, "Insane 200-400 100x", SegmentVersion("Insane", w, 100, 9, 9))
	assert.Equal(t, "Insane 200-400 100x AR10", SegmentVersion("Insane", w, 100, 9, 10))
}
