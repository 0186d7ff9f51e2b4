package report

import (
	"fmt"
	"strconv"

	"github.com/verte-zerg/practicer/internal/chart"
	"github.com/verte-zerg/practicer/internal/practice"
	"github.com/verte-zerg/practicer/internal/transcode"
)

// ChartSummaryLines describes a parsed chart.
func ChartSummaryLines(doc *chart.Document) []string {
	diff := chart.DifficultyOf(doc)
	events := doc.Events()
	counts := map[chart.EventKind]int{}
	for _, e := range events {
		counts[e.Kind]++
	}
	meta := func(key string) string {
		return doc.Get(chart.SectionMetadata, key)
	}
	return []string{
		fmt.Sprintf("%s - %s [%s] (%s)", meta("Artist"), meta("Title"), meta("Version"), meta("Creator")),
		fmt.Sprintf("format:   %s v%d", doc.Format, doc.Version),
		fmt.Sprintf("ids:      set %s, beatmap %s", meta("BeatmapSetID"), meta("BeatmapID")),
		fmt.Sprintf("AR %s  OD %s  SV %s  tick rate %s",
			doc.Get(chart.SectionDifficulty, "ApproachRate"),
			doc.Get(chart.SectionDifficulty, "OverallDifficulty"),
			strconv.FormatFloat(diff.SliderMultiplier, 'f', -1, 64),
			strconv.FormatFloat(diff.SliderTickRate, 'f', -1, 64)),
		fmt.Sprintf("objects:  %d (%d circles, %d sliders, %d spinners)",
			len(events), counts[chart.Point], counts[chart.Sustained], counts[chart.Hold]),
		fmt.Sprintf("combo:    %d", doc.MaxCombo()),
	}
}

// TimingLines renders the timing points of a chart.
func TimingLines(points []chart.TimingPoint) []string {
	headers := []string{"Time", "Kind", "BPM", "SV", "Meter"}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		kind := "inherited"
		if p.Uninherited {
			kind = "uninherited"
		}
		bpm := "-"
		if p.BeatLength > 0 {
			bpm = strconv.FormatFloat(60000/p.BeatLength, 'f', 2, 64)
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Time),
			kind,
			bpm,
			strconv.FormatFloat(p.SVPercentage(), 'f', 0, 64) + "%",
			strconv.Itoa(p.Meter),
		})
	}
	return formatTable(headers, rows, map[int]bool{0: true, 2: true, 3: true, 4: true})
}

// ComboLines renders the running combo of every hit object. limit <= 0 shows all.
func ComboLines(events []chart.Event, limit int) []string {
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	headers := []string{"#", "Time", "Kind", "NC", "Combo", "+"}
	rows := make([][]string, 0, len(events))
	for i, e := range events {
		nc := ""
		if e.NewCombo {
			nc = "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			strconv.Itoa(e.Time),
			e.Kind.String(),
			nc,
			fmt.Sprintf("%d-%d", e.StartCombo, e.EndCombo),
			strconv.Itoa(e.Contribution()),
		})
	}
	return formatTable(headers, rows, map[int]bool{0: true, 1: true, 4: true, 5: true})
}

// WindowLines renders the combo windows of a chart with the span they cover.
func WindowLines(events []chart.Event, windows []practice.Window) []string {
	headers := []string{"Combo", "Events", "From", "To"}
	rows := make([][]string, 0, len(windows))
	for _, w := range windows {
		selected := practice.SelectEvents(events, w.Start, w.End)
		from, to := "-", "-"
		if len(selected) > 0 {
			from = strconv.Itoa(selected[0].Time)
			to = strconv.Itoa(selected[len(selected)-1].Time)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d-%d", w.Start, w.End),
			strconv.Itoa(len(selected)),
			from,
			to,
		})
	}
	return formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true})
}

// SegmentLines renders the segments of a finished run.
func SegmentLines(segments []transcode.SegmentInfo) []string {
	headers := []string{"Combo", "Start", "AR", "Events", "Primer", "Entry"}
	rows := make([][]string, 0, len(segments))
	for _, s := range segments {
		rows = append(rows, []string{
			fmt.Sprintf("%d-%d", s.Window.Start, s.Window.End),
			strconv.Itoa(s.StartCombo) + "x",
			strconv.FormatFloat(s.Approach, 'f', -1, 64),
			strconv.Itoa(s.Events),
			strconv.Itoa(s.Primer),
			s.Entry,
		})
	}
	return formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})
}
