package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/practicer/internal/model"
)

const titleWidth = 40

// HistoryLines renders recorded runs, newest first as given.
func HistoryLines(runs []model.RunRecord, now time.Time) []string {
	if len(runs) == 0 {
		return []string{"No runs recorded yet."}
	}
	headers := []string{"When", "Set", "Title", "Segments", "Step", "Lead-in", "Size", "Output"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			humanize.RelTime(run.EndedAt, now, "ago", "from now"),
			strconv.Itoa(run.SetID),
			truncate(run.Title, titleWidth),
			strconv.Itoa(len(run.Segments)),
			strconv.Itoa(run.Params.ComboIncrement),
			string(run.Params.LeadIn),
			humanize.Bytes(uint64(max(run.OutputBytes, 0))),
			run.OutputPath,
		})
	}
	return formatTable(headers, rows, map[int]bool{1: true, 3: true, 4: true, 6: true})
}

// RunDetailLines renders the segments of one run.
func RunDetailLines(run model.RunRecord) []string {
	lines := []string{fmt.Sprintf("%s  %s  (%s)", run.ID, run.Title, run.SourceEntry)}
	headers := []string{"Combo", "Start", "AR", "Events", "Primer", "Version"}
	rows := make([][]string, 0, len(run.Segments))
	for _, seg := range run.Segments {
		rows = append(rows, []string{
			fmt.Sprintf("%d-%d", seg.Start, seg.End),
			strconv.Itoa(seg.StartCombo) + "x",
			strconv.FormatFloat(seg.Approach, 'f', -1, 64),
			strconv.Itoa(seg.EventCount),
			strconv.Itoa(seg.PrimerCount),
			seg.Version,
		})
	}
	return append(lines, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})...)
}
