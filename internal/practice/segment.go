// Package practice cuts a parsed chart into combo windows and builds lead-in events.
package practice

import (
	"github.com/verte-zerg/practicer/internal/chart"
	"github.com/verte-zerg/practicer/internal/model"
)

// Window is an inclusive combo range.
type Window struct {
	Start int
	End   int
}

// Windows steps from 0 to maxCombo by increment. Extent next ends each window at
// the following boundary; extent end runs every window to the end of the chart.
func Windows(maxCombo, increment int, extent model.Extent) []Window {
	if increment <= 0 {
		return nil
	}
	var windows []Window
	for i := 0; i < maxCombo; i += increment {
		end := maxCombo
		if extent != model.ExtentEnd {
			end = min(maxCombo, i+increment)
		}
		windows = append(windows, Window{Start: i, End: end})
	}
	return windows
}

// SelectEvents returns the events whose start combo lies in [start, end].
// A slider starting inside the window is kept whole even if it ends past end.
func SelectEvents(events []chart.Event, start, end int) []chart.Event {
	var selected []chart.Event
	for _, e := range events {
		if e.StartCombo >= start && e.StartCombo <= end {
			selected = append(selected, e)
		}
	}
	return selected
}
