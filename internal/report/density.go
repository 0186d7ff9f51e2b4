package report

import (
	"math"
	"strings"

	"github.com/verte-zerg/practicer/internal/chart"
)

const densityChars = " .:-=+*#%@"

// DensityLine renders combo gained per time slice as a one-line sparkline.
// The span from the earliest to the latest event is cut into width equal
// slices. Events need not be in time order.
func DensityLine(events []chart.Event, width int) string {
	if len(events) == 0 || width <= 0 {
		return ""
	}
	first, last := events[0].Time, events[0].Time
	for _, e := range events[1:] {
		first = min(first, e.Time)
		last = max(last, e.Time)
	}
	span := last - first
	buckets := make([]float64, width)
	for _, e := range events {
		idx := 0
		if span > 0 {
			idx = int(int64(e.Time-first) * int64(width-1) / int64(span))
		}
		idx = min(max(idx, 0), width-1)
		buckets[idx] += float64(e.Contribution())
	}

	maxVal := 0.0
	for _, v := range buckets {
		maxVal = math.Max(maxVal, v)
	}
	var b strings.Builder
	for _, v := range buckets {
		idx := 0
		if maxVal > 0 {
			idx = int(math.Round(v / maxVal * float64(len(densityChars)-1)))
		}
		idx = min(max(idx, 0), len(densityChars)-1)
		b.WriteByte(densityChars[idx])
	}
	return b.String()
}
