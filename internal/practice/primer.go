package practice

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/practicer/internal/chart"
	"github.com/verte-zerg/practicer/internal/model"
)

// LeadInOffset is how far before the first selected event lead-in events start, in ms.
const LeadInOffset = 2000

// Playfield centre, where spinners are placed.
const (
	centreX = 256
	centreY = 192
)

// Generate builds lead-in events that bring the combo to target before first.
// Events carry volume in their hit sample and combo counted from 0.
func Generate(style model.LeadIn, target, volume int, first chart.Event) []chart.Event {
	if target <= 0 {
		return nil
	}
	at := first.Time - LeadInOffset
	switch {
	case style == model.LeadInSlider && target == 1:
		return []chart.Event{circle(first.X, first.Y, at, volume)}
	case style == model.LeadInSlider:
		return []chart.Event{slider(first.X, first.Y, at, target-1, volume)}
	default:
		events := make([]chart.Event, target)
		for i := range events {
			events[i] = spinner(at, volume, i)
		}
		return events
	}
}

func circle(x, y, t, volume int) chart.Event {
	typ := chart.TypeCircle | chart.TypeNewCombo
	return chart.Event{
		X: x, Y: y, Time: t, Type: typ, Kind: chart.Point, NewCombo: true,
		EndCombo: 1,
		Raw:      fmt.Sprintf("%d,%d,%d,%d,0,%s", x, y, t, typ, hitSample(volume)),
	}
}

func spinner(t, volume, index int) chart.Event {
	typ := chart.TypeSpinner | chart.TypeNewCombo
	return chart.Event{
		X: centreX, Y: centreY, Time: t, Type: typ, Kind: chart.Hold, NewCombo: true,
		StartCombo: index,
		EndCombo:   index + 1,
		Raw:        fmt.Sprintf("%d,%d,%d,%d,0,%d,%s", centreX, centreY, t, typ, t, hitSample(volume)),
	}
}

// slider is a one-pixel linear slider; it has no room for ticks so it yields
// one combo for the head and one per slide.
func slider(x, y, t, slides, volume int) chart.Event {
	typ := chart.TypeSlider | chart.TypeNewCombo
	edgeSounds := strings.TrimSuffix(strings.Repeat("0|", slides+1), "|")
	edgeSets := strings.TrimSuffix(strings.Repeat("0:0|", slides+1), "|")
	return chart.Event{
		X: x, Y: y, Time: t, Type: typ, Kind: chart.Sustained, NewCombo: true,
		Slides:      slides,
		PixelLength: 1,
		EndCombo:    1 + slides,
		Raw: fmt.Sprintf("%d,%d,%d,%d,0,L|%d:%d,%d,1,%s,%s,%s",
			x, y, t, typ, x+1, y, slides, edgeSounds, edgeSets, hitSample(volume)),
	}
}

func hitSample(volume int) string {
	return fmt.Sprintf("0:0:0:%d:", volume)
}
