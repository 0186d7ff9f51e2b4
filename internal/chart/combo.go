package chart

import "math"

// boundaryEpsilon absorbs float error when a slider ends exactly on a tick.
const boundaryEpsilon = 1e-4

// DifficultySettings are the global values slider timing depends on.
type DifficultySettings struct {
	SliderMultiplier float64
	SliderTickRate   float64
}

// DifficultyOf reads the slider settings, falling back to format defaults.
func DifficultyOf(doc *Document) DifficultySettings {
	d := DifficultySettings{
		SliderMultiplier: doc.Float(SectionDifficulty, "SliderMultiplier", DefaultSliderMultiplier),
		SliderTickRate:   doc.Float(SectionDifficulty, "SliderTickRate", DefaultSliderTickRate),
	}
	if d.SliderMultiplier == 0 {
		d.SliderMultiplier = DefaultSliderMultiplier
	}
	if d.SliderTickRate == 0 {
		d.SliderTickRate = DefaultSliderTickRate
	}
	return d
}

// SliderTiming is the derived length of one slide and its tick count.
type SliderTiming struct {
	Duration    float64
	TickSpacing float64
	Ticks       int
}

// TimeSlider computes a slider's duration and interior ticks for one slide.
// The tick count is an approximation and can overestimate real combo.
func TimeSlider(pixelLength float64, point TimingPoint, diff DifficultySettings) SliderTiming {
	sv := point.SVMultiplier
	if sv == 0 {
		sv = 1
	}
	st := SliderTiming{
		Duration:    math.Abs(pixelLength / (diff.SliderMultiplier * 100 * sv) * point.BeatLength),
		TickSpacing: point.BeatLength / diff.SliderTickRate,
	}
	if st.TickSpacing <= 0 || math.IsInf(st.TickSpacing, 0) || math.IsNaN(st.Duration) {
		return st
	}
	st.Ticks = int(math.Floor(st.Duration / st.TickSpacing))
	if math.Mod(st.Duration, st.TickSpacing) < boundaryEpsilon {
		st.Ticks--
	}
	return st
}

// SliderContribution is the combo a slider adds: its head, one per slide end
// and the interior ticks of every slide.
func SliderContribution(pixelLength float64, slides int, point TimingPoint, diff DifficultySettings) int {
	ticks := TimeSlider(pixelLength, point, diff).Ticks * slides
	return 1 + slides + ticks
}
