package chart

// Resolve returns the timing point governing time t: the last point with
// Time <= t in document order, or the first point when t precedes them all.
// ok is false only for an empty list.
func Resolve(points []TimingPoint, t int) (TimingPoint, bool) {
	if len(points) == 0 {
		return TimingPoint{}, false
	}
	found := points[0]
	for _, p := range points {
		if p.Time <= t {
			found = p
		}
	}
	return found, true
}
