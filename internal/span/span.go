// Package span implements half-open millisecond interval arithmetic for the timeline.
//
// Every overlap decision in the module goes through Overlaps. Boundary semantics
// (touching endpoints do not overlap) live here and nowhere else.
package span

// Range is the half-open interval [Start, End) in milliseconds.
type Range struct {
	Start int64
	End   int64
}

// ToRange converts a start/duration pair into a Range.
func ToRange(start, duration int64) Range {
	return Range{Start: start, End: start + duration}
}

// Overlaps reports whether a and b share at least one instant.
// a.End == b.Start is not an overlap.
func Overlaps(a, b Range) bool {
	return !(a.End <= b.Start || b.End <= a.Start)
}

// Contains reports whether t lies in [r.Start, r.End).
func (r Range) Contains(t int64) bool {
	return r.Start <= t && t < r.End
}

// Duration returns End - Start.
func (r Range) Duration() int64 {
	return r.End - r.Start
}

// AtLeast clamps v to be >= min.
func AtLeast(v, min int64) int64 {
	if v < min {
		return min
	}
	return v
}
