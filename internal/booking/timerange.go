package booking

import "time"

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange builds a range and rejects empty or inverted intervals.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !end.After(start) {
		return TimeRange{}, ErrInvalidRange
	}
	return TimeRange{Start: start.UTC(), End: end.UTC()}, nil
}

// Duration is End - Start.
func (r TimeRange) Duration() time.Duration { return r.End.Sub(r.Start) }

// Hours is the duration in fractional hours.
func (r TimeRange) Hours() float64 { return r.Duration().Hours() }

// Overlaps reports whether the two half-open intervals share any instant.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether t falls inside [Start, End).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}
