// Package iov implements the half-open interval-of-validity algebra that
// the resolution engine narrows on every descent into a nested manifest.
package iov

import "math"

// TimePoint is an unsigned point on the conditions time axis. Commit
// timestamps, manifest "since" values, and query times all share this type.
type TimePoint uint64

const (
	// MinTime is the smallest representable TimePoint.
	MinTime TimePoint = 0
	// MaxTime is the largest representable TimePoint, used as the sentinel
	// "open end" of an interval and as the wall-clock value returned by
	// back-ends that don't track real commit times.
	MaxTime TimePoint = math.MaxUint64
)

// IOV is a half-open interval of validity [Since, Until).
type IOV struct {
	Since TimePoint
	Until TimePoint
}

// Full is the widest possible interval, [MinTime, MaxTime).
func Full() IOV {
	return IOV{Since: MinTime, Until: MaxTime}
}

// Invalid returns the canonical invalid interval.
func Invalid() IOV {
	return IOV{}
}

// Valid reports whether the interval is non-empty: Since < Until.
func (i IOV) Valid() bool {
	return i.Since < i.Until
}

// Contains reports whether p falls inside [Since, Until).
func (i IOV) Contains(p TimePoint) bool {
	return i.Valid() && i.Since <= p && p < i.Until
}

// ContainsIOV reports whether other is wholly contained within i.
func (i IOV) ContainsIOV(other IOV) bool {
	if !other.Valid() {
		return false
	}
	return i.Since <= other.Since && other.Until <= i.Until && other.Until > i.Since
}

// Intersect returns the interval covered by both i and other: the later of
// the two Sinces through the earlier of the two Untils. The result may be
// invalid (empty) when the intervals don't overlap.
func (i IOV) Intersect(other IOV) IOV {
	since := i.Since
	if other.Since > since {
		since = other.Since
	}
	until := i.Until
	if other.Until < until {
		until = other.Until
	}
	return IOV{Since: since, Until: until}
}

// Overlaps reports whether the two intervals share any point.
func (i IOV) Overlaps(other IOV) bool {
	return i.Intersect(other).Valid()
}

// Cut narrows i in place to its intersection with bound.
func (i *IOV) Cut(bound IOV) {
	*i = i.Intersect(bound)
}
