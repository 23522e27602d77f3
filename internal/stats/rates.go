package stats

import (
	"math"
	"time"
)

// gbaFramesPerSecond is the exact frame rate of the emulated hardware.
const gbaFramesPerSecond = 59.727500569606

// ringBuffer keeps the most recent capacity values, overwriting the oldest.
type ringBuffer[T any] struct {
	values []T
	next   int
	full   bool
}

func newRingBuffer[T any](capacity int) *ringBuffer[T] {
	return &ringBuffer[T]{values: make([]T, 0, capacity)}
}

func (r *ringBuffer[T]) Append(v T) {
	if r.full {
		r.values[r.next] = v
		r.next = (r.next + 1) % cap(r.values)
		return
	}
	r.values = append(r.values, v)
	if len(r.values) == cap(r.values) {
		r.full = true
	}
}

func (r *ringBuffer[T]) Len() int { return len(r.values) }

// Oldest returns the value that would be overwritten next.
func (r *ringBuffer[T]) Oldest() T {
	if r.full {
		return r.values[r.next]
	}
	return r.values[0]
}

// Newest returns the most recently appended value.
func (r *ringBuffer[T]) Newest() T {
	if r.full {
		return r.values[(r.next+cap(r.values)-1)%cap(r.values)]
	}
	return r.values[len(r.values)-1]
}

// encounterRates derives encounters-per-hour from a sliding window of the
// most recent encounter timestamps (and, when available, emulator frame
// counts). With fewer than two samples both rates are zero.
type encounterRates struct {
	times  *ringBuffer[time.Time]
	frames *ringBuffer[uint64]
}

func newEncounterRates(bufferSize int) *encounterRates {
	return &encounterRates{
		times:  newRingBuffer[time.Time](bufferSize),
		frames: newRingBuffer[uint64](bufferSize),
	}
}

func (r *encounterRates) Record(at time.Time, frameCount uint64) {
	r.times.Append(at)
	r.frames.Append(frameCount)
}

// PerHour returns the wall-clock encounter rate, encounters per hour.
func (r *encounterRates) PerHour() int {
	if r.times.Len() < 2 {
		return 0
	}
	span := r.times.Newest().Sub(r.times.Oldest()).Seconds()
	if span <= 0 {
		return 0
	}
	avg := span / float64(r.times.Len()-1)
	return int(3600 / avg)
}

// PerHourAt1x returns the rate normalized to unthrottled emulation speed,
// derived from frame counts instead of wall time. Rounded to one decimal.
func (r *encounterRates) PerHourAt1x() float64 {
	if r.frames.Len() < 2 {
		return 0
	}
	newest := r.frames.Newest()
	oldest := r.frames.Oldest()
	if newest <= oldest {
		return 0
	}
	seconds := float64(newest-oldest) / gbaFramesPerSecond
	avg := seconds / float64(r.frames.Len()-1)
	return math.Round(3600/avg*10) / 10
}
