// Package progress estimates which unit is currently audible when the speech
// engine reports no mid-utterance progress. The estimate runs purely on wall
// clock and per-unit word counts; drift between audio and highlight is an
// accepted tradeoff of the whole-utterance driving policy, not a bug.
package progress

import (
	"time"

	"github.com/readaloud-go/readaloud/segment"
)

// DefaultWPM is the assumed reading rate at a speech rate multiplier of 1.0.
const DefaultWPM = 150

const (
	minTickInterval = 100 * time.Millisecond
	maxTickInterval = 300 * time.Millisecond
)

// Estimator precomputes a schedule of per-unit duration windows. It never
// queries the speech engine; Tick is a pure function of elapsed speaking time.
type Estimator struct {
	ends     []time.Duration // cumulative end offset of each unit
	total    time.Duration
	interval time.Duration
}

// New builds an estimator for units spoken at the given engine rate
// multiplier. wpm <= 0 falls back to DefaultWPM, rate <= 0 to 1.0. A unit's
// duration scales with its word count, so word granularity yields constant
// windows and sentence granularity proportional ones.
func New(units []segment.Unit, rate, wpm float64) *Estimator {
	if wpm <= 0 {
		wpm = DefaultWPM
	}
	if rate <= 0 {
		rate = 1.0
	}
	perWord := time.Duration(float64(time.Minute) / (wpm * rate))

	e := &Estimator{ends: make([]time.Duration, len(units))}
	shortest := time.Duration(0)
	for i, u := range units {
		d := time.Duration(segment.WordCount(u)) * perWord
		e.total += d
		e.ends[i] = e.total
		if shortest == 0 || d < shortest {
			shortest = d
		}
	}

	e.interval = shortest
	if e.interval < minTickInterval {
		e.interval = minTickInterval
	}
	if e.interval > maxTickInterval {
		e.interval = maxTickInterval
	}
	return e
}

// Tick returns the index of the unit whose cumulative duration window
// contains elapsed, clamped to [0, len-1]. Returns -1 when the estimator was
// built over no units.
func (e *Estimator) Tick(elapsed time.Duration) int {
	if len(e.ends) == 0 {
		return -1
	}
	if elapsed < 0 {
		return 0
	}
	for i, end := range e.ends {
		if elapsed < end {
			return i
		}
	}
	return len(e.ends) - 1
}

// Interval is the recommended tick period: the shortest unit's estimated
// duration, clamped to [100ms, 300ms].
func (e *Estimator) Interval() time.Duration {
	return e.interval
}

// Total is the estimated duration of the whole unit sequence.
func (e *Estimator) Total() time.Duration {
	return e.total
}
