package progress

import (
	"testing"
	"time"

	"github.com/readaloud-go/readaloud/segment"
)

func words(texts ...string) []segment.Unit {
	units := make([]segment.Unit, len(texts))
	for i, t := range texts {
		units[i] = segment.Unit{Index: i, Text: t}
	}
	return units
}

func TestTick_WordWindows(t *testing.T) {
	// 150 WPM at rate 1.0 gives 400ms per word.
	e := New(words("one", "two", "three"), 1.0, 150)

	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{399 * time.Millisecond, 0},
		{400 * time.Millisecond, 1},
		{799 * time.Millisecond, 1},
		{800 * time.Millisecond, 2},
		{10 * time.Second, 2}, // clamped to last unit
		{-time.Second, 0},     // clamped to first unit
	}
	for _, c := range cases {
		if got := e.Tick(c.elapsed); got != c.want {
			t.Errorf("Tick(%v) = %d, want %d", c.elapsed, got, c.want)
		}
	}
}

func TestTick_SentenceScalesWithWordCount(t *testing.T) {
	e := New(words("One two three four.", "Short."), 1.0, 150)
	// First sentence: 4 words = 1600ms. Second: 1 word = 400ms.
	if got := e.Tick(1500 * time.Millisecond); got != 0 {
		t.Errorf("Tick(1.5s) = %d, want 0", got)
	}
	if got := e.Tick(1700 * time.Millisecond); got != 1 {
		t.Errorf("Tick(1.7s) = %d, want 1", got)
	}
	if e.Total() != 2000*time.Millisecond {
		t.Errorf("Total = %v, want 2s", e.Total())
	}
}

func TestTick_RateMultiplier(t *testing.T) {
	// Doubling the rate halves the per-word duration: 200ms per word.
	e := New(words("one", "two"), 2.0, 150)
	if got := e.Tick(199 * time.Millisecond); got != 0 {
		t.Errorf("Tick(199ms) = %d, want 0", got)
	}
	if got := e.Tick(200 * time.Millisecond); got != 1 {
		t.Errorf("Tick(200ms) = %d, want 1", got)
	}
}

func TestTick_NoUnits(t *testing.T) {
	e := New(nil, 1.0, 150)
	if got := e.Tick(time.Second); got != -1 {
		t.Errorf("Tick over no units = %d, want -1", got)
	}
}

func TestInterval_Clamped(t *testing.T) {
	// 400ms per word clamps down to the max tick interval.
	e := New(words("one"), 1.0, 150)
	if e.Interval() != maxTickInterval {
		t.Errorf("Interval = %v, want %v", e.Interval(), maxTickInterval)
	}
	// Very fast rate clamps up to the min tick interval.
	fast := New(words("one"), 10.0, 150)
	if fast.Interval() != minTickInterval {
		t.Errorf("fast Interval = %v, want %v", fast.Interval(), minTickInterval)
	}
}

func TestDefaults(t *testing.T) {
	a := New(words("one"), 0, 0)
	b := New(words("one"), 1.0, DefaultWPM)
	if a.Total() != b.Total() {
		t.Errorf("zero rate/wpm should fall back to defaults: %v != %v", a.Total(), b.Total())
	}
}
