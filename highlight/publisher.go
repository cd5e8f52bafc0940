// Package highlight turns the session controller's current-unit index into a
// renderer-consumable signal. The publisher owns no rendering logic: it asks
// the renderer's geometry where a unit sits and decides only whether the
// renderer should scroll to it.
package highlight

import "sync"

// Signal is what the renderer consumes on every index change. Index is -1
// when no unit is highlighted.
type Signal struct {
	Index        int
	ShouldScroll bool
}

// Geometry is supplied by the renderer. Extents and offsets are in rendered
// lines.
type Geometry interface {
	// UnitExtent reports the first and last rendered line of a unit.
	// ok is false when the renderer has not laid the unit out yet.
	UnitExtent(index int) (top, bottom int, ok bool)
	// Viewport reports the first visible line and the viewport height.
	Viewport() (offset, height int)
}

// Band is the comfortable viewport band: a unit within Top lines of the top
// edge or Bottom lines of the bottom edge is considered out of band.
type Band struct {
	Top    int
	Bottom int
}

// Publisher deduplicates index changes and publishes signals to a sink. It
// holds no state beyond the last published index. Safe for concurrent use:
// index changes arrive from engine callbacks and estimator ticks.
type Publisher struct {
	geom Geometry
	band Band
	sink func(Signal)

	mu   sync.Mutex
	last int
	seen bool
}

// NewPublisher wires a publisher to the renderer's geometry and a sink.
func NewPublisher(geom Geometry, band Band, sink func(Signal)) *Publisher {
	return &Publisher{geom: geom, band: band, sink: sink}
}

// OnIndexChanged is invoked by the controller on every current-index change,
// including the reset to -1. Redundant publishes for an unchanged value are
// suppressed.
func (p *Publisher) OnIndexChanged(index int) {
	p.mu.Lock()
	if p.seen && index == p.last {
		p.mu.Unlock()
		return
	}
	p.last = index
	p.seen = true
	sig := Signal{Index: index, ShouldScroll: p.shouldScroll(index)}
	p.mu.Unlock()

	p.sink(sig)
}

func (p *Publisher) shouldScroll(index int) bool {
	if index < 0 || p.geom == nil {
		return false
	}
	top, bottom, ok := p.geom.UnitExtent(index)
	if !ok {
		return false
	}
	offset, height := p.geom.Viewport()
	upper := offset + p.band.Top
	lower := offset + height - 1 - p.band.Bottom
	return top < upper || bottom > lower
}
