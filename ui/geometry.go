package ui

import "sync"

// Geometry is the renderer-side answer to the highlight publisher's layout
// questions. The model updates it on every reflow and scroll; the publisher
// reads it from whichever goroutine delivers an index change.
type Geometry struct {
	mu     sync.Mutex
	starts []int // first rendered line of each unit
	ends   []int // last rendered line of each unit
	offset int   // first visible line
	height int   // visible lines
}

func NewGeometry() *Geometry {
	return &Geometry{}
}

// UnitExtent reports the rendered line extent of a unit; ok is false before
// the first layout pass or for an unknown index.
func (g *Geometry) UnitExtent(index int) (top, bottom int, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index < 0 || index >= len(g.starts) {
		return 0, 0, false
	}
	return g.starts[index], g.ends[index], true
}

// Viewport reports the first visible content line and the viewport height.
func (g *Geometry) Viewport() (offset, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.offset, g.height
}

func (g *Geometry) setLayout(starts, ends []int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.starts = starts
	g.ends = ends
}

func (g *Geometry) setViewport(offset, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.offset = offset
	g.height = height
}
