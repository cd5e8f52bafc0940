// Package session owns one playback lifecycle over one article's unit
// sequence. The Controller is a small state machine driving an external,
// callback-driven speech engine: every deferred callback (engine lifecycle
// event, estimator tick) is tagged with the generation current at submission
// and discarded if a later Start has superseded it. That check is the whole
// defense against stale-callback races; mismatches are silent no-ops, never
// errors.
package session

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/readaloud-go/readaloud/progress"
	"github.com/readaloud-go/readaloud/segment"
	"github.com/readaloud-go/readaloud/speech"
)

// State is the playback state of the session. Stopped and Idle both mean
// nothing is audible; Idle is the pre-start state, Stopped is reached only
// by explicit stop, terminal completion, or an engine error.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Policy selects how the controller drives the engine.
type Policy int

const (
	// PolicyUnitAtATime submits one utterance per unit; the engine's end
	// event gives exact unit boundaries at the cost of small inter-unit
	// audio gaps.
	PolicyUnitAtATime Policy = iota
	// PolicyWholeUtterance submits the joined text once and advances the
	// index on an estimated schedule; seamless audio, drifting highlight.
	PolicyWholeUtterance
)

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "unit", "":
		return PolicyUnitAtATime, true
	case "utterance":
		return PolicyWholeUtterance, true
	default:
		return PolicyUnitAtATime, false
	}
}

// Config holds the controller's collaborators and tuning.
type Config struct {
	Policy  Policy
	Options speech.Options
	WPM     float64 // estimator reading rate, progress.DefaultWPM if zero
	Logger  *log.Logger
	// OnIndex is invoked on every current-index change, including the
	// reset to -1. Typically a highlight.Publisher.
	OnIndex func(index int)
}

// Controller exclusively owns the session's state, current index, and
// generation. Control calls are non-blocking; actual transitions triggered
// by the engine happen inside its callbacks, guarded by the generation.
type Controller struct {
	engine speech.Engine
	policy Policy
	opts   speech.Options
	wpm    float64
	logger *log.Logger
	onIdx  func(int)
	now    func() time.Time

	// subMu is held across the generation/state re-check and the engine
	// Speak or Cancel call itself, so a submission verified against one
	// generation can never land after a Stop or a newer Start has
	// cancelled the engine. Never acquired while holding c.mu.
	subMu sync.Mutex

	mu         sync.Mutex
	id         string
	units      []segment.Unit
	state      State
	current    int
	generation uint64
	pending    int // unit to submit on resume; -1 when none

	// whole-utterance bookkeeping
	est         *progress.Estimator
	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	tickStop    chan struct{}
}

// New creates an idle controller over the given engine.
func New(engine speech.Engine, cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		engine:  engine,
		policy:  cfg.Policy,
		opts:    cfg.Options,
		wpm:     cfg.WPM,
		logger:  logger,
		onIdx:   cfg.OnIndex,
		now:     time.Now,
		state:   StateIdle,
		current: -1,
		pending: -1,
	}
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentIndex returns the index of the unit currently audible, or -1.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Start begins playback over units. Any previous session is stopped first;
// an empty unit sequence is "nothing to play" and leaves the controller
// untouched.
func (c *Controller) Start(units []segment.Unit) {
	c.mu.Lock()
	if len(units) == 0 {
		c.mu.Unlock()
		c.logger.Debug("start with no units, nothing to play")
		return
	}

	resetPub, doCancel := c.stopLocked()

	c.generation++
	gen := c.generation
	c.id = uuid.NewString()
	c.units = units
	c.state = StatePlaying
	c.current = units[0].Index
	c.pending = -1
	c.pausedTotal = 0
	first := c.current
	c.logger.Info("session started",
		"session", c.id, "units", len(units), "generation", gen)
	c.mu.Unlock()

	// Cancelling after the generation bump makes any late callback from the
	// superseded utterance a guaranteed no-op; taking subMu orders the
	// cancel after any submission already in flight.
	if doCancel {
		c.subMu.Lock()
		c.engine.Cancel()
		c.subMu.Unlock()
	}
	if resetPub {
		c.publish(-1)
	}
	c.publish(first)

	switch c.policy {
	case PolicyUnitAtATime:
		c.speakUnit(gen, 0)
	case PolicyWholeUtterance:
		text := segment.Join(units)
		c.mu.Lock()
		c.est = progress.New(units, c.opts.Rate, c.wpm)
		c.startedAt = c.now()
		stop := make(chan struct{})
		c.tickStop = stop
		interval := c.est.Interval()
		c.mu.Unlock()

		c.speakUtterance(gen, text)
		go c.tickLoop(gen, stop, interval)
	}
}

// Pause freezes playback. No-op unless Playing.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.state = StatePaused
	c.pausedAt = c.now()
	c.logger.Debug("session paused", "session", c.id, "index", c.current)
	c.mu.Unlock()

	c.engine.Pause()
}

// Resume continues a paused session. No-op unless Paused.
func (c *Controller) Resume() {
	c.mu.Lock()
	if c.state != StatePaused {
		c.mu.Unlock()
		return
	}
	c.state = StatePlaying
	gen := c.generation
	c.pausedTotal += c.now().Sub(c.pausedAt)
	next := c.pending
	c.pending = -1
	if next >= 0 {
		// A unit finished while we were paused; pick up from the next
		// one instead of resuming a drained utterance.
		c.current = next
		c.logger.Debug("session resumed", "session", c.id, "index", next)
		c.mu.Unlock()
		c.publish(next)
		c.speakUnit(gen, next)
		return
	}
	c.logger.Debug("session resumed", "session", c.id, "index", c.current)
	c.mu.Unlock()

	c.engine.Resume()
}

// Stop cancels the engine and any estimator ticker, and resets the session.
// Idempotent; the controller's own state is updated before Stop returns,
// engine cancellation is best-effort.
func (c *Controller) Stop() {
	c.mu.Lock()
	resetPub, doCancel := c.stopLocked()
	if doCancel {
		c.logger.Info("session stopped", "session", c.id, "generation", c.generation)
	}
	c.mu.Unlock()

	if doCancel {
		c.subMu.Lock()
		c.engine.Cancel()
		c.subMu.Unlock()
	}
	if resetPub {
		c.publish(-1)
	}
}

// stopLocked tears the live session down, reporting whether an index reset
// needs publishing and whether the engine still needs cancelling. The engine
// call itself happens outside c.mu: its callbacks take this lock, and they
// are already fenced off by state and generation. Callers hold c.mu.
func (c *Controller) stopLocked() (resetPub, doCancel bool) {
	if c.tickStop != nil {
		close(c.tickStop)
		c.tickStop = nil
	}
	c.est = nil

	if c.state == StateIdle {
		return false, false
	}
	doCancel = c.state == StatePlaying || c.state == StatePaused

	resetPub = c.current != -1
	c.state = StateStopped
	c.current = -1
	c.pending = -1
	return resetPub, doCancel
}

// speakUnit submits one unit's text as one utterance, tagging the
// completion callback with the generation at submission time. The check and
// the submission happen under subMu: a Stop or newer Start that has already
// torn the session down can no longer be trailed by this utterance.
func (c *Controller) speakUnit(gen uint64, i int) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.mu.Lock()
	if gen != c.generation || i >= len(c.units) {
		c.mu.Unlock()
		return
	}
	if c.state == StatePaused {
		// Paused in the window before submission; resume picks it up.
		c.pending = i
		c.mu.Unlock()
		return
	}
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	text := c.units[i].Text
	c.mu.Unlock()

	c.engine.Speak(text, c.opts, func(ev speech.Event) {
		c.onUnitEvent(gen, i, ev)
	})
}

// speakUtterance is speakUnit's whole-utterance counterpart. A pause landing
// in the pre-submission window still submits and then pauses the engine, so
// resume has an utterance to continue.
func (c *Controller) speakUtterance(gen uint64, text string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.mu.Lock()
	if gen != c.generation || (c.state != StatePlaying && c.state != StatePaused) {
		c.mu.Unlock()
		return
	}
	paused := c.state == StatePaused
	c.mu.Unlock()

	c.engine.Speak(text, c.opts, func(ev speech.Event) {
		c.onUtteranceEvent(gen, ev)
	})
	if paused {
		c.engine.Pause()
	}
}

// onUnitEvent handles lifecycle events under the unit-at-a-time policy.
func (c *Controller) onUnitEvent(gen uint64, i int, ev speech.Event) {
	switch ev.Type {
	case speech.EventStart:
		// index was already set at submission time
	case speech.EventEnd:
		c.advance(gen, i)
	case speech.EventError:
		c.fail(gen, ev.Err)
	}
}

// advance moves to the unit after i, or completes the session after the
// last one. Stale generations are discarded.
func (c *Controller) advance(gen uint64, i int) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	if c.state != StatePlaying && c.state != StatePaused {
		c.mu.Unlock()
		return
	}

	next := i + 1
	if next >= len(c.units) {
		resetPub, _ := c.completeLocked()
		c.mu.Unlock()
		if resetPub {
			c.publish(-1)
		}
		return
	}

	// A duplicate end for an already-passed unit must not move the index
	// backwards within this generation.
	if next <= c.current {
		c.mu.Unlock()
		return
	}

	if c.state == StatePaused {
		// Keep the frozen index; remember where to pick up on resume.
		c.pending = next
		c.mu.Unlock()
		return
	}

	c.current = next
	c.mu.Unlock()

	c.publish(next)
	c.speakUnit(gen, next)
}

// completeLocked is the natural-completion transition: equivalent to a stop
// without re-cancelling an already-finished engine. Callers hold c.mu.
func (c *Controller) completeLocked() (resetPub, doCancel bool) {
	c.logger.Info("session finished", "session", c.id, "generation", c.generation)
	resetPub, _ = c.stopLocked()
	return resetPub, false
}

// fail handles an engine-reported error: the session is stopped, the error
// surfaced as state, never retried.
func (c *Controller) fail(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	if c.state != StatePlaying && c.state != StatePaused {
		c.mu.Unlock()
		return
	}
	c.logger.Error("speech engine failed, stopping playback",
		"session", c.id, "err", err)
	resetPub, _ := c.stopLocked()
	c.mu.Unlock()

	if resetPub {
		c.publish(-1)
	}
}

// onUtteranceEvent handles lifecycle events under the whole-utterance
// policy. The engine's start resynchronizes the index to 0, its terminal
// events reset it to -1; in between, only the estimator moves it.
func (c *Controller) onUtteranceEvent(gen uint64, ev speech.Event) {
	switch ev.Type {
	case speech.EventStart:
		c.mu.Lock()
		if gen != c.generation || c.state != StatePlaying {
			c.mu.Unlock()
			return
		}
		c.startedAt = c.now()
		c.pausedTotal = 0
		changed := c.current != 0
		c.current = 0
		c.mu.Unlock()
		if changed {
			c.publish(0)
		}
	case speech.EventEnd:
		c.mu.Lock()
		if gen != c.generation || (c.state != StatePlaying && c.state != StatePaused) {
			c.mu.Unlock()
			return
		}
		resetPub, _ := c.completeLocked()
		c.mu.Unlock()
		if resetPub {
			c.publish(-1)
		}
	case speech.EventError:
		c.fail(gen, ev.Err)
	}
}

// tickLoop runs the estimator schedule until the session is superseded or
// stopped.
func (c *Controller) tickLoop(gen uint64, stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			c.applyTick(gen, now)
		}
	}
}

// applyTick advances the index to the estimator's position for now. Stale
// generations and non-playing states are discarded, and the index never
// moves backwards within a generation.
func (c *Controller) applyTick(gen uint64, now time.Time) {
	c.mu.Lock()
	if gen != c.generation || c.state != StatePlaying || c.est == nil {
		c.mu.Unlock()
		return
	}
	elapsed := now.Sub(c.startedAt) - c.pausedTotal
	idx := c.est.Tick(elapsed)
	if idx <= c.current {
		c.mu.Unlock()
		return
	}
	c.current = idx
	c.mu.Unlock()

	c.publish(idx)
}

// publish pushes an index change to the sink. Called without c.mu held so a
// sink may call back into the controller.
func (c *Controller) publish(index int) {
	if c.onIdx != nil {
		c.onIdx(index)
	}
}
