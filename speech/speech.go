// Package speech defines the contract for the external text-to-speech engine.
// The engine is consumed, never implemented, by the playback core: it takes
// text, produces audio somewhere out of our control, and reports lifecycle
// events. No per-word progress event is part of the contract.
package speech

// EventType identifies a lifecycle event for one Speak call.
type EventType int

const (
	// EventStart fires when audio for the utterance becomes audible.
	EventStart EventType = iota
	// EventEnd fires on natural completion. Terminal; mutually exclusive
	// with EventError for a given utterance.
	EventEnd
	// EventError fires when synthesis or playback fails. Terminal.
	EventError
)

// Event is delivered asynchronously by the engine. Err is set only for
// EventError.
type Event struct {
	Type EventType
	Err  error
}

// Options represents the configuration for one utterance.
type Options struct {
	Voice  string
	Rate   float64 // speed multiplier, 1.0 = normal
	Pitch  float64 // semitone shift, 0 = unchanged
	Volume float64
}

// DefaultOptions returns the baseline synthesis configuration.
func DefaultOptions() Options {
	return Options{
		Voice:  "marina",
		Rate:   1.0,
		Pitch:  0.0,
		Volume: 1.0,
	}
}

// Engine is the external speech engine. It is a process-wide singleton
// resource: at most one utterance is in flight, and Speak while speaking
// cancels the previous utterance first.
type Engine interface {
	// Speak submits one utterance and returns immediately. Lifecycle
	// events are delivered to notify from the engine's own goroutine.
	// A cancelled utterance delivers no terminal event.
	Speak(text string, opts Options, notify func(Event))

	// Pause suspends audible output; best-effort.
	Pause()

	// Resume continues a paused utterance; best-effort.
	Resume()

	// Cancel discards the in-flight utterance, if any. It may wait for
	// synthesis to wind down but must not wait on a terminal event
	// callback still being delivered; callers hold locks those callbacks
	// take.
	Cancel()

	// IsSpeaking reports whether an utterance is in flight.
	IsSpeaking() bool

	// IsPaused reports whether the in-flight utterance is paused.
	IsPaused() bool

	// Close cancels any utterance and releases engine resources.
	Close() error
}
