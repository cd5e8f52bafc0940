package sound

import "context"

// Player defines the interface for audio playback
type Player interface {
	// Initialize initializes the audio playback system
	Initialize() error

	// Terminate terminates the audio playback system
	Terminate()

	// Open opens an output stream at the given sample rate
	Open(sampleRate int) error

	// Close closes the output stream
	Close() error

	// PlayStream plays PCM data from a channel. It returns once the
	// channel is closed and all buffered audio has been written, or when
	// the context is cancelled.
	PlayStream(ctx context.Context, pcm <-chan []byte) error

	// Pause suspends output without losing position
	Pause() error

	// Resume continues output after a Pause
	Resume() error
}

// Config represents the playback stream parameters
type Config struct {
	FramesPerBuffer int
	OutputChannels  int
}

// GetDefaultConfig returns parameters matching decoded MP3 output:
// 16-bit stereo PCM
func GetDefaultConfig() Config {
	return Config{
		FramesPerBuffer: 1024,
		OutputChannels:  2,
	}
}
