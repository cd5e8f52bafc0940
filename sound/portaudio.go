package sound

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// pauseProbe is how often PlayStream re-checks a paused stream.
const pauseProbe = 50 * time.Millisecond

type PortaudioPlayer struct {
	config      Config
	audioBuffer []int16

	mu     sync.Mutex
	stream *portaudio.Stream
	paused bool
}

// Ensure PortaudioPlayer implements Player interface
var _ Player = (*PortaudioPlayer)(nil)

func NewPortaudioPlayer(config Config) *PortaudioPlayer {
	if config.FramesPerBuffer == 0 {
		config.FramesPerBuffer = 1024
	}
	if config.OutputChannels == 0 {
		config.OutputChannels = 2
	}
	return &PortaudioPlayer{
		config:      config,
		audioBuffer: make([]int16, config.FramesPerBuffer*config.OutputChannels),
	}
}

func (p *PortaudioPlayer) Initialize() error {
	return portaudio.Initialize()
}

func (p *PortaudioPlayer) Open(sampleRate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		return errors.New("stream already opened")
	}
	stream, err := portaudio.OpenDefaultStream(
		0,
		p.config.OutputChannels,
		float64(sampleRate),
		p.config.FramesPerBuffer,
		p.audioBuffer,
	)
	if err != nil {
		return err
	}
	p.stream = stream
	p.paused = false
	return nil
}

func (p *PortaudioPlayer) PlayStream(ctx context.Context, pcm <-chan []byte) error {
	p.mu.Lock()
	stream := p.stream
	p.mu.Unlock()
	if stream == nil {
		return errors.New("stream not opened")
	}

	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()

	var pending []byte
	frameBytes := len(p.audioBuffer) * 2

	for {
		if p.isPaused() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pauseProbe):
			}
			continue
		}

		if len(pending) >= frameBytes {
			p.fillBuffer(pending[:frameBytes])
			pending = pending[frameBytes:]
			if err := p.write(); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-pcm:
			if !ok {
				return p.drain(pending)
			}
			pending = append(pending, chunk...)
		}
	}
}

// drain plays whatever is left after the source channel closes, zero-padding
// the final partial frame.
func (p *PortaudioPlayer) drain(pending []byte) error {
	frameBytes := len(p.audioBuffer) * 2
	for len(pending) > 0 {
		n := frameBytes
		if n > len(pending) {
			n = len(pending)
		}
		p.fillBuffer(pending[:n])
		for i := n / 2; i < len(p.audioBuffer); i++ {
			p.audioBuffer[i] = 0
		}
		pending = pending[n:]
		if err := p.write(); err != nil {
			return err
		}
	}
	return nil
}

// fillBuffer converts little-endian PCM bytes to int16 samples in place.
func (p *PortaudioPlayer) fillBuffer(data []byte) {
	for i := 0; i < len(data)/2; i++ {
		p.audioBuffer[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
}

func (p *PortaudioPlayer) write() error {
	p.mu.Lock()
	stream := p.stream
	p.mu.Unlock()
	if stream == nil {
		return errors.New("stream closed")
	}
	return stream.Write()
}

func (p *PortaudioPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil || p.paused {
		return nil
	}
	p.paused = true
	return p.stream.Stop()
}

func (p *PortaudioPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil || !p.paused {
		return nil
	}
	p.paused = false
	return p.stream.Start()
}

func (p *PortaudioPlayer) isPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *PortaudioPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return nil
	}
	err := p.stream.Close()
	p.stream = nil
	return err
}

func (p *PortaudioPlayer) Terminate() {
	portaudio.Terminate()
}
