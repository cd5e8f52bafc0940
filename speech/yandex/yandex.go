// Package yandex implements the speech.Engine contract against Yandex
// SpeechKit TTS v3: text is synthesized to MP3 over gRPC, decoded, and played
// through a local PCM player. Lifecycle events mark audible start, natural
// end, and failure; a cancelled utterance reports nothing.
package yandex

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"

	"github.com/hajimehoshi/go-mp3"
	ttspb "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"

	"github.com/readaloud-go/readaloud/sound"
	"github.com/readaloud-go/readaloud/speech"
)

const (
	SpeechKitEndpoint = "tts.api.cloud.yandex.net:443"

	defaultModel = "general"
	pcmChunkSize = 4096
)

type Config struct {
	APIKey   string
	FolderID string
}

// Engine drives SpeechKit synthesis and local playback for one utterance at
// a time. Speak while speaking cancels the previous utterance first.
type Engine struct {
	client   ttspb.SynthesizerClient
	conn     *grpc.ClientConn
	apiKey   string
	folderID string
	player   sound.Player

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	speaking bool
	paused   bool
}

// Ensure Engine implements the speech.Engine contract
var _ speech.Engine = (*Engine)(nil)

func New(cfg Config, player sound.Player) (*Engine, error) {
	creds := credentials.NewTLS(&tls.Config{})

	conn, err := grpc.Dial(SpeechKitEndpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to TTS service: %w", err)
	}

	if err := player.Initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize player: %w", err)
	}

	return &Engine{
		client:   ttspb.NewSynthesizerClient(conn),
		conn:     conn,
		apiKey:   cfg.APIKey,
		folderID: cfg.FolderID,
		player:   player,
	}, nil
}

func (e *Engine) Speak(text string, opts speech.Options, notify func(speech.Event)) {
	e.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	e.mu.Lock()
	e.cancel = cancel
	e.done = done
	e.speaking = true
	e.paused = false
	e.mu.Unlock()

	go e.run(ctx, text, opts, notify, done)
}

func (e *Engine) run(ctx context.Context, text string, opts speech.Options, notify func(speech.Event), done chan struct{}) {
	err := e.synthesizeAndPlay(ctx, text, opts, notify)
	cancelled := ctx.Err() != nil

	e.mu.Lock()
	e.speaking = false
	e.paused = false
	e.mu.Unlock()

	// Terminal events are delivered after done closes so that a handler
	// reacting to them may call Speak (and thus Cancel) without deadlocking
	// on this goroutine.
	close(done)

	if cancelled {
		return // cancelled: no terminal event
	}
	if err != nil {
		notify(speech.Event{Type: speech.EventError, Err: err})
		return
	}
	notify(speech.Event{Type: speech.EventEnd})
}

func (e *Engine) synthesizeAndPlay(ctx context.Context, text string, opts speech.Options, notify func(speech.Event)) error {
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Api-Key "+e.apiKey)
	ctx = metadata.AppendToOutgoingContext(ctx, "x-folder-id", e.folderID)

	stream, err := e.client.UtteranceSynthesis(ctx, e.buildRequest(text, opts))
	if err != nil {
		return fmt.Errorf("failed to start synthesis: %w", err)
	}

	// Bridge the gRPC audio chunk stream into the MP3 decoder.
	pr, pw := io.Pipe()
	defer pr.Close()
	synthErr := make(chan error, 1)
	go func() {
		defer pw.Close()
		for {
			resp, err := stream.Recv()
			if err == io.EOF {
				synthErr <- nil
				return
			}
			if err != nil {
				pw.CloseWithError(err)
				synthErr <- fmt.Errorf("failed to receive audio data: %w", err)
				return
			}
			if chunk := resp.GetAudioChunk(); chunk != nil {
				if _, err := pw.Write(chunk.GetData()); err != nil {
					synthErr <- nil // reader went away; its error wins
					return
				}
			}
		}
	}()

	decoder, err := mp3.NewDecoder(pr)
	if err != nil {
		return fmt.Errorf("failed to decode audio: %w", err)
	}

	if err := e.player.Open(decoder.SampleRate()); err != nil {
		return fmt.Errorf("failed to open playback stream: %w", err)
	}
	defer e.player.Close()

	notify(speech.Event{Type: speech.EventStart})

	pcm := make(chan []byte, 16)
	decodeErr := make(chan error, 1)
	go func() {
		defer close(pcm)
		for {
			buf := make([]byte, pcmChunkSize)
			n, err := decoder.Read(buf)
			if n > 0 {
				select {
				case pcm <- buf[:n]:
				case <-ctx.Done():
					decodeErr <- nil
					return
				}
			}
			if err == io.EOF {
				decodeErr <- nil
				return
			}
			if err != nil {
				decodeErr <- fmt.Errorf("failed to read decoded audio: %w", err)
				return
			}
		}
	}()

	if err := e.player.PlayStream(ctx, pcm); err != nil {
		return err
	}
	if err := <-decodeErr; err != nil {
		return err
	}
	return <-synthErr
}

func (e *Engine) buildRequest(text string, opts speech.Options) *ttspb.UtteranceSynthesisRequest {
	req := &ttspb.UtteranceSynthesisRequest{}
	req.SetModel(defaultModel)
	req.SetText(text)

	voiceHint := &ttspb.Hints{}
	voiceHint.SetVoice(opts.Voice)

	speedHint := &ttspb.Hints{}
	speedHint.SetSpeed(opts.Rate)

	volumeHint := &ttspb.Hints{}
	volumeHint.SetVolume(opts.Volume)

	hints := []*ttspb.Hints{voiceHint, speedHint, volumeHint}
	if opts.Pitch != 0 {
		pitchHint := &ttspb.Hints{}
		pitchHint.SetPitchShift(opts.Pitch)
		hints = append(hints, pitchHint)
	}
	req.SetHints(hints)

	containerAudio := &ttspb.ContainerAudio{}
	containerAudio.SetContainerAudioType(ttspb.ContainerAudio_MP3)
	audioSpec := &ttspb.AudioFormatOptions{}
	audioSpec.SetContainerAudio(containerAudio)
	req.SetOutputAudioSpec(audioSpec)

	req.SetLoudnessNormalizationType(ttspb.UtteranceSynthesisRequest_LUFS)
	return req
}

func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.speaking || e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.mu.Unlock()
	e.player.Pause()
}

func (e *Engine) Resume() {
	e.mu.Lock()
	if !e.speaking || !e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = false
	e.mu.Unlock()
	e.player.Resume()
}

func (e *Engine) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (e *Engine) IsSpeaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speaking
}

func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Engine) Close() error {
	e.Cancel()
	e.player.Terminate()
	return e.conn.Close()
}
