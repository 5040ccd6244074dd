package audio

import (
	"context"
	"sync"
	"time"
)

// Sink receives decoded, normalized sample frames. One frame is a per-channel
// slice of float32 samples.
type Sink interface {
	WriteSamples(samples [][]float32) error
}

// Player manages single-voice playback: starting a new playback always stops
// the current one first, so at most one voice is ever active. Stop with
// nothing playing is a no-op and never returns an error.
type Player struct {
	sink       Sink
	sampleRate int
	channels   int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPlayer(sink Sink) *Player {
	return &Player{
		sink:       sink,
		sampleRate: DefaultSampleRate,
		channels:   DefaultChannels,
	}
}

// Play decodes the payload and streams it to the sink in ~100ms frames, paced
// to the sample rate. Any active playback is stopped first; the stop and the
// replacement happen under one lock so two racing Play calls cannot both
// install a pump. Sink write errors end the playback silently.
func (p *Player) Play(base64Pcm string) error {
	data, err := Decode(base64Pcm)
	if err != nil {
		return err
	}
	samples := ToFloat32(data, p.channels)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, samples, done)
	return nil
}

// Stop halts the active playback immediately and waits for the pump to exit.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
}

func (p *Player) run(ctx context.Context, samples [][]float32, done chan struct{}) {
	defer close(done)

	if len(samples) == 0 || len(samples[0]) == 0 {
		return
	}

	frameLen := p.sampleRate / 10 // 100ms per frame
	total := len(samples[0])
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for offset := 0; offset < total; offset += frameLen {
		end := offset + frameLen
		if end > total {
			end = total
		}

		frame := make([][]float32, len(samples))
		for ch := range samples {
			frame[ch] = samples[ch][offset:end]
		}
		if err := p.sink.WriteSamples(frame); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
