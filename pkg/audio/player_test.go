package audio

import (
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	frames [][][]float32
}

func (s *captureSink) WriteSamples(samples [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, samples)
	return nil
}

func (s *captureSink) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *captureSink) totalSamples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, frame := range s.frames {
		n += len(frame[0])
	}
	return n
}

// hasSample reports whether any captured frame contains the given value.
func (s *captureSink) hasSample(v float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, frame := range s.frames {
		for _, sample := range frame[0] {
			if sample == v {
				return true
			}
		}
	}
	return false
}

// constantPayload builds a base64 mono payload of n samples, all set to value.
func constantPayload(n int, value int16) string {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = value
	}
	return base64.StdEncoding.EncodeToString(encodePCM(samples...))
}

func TestPlayStreamsFramesToSink(t *testing.T) {
	sink := &captureSink{}
	p := NewPlayer(sink)

	// One and a half 100ms frames at 24kHz.
	total := DefaultSampleRate/10 + DefaultSampleRate/20
	require.NoError(t, p.Play(constantPayload(total, 16384)))

	assert.Eventually(t, func() bool {
		return sink.totalSamples() == total
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, 2, sink.frameCount(), "partial last frame still goes out")
	assert.InDelta(t, 0.5, sink.frames[0][0][0], 1e-6)
}

func TestPlayReplacesActivePlayback(t *testing.T) {
	sink := &captureSink{}
	p := NewPlayer(sink)
	defer p.Stop()

	// Long enough that the first playback cannot finish before the second starts.
	longFrames := 50
	require.NoError(t, p.Play(constantPayload(longFrames*DefaultSampleRate/10, 8192)))

	assert.Eventually(t, func() bool {
		return sink.frameCount() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, p.Play(constantPayload(DefaultSampleRate/10, -16384)))

	assert.Eventually(t, func() bool {
		return sink.hasSample(-0.5)
	}, 2*time.Second, 10*time.Millisecond)

	assert.Less(t, sink.frameCount(), longFrames, "first playback stopped early")
}

func TestConcurrentPlayLeavesOnePump(t *testing.T) {
	sink := &captureSink{}
	p := NewPlayer(sink)

	// Racing Play calls must never orphan a pump; after Stop nothing may keep
	// writing.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v int16) {
			defer wg.Done()
			_ = p.Play(constantPayload(20*DefaultSampleRate/10, v))
		}(int16(1000 * (i + 1)))
	}
	wg.Wait()

	p.Stop()
	quiesced := sink.frameCount()
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, quiesced, sink.frameCount())
}

func TestStopIdleIsNoOp(t *testing.T) {
	p := NewPlayer(&captureSink{})

	p.Stop()
	p.Stop()
}

func TestPlayInvalidPayload(t *testing.T) {
	p := NewPlayer(&captureSink{})

	assert.Error(t, p.Play("not base64!!!"))
}
