// Package audio captures microphone input for transcription. Samples are
// buffered as 16-bit PCM, the format the transcription API consumes, so a
// finished recording converts to WAV without resampling.
package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// Recorder captures audio from the default microphone into an int16 buffer.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32
	channels   uint32

	mu        sync.Mutex
	device    *malgo.Device
	samples   []int16
	recording bool
}

// NewRecorder initializes the audio backend. Call Close when done.
func NewRecorder(sampleRate, channels uint32) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: init context: %w", err)
	}

	return &Recorder{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Start begins capturing from the default microphone. It fails if a capture
// is already running or the device cannot be opened; both leave the
// recorder usable for a later attempt.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("audio: capture already running")
	}
	r.samples = r.samples[:0]
	r.recording = true
	r.mu.Unlock()

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = r.channels
	cfg.SampleRate = r.sampleRate

	device, err := malgo.InitDevice(r.ctx.Context, cfg, malgo.DeviceCallbacks{Data: r.onData})
	if err != nil {
		r.abort()
		return fmt.Errorf("audio: open capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		r.abort()
		return fmt.Errorf("audio: start capture device: %w", err)
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()

	return nil
}

// Stop ends the capture and returns the recorded samples. It returns nil
// when no capture was running.
func (r *Recorder) Stop() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil
	}
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false

	out := make([]int16, len(r.samples))
	copy(out, r.samples)
	return out
}

// IsRecording reports whether a capture is running.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Duration converts a sample count into wall-clock recording time.
func (r *Recorder) Duration(sampleCount int) time.Duration {
	frames := sampleCount / int(r.channels)
	return time.Duration(frames) * time.Second / time.Duration(r.sampleRate)
}

// SampleRate returns the configured capture rate.
func (r *Recorder) SampleRate() uint32 { return r.sampleRate }

// Channels returns the configured channel count.
func (r *Recorder) Channels() uint32 { return r.channels }

// Close releases the audio backend.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false
	r.mu.Unlock()

	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: uninit context: %w", err)
		}
		r.ctx.Free()
	}
	return nil
}

func (r *Recorder) abort() {
	r.mu.Lock()
	r.recording = false
	r.mu.Unlock()
}

// onData is the malgo callback delivering raw little-endian S16 frames.
func (r *Recorder) onData(_, data []byte, frameCount uint32) {
	samples := bytesToInt16(data, frameCount*r.channels)

	r.mu.Lock()
	if r.recording {
		r.samples = append(r.samples, samples...)
	}
	r.mu.Unlock()
}

// bytesToInt16 decodes little-endian 16-bit PCM bytes.
func bytesToInt16(data []byte, sampleCount uint32) []int16 {
	n := int(sampleCount)
	if max := len(data) / 2; n > max {
		n = max
	}
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[2*i : 2*i+2]))
	}
	return samples
}
