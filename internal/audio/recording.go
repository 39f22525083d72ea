package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// AudioRecording is the immutable result of one start/stop cycle
type AudioRecording struct {
	ID              uuid.UUID `json:"id"`
	AudioData       []float32 `json:"audioData"`
	SampleRate      uint32    `json:"sampleRate"`
	Channels        uint16    `json:"channels"`
	DurationSeconds float32   `json:"durationSeconds"`
}

// Duration returns len(samples) / (sampleRate * channels) in seconds
func Duration(samples int, sampleRate uint32, channels uint16) float32 {
	if sampleRate == 0 || channels == 0 {
		return 0
	}
	return float32(samples) / (float32(sampleRate) * float32(channels))
}

// NewRecording wraps captured samples; ownership of samples moves to the recording
func NewRecording(samples []float32, sampleRate uint32, channels uint16) *AudioRecording {
	if samples == nil {
		samples = []float32{}
	}
	return &AudioRecording{
		ID:              uuid.New(),
		AudioData:       samples,
		SampleRate:      sampleRate,
		Channels:        channels,
		DurationSeconds: Duration(len(samples), sampleRate, channels),
	}
}

// Frames returns the number of interleaved frames
func (r *AudioRecording) Frames() int {
	if r.Channels == 0 {
		return 0
	}
	return len(r.AudioData) / int(r.Channels)
}

// EncodeWAV writes the recording as 16-bit PCM WAV
func (r *AudioRecording) EncodeWAV(w io.WriteSeeker) error {
	if r.SampleRate == 0 || r.Channels == 0 {
		return fmt.Errorf("invalid recording format: %dHz, %d channels", r.SampleRate, r.Channels)
	}

	enc := wav.NewEncoder(w, int(r.SampleRate), 16, int(r.Channels), 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: int(r.Channels),
			SampleRate:  int(r.SampleRate),
		},
		Data:           make([]int, len(r.AudioData)),
		SourceBitDepth: 16,
	}
	for i, s := range r.AudioData {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf.Data[i] = int(s * 32767)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}

// WriteWAV writes the recording to a WAV file at path
func (r *AudioRecording) WriteWAV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}

	if err := r.EncodeWAV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
