package capture

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clip is a finalized recording: all captured chunks concatenated and
// encoded into one playable WAV file.
type Clip struct {
	Path       string
	PCM        []byte
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Empty reports a zero clip, the result of stopping a session that was not
// recording.
func (c Clip) Empty() bool {
	return c.Path == "" && len(c.PCM) == 0
}

// Filename returns the base name used when uploading the clip.
func (c Clip) Filename() string {
	if c.Path == "" {
		return "recording.wav"
	}
	return filepath.Base(c.Path)
}

func finalizeClip(pcm []byte, sampleRate, channels int) (Clip, error) {
	file, err := os.CreateTemp("", "meetscribe_clip_*.wav")
	if err != nil {
		return Clip{}, fmt.Errorf("temp file: %w", err)
	}
	defer file.Close()

	if err := writePCMToWav(file, pcm, sampleRate, channels); err != nil {
		os.Remove(file.Name())
		return Clip{}, err
	}

	return Clip{
		Path:       file.Name(),
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   pcmDuration(len(pcm), sampleRate, channels),
	}, nil
}

func pcmDuration(byteLen, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	samples := byteLen / 2 / channels
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

func writePCMToWav(file *os.File, pcm []byte, sampleRate int, channels int) error {
	if len(pcm)%2 != 0 {
		return fmt.Errorf("pcm payload not aligned")
	}
	buffer := &audio.IntBuffer{Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate}}
	samples := make([]int, len(pcm)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buffer.Data = samples

	enc := wav.NewEncoder(file, sampleRate, 16, channels, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// ClipFromFile wraps a pre-recorded file as an already-finalized clip,
// bypassing capture entirely. WAV files get their duration decoded; other
// formats are passed through untouched for the backend to handle.
func ClipFromFile(path string) (Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("open clip file: %w", err)
	}
	defer file.Close()

	clip := Clip{Path: path}
	if filepath.Ext(path) == ".wav" {
		dec := wav.NewDecoder(file)
		if dur, err := dec.Duration(); err == nil {
			clip.Duration = dur
		}
		if dec.SampleRate > 0 {
			clip.SampleRate = int(dec.SampleRate)
			clip.Channels = int(dec.NumChans)
		}
	}
	return clip, nil
}

// ReadDuration decodes the duration of a finalized WAV clip from disk.
func ReadDuration(path string) (time.Duration, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return wav.NewDecoder(file).Duration()
}
