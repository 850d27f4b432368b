package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

const (
	// CaptureSampleRate is the rate the microphone is opened at.
	CaptureSampleRate = 44100
	// ModelSampleRate is what whisper models expect as input.
	ModelSampleRate = 16000

	bitDepth          = 16
	pcmFormat         = 1
	maxInt16          = 32767
	artifactStem      = "audio_"
	artifactExtension = ".wav"
)

var ErrInvalidWAV = errors.New("invalid wav file")

// Concat joins capture chunks in arrival order.
func Concat(chunks [][]float32) []float32 {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]float32, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// Quantize converts float samples in [-1, 1] to 16-bit PCM values.
// Out of range samples are clamped.
func Quantize(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int(s * maxInt16)
	}
	return out
}

// WriteWAV writes mono samples as a 16-bit PCM wav file.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, pcmFormat)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           Quantize(samples),
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("finalize wav: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

// ReadWAV decodes a 16-bit PCM wav file into mono float samples.
// Multi-channel files are downmixed by averaging.
func ReadWAV(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	if dec.BitDepth != bitDepth {
		return nil, 0, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		samples[i] = float32(sum) / float32(channels) / maxInt16
	}

	return samples, int(dec.SampleRate), nil
}

// ArtifactPath returns a unique wav path in dir. The name carries the unix
// timestamp so leftovers sort chronologically; the uuid suffix keeps two
// recordings stopped within the same second apart.
func ArtifactPath(dir string, now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := artifactStem + strconv.FormatInt(now.Unix(), 10) + "_" + id + artifactExtension
	return filepath.Join(dir, name)
}

// IsArtifact reports whether name looks like a file produced by ArtifactPath.
func IsArtifact(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, artifactStem) && strings.HasSuffix(base, artifactExtension)
}

// SweepArtifacts removes leftover recordings in dir and returns how many were removed.
func SweepArtifacts(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	var firstErr error
	for _, e := range entries {
		if e.IsDir() || !IsArtifact(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

// Duration returns the playback length of n samples at rate.
func Duration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}
