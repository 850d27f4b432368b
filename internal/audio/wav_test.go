package audio

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConcat(t *testing.T) {
	got := Concat([][]float32{{0.1, 0.2}, {}, {0.3}})
	want := []float32{0.1, 0.2, 0.3}
	if len(got) != len(want) {
		t.Fatalf("Concat() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Concat()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want int
	}{
		{"silence", 0, 0},
		{"full scale", 1, 32767},
		{"negative full scale", -1, -32767},
		{"half", 0.5, 16383},
		{"clamped high", 1.7, 32767},
		{"clamped low", -3, -32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantize([]float32{tt.in})[0]
			if got != tt.want {
				t.Errorf("Quantize(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteReadWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")

	samples := make([]float32, CaptureSampleRate/10)
	for i := range samples {
		samples[i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/CaptureSampleRate))
	}

	if err := WriteWAV(path, samples, CaptureSampleRate); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	got, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if rate != CaptureSampleRate {
		t.Errorf("ReadWAV() rate = %d, want %d", rate, CaptureSampleRate)
	}
	if len(got) != len(samples) {
		t.Fatalf("ReadWAV() len = %d, want %d", len(got), len(samples))
	}

	const tolerance = 1.0 / 32767 * 2
	for i := range samples {
		if diff := math.Abs(float64(got[i] - samples[i])); diff > tolerance {
			t.Fatalf("sample %d: got %v, want %v (diff %v)", i, got[i], samples[i], diff)
		}
	}
}

func TestWriteWAVSilence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	samples := make([]float32, 2*CaptureSampleRate)

	if err := WriteWAV(path, samples, CaptureSampleRate); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// 44 byte header + 2 bytes per sample
	if want := int64(44 + 2*len(samples)); info.Size() != want {
		t.Errorf("file size = %d, want %d", info.Size(), want)
	}

	got, _, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if len(got) != 88200 {
		t.Errorf("ReadWAV() len = %d, want 88200", len(got))
	}
}

func TestWriteWAVInvalidRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := WriteWAV(path, []float32{0}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created for invalid input")
	}
}

func TestWriteWAVMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "clip.wav")
	if err := WriteWAV(path, []float32{0}, CaptureSampleRate); err == nil {
		t.Error("expected error when directory does not exist")
	}
}

func TestReadWAVInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("definitely not riff"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadWAV(path); err == nil {
		t.Error("expected error for invalid wav")
	}
}

func TestArtifactPath(t *testing.T) {
	dir := t.TempDir()
	now := time.Unix(1700000000, 0)

	a := ArtifactPath(dir, now)
	b := ArtifactPath(dir, now)

	if a == b {
		t.Errorf("ArtifactPath() returned duplicate names for the same second: %s", a)
	}
	if filepath.Dir(a) != dir {
		t.Errorf("ArtifactPath() dir = %s, want %s", filepath.Dir(a), dir)
	}
	if !strings.HasPrefix(filepath.Base(a), "audio_1700000000_") {
		t.Errorf("ArtifactPath() = %s, want audio_<unix>_ prefix", a)
	}
	if !IsArtifact(a) {
		t.Errorf("IsArtifact(%s) = false", a)
	}
}

func TestIsArtifact(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"audio_1700000000_abcd1234.wav", true},
		{"/tmp/x/audio_1.wav", true},
		{"audio_1.mp3", false},
		{"notes.wav", false},
	}
	for _, tt := range tests {
		if got := IsArtifact(tt.name); got != tt.want {
			t.Errorf("IsArtifact(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSweepArtifacts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"audio_1_a.wav", "audio_2_b.wav", "keep.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	n, err := SweepArtifacts(dir)
	if err != nil {
		t.Fatalf("SweepArtifacts() error = %v", err)
	}
	if n != 2 {
		t.Errorf("SweepArtifacts() removed %d, want 2", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}

	n, err = SweepArtifacts(filepath.Join(dir, "does-not-exist"))
	if err != nil || n != 0 {
		t.Errorf("SweepArtifacts(missing) = %d, %v; want 0, nil", n, err)
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(88200, CaptureSampleRate); got != 2*time.Second {
		t.Errorf("Duration() = %v, want 2s", got)
	}
	if got := Duration(10, 0); got != 0 {
		t.Errorf("Duration() with zero rate = %v, want 0", got)
	}
}
