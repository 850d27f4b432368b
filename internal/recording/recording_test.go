package recording

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/whisperclip/whisperclip/internal/testutil"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.SampleRate != 44100 {
		t.Errorf("default sample rate should be 44100, got %d", config.SampleRate)
	}
	if config.Channels != 1 {
		t.Errorf("default channels should be 1, got %d", config.Channels)
	}
	if config.FramesPerBuffer != 1024 {
		t.Errorf("default frames per buffer should be 1024, got %d", config.FramesPerBuffer)
	}
	if config.Device != "" {
		t.Errorf("default device should be empty, got %s", config.Device)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, true},
		{"stereo", func(c *Config) { c.Channels = 2 }, true},
		{"zero channels", func(c *Config) { c.Channels = 0 }, true},
		{"negative frames", func(c *Config) { c.FramesPerBuffer = -1 }, true},
		{"named device", func(c *Config) { c.Device = "alsa_input.usb" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildPwRecordArgs(t *testing.T) {
	tests := []struct {
		name   string
		device string
		want   []string
	}{
		{
			name: "default device",
			want: []string{"--format", "f32", "--rate", "44100", "--channels", "1", "-"},
		},
		{
			name:   "named device",
			device: "mic",
			want:   []string{"--format", "f32", "--rate", "44100", "--channels", "1", "-", "--target", "mic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Device = tt.device
			got := buildPwRecordArgs(config)
			if len(got) != len(tt.want) {
				t.Fatalf("args = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("arg %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func encodeFloats(samples []float32) []byte {
	var buf bytes.Buffer
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(s))
	}
	return buf.Bytes()
}

// oddReader returns data in reads of a fixed size that does not align with
// sample boundaries.
type oddReader struct {
	data []byte
	step int
}

func (r *oddReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.step
	if n > len(p) {
		n = len(p)
	}
	if n > len(r.data) {
		n = len(r.data)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestReadFloat32Stream(t *testing.T) {
	want := []float32{0, 0.5, -0.5, 1, -1, 0.25, 0.125}

	tests := []struct {
		name string
		step int
	}{
		{"aligned reads", 8},
		{"split samples", 3},
		{"single bytes", 1},
		{"one read", 1 << 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &oddReader{data: encodeFloats(want), step: tt.step}
			var got []float32
			err := readFloat32Stream(context.Background(), r, 4, func(s []float32) {
				got = append(got, s...)
			})
			if err != nil {
				t.Fatalf("readFloat32Stream() error = %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("got %d samples, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestReadFloat32StreamError(t *testing.T) {
	boom := errors.New("pipe broke")
	r := io.MultiReader(bytes.NewReader(encodeFloats([]float32{0.1})), &failingReader{err: boom})

	err := readFloat32Stream(context.Background(), r, 16, func([]float32) {})
	if !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestRecorderStartStop(t *testing.T) {
	source := &testutil.FakeSource{ChunkSize: 64, Interval: time.Millisecond}
	recorder := NewRecorder(source)

	var mu sync.Mutex
	received := 0
	errCh, err := recorder.Start(context.Background(), func(s []float32) {
		mu.Lock()
		received += len(s)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !recorder.IsRecording() {
		t.Error("recorder should be recording after Start")
	}

	testutil.WaitForCondition(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return received > 0
	}, time.Second)

	recorder.Stop()
	if !recorder.Wait(time.Second) {
		t.Fatal("capture goroutine did not exit")
	}
	if recorder.IsRecording() {
		t.Error("recorder should not be recording after Stop")
	}
	if err, ok := <-errCh; ok {
		t.Errorf("clean stop should not report an error, got %v", err)
	}
}

func TestRecorderDoubleStart(t *testing.T) {
	source := &testutil.FakeSource{}
	recorder := NewRecorder(source)

	if _, err := recorder.Start(context.Background(), func([]float32) {}); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	defer func() {
		recorder.Stop()
		recorder.Wait(time.Second)
	}()

	if _, err := recorder.Start(context.Background(), func([]float32) {}); err == nil {
		t.Error("second Start() should fail while recording")
	}
}

func TestRecorderCaptureError(t *testing.T) {
	tests := []struct {
		name   string
		source *testutil.FakeSource
	}{
		{
			name:   "fails on open",
			source: &testutil.FakeSource{FailOnOpen: true, FailWith: ErrDevice},
		},
		{
			name: "fails mid stream",
			source: &testutil.FakeSource{
				Chunks:   [][]float32{make([]float32, 32), make([]float32, 32)},
				FailWith: ErrDevice,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := NewRecorder(tt.source)
			errCh, err := recorder.Start(context.Background(), func([]float32) {})
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			select {
			case err := <-errCh:
				if !IsCaptureError(err) {
					t.Errorf("expected CaptureError, got %T: %v", err, err)
				}
				if !errors.Is(err, ErrDevice) {
					t.Errorf("expected error to wrap ErrDevice, got %v", err)
				}
			case <-time.After(time.Second):
				t.Fatal("timeout waiting for capture error")
			}

			if !recorder.Wait(time.Second) {
				t.Fatal("capture goroutine did not exit")
			}
			if recorder.IsRecording() {
				t.Error("recorder should not be recording after a capture error")
			}
		})
	}
}

func TestRecorderRestart(t *testing.T) {
	source := &testutil.FakeSource{ChunkSize: 16}
	recorder := NewRecorder(source)

	for i := 0; i < 3; i++ {
		if _, err := recorder.Start(context.Background(), func([]float32) {}); err != nil {
			t.Fatalf("Start() #%d error = %v", i, err)
		}
		recorder.Stop()
		if !recorder.Wait(time.Second) {
			t.Fatalf("capture #%d did not exit", i)
		}
	}

	if source.Runs() != 3 {
		t.Errorf("expected 3 runs, got %d", source.Runs())
	}
}

func TestCaptureErrorMessage(t *testing.T) {
	err := &CaptureError{Source: "pipewire", Err: errors.New("device gone")}
	if err.Error() != "pipewire capture: device gone" {
		t.Errorf("unexpected message %q", err.Error())
	}

	var nilErr *CaptureError
	if nilErr.Error() != "capture error" {
		t.Errorf("nil CaptureError message = %q", nilErr.Error())
	}
}
