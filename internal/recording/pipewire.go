package recording

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// PipeWire captures through pw-record writing raw f32le samples to stdout.
type PipeWire struct {
	config Config
}

func NewPipeWire(config Config) *PipeWire {
	return &PipeWire{config: config}
}

func (p *PipeWire) Name() string { return "pipewire" }

func (p *PipeWire) Run(ctx context.Context, emit ChunkFunc) error {
	if err := p.config.Validate(); err != nil {
		return err
	}
	if err := CheckPipeWireAvailable(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDevice, err)
	}

	cmd := exec.CommandContext(ctx, "pw-record", buildPwRecordArgs(p.config)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start pw-record: %v", ErrDevice, err)
	}

	// Log stderr lines to aid diagnostics.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("Recording stderr: %s", scanner.Text())
		}
	}()

	readErr := readFloat32Stream(ctx, stdout, p.config.FramesPerBuffer, emit)
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil
	}
	if readErr != nil {
		return fmt.Errorf("%w: read audio: %v", ErrDevice, readErr)
	}
	if waitErr != nil {
		return fmt.Errorf("%w: pw-record exited: %v", ErrDevice, waitErr)
	}
	return fmt.Errorf("%w: pw-record exited unexpectedly", ErrDevice)
}

// readFloat32Stream decodes little endian float32 samples from r and emits
// them in chunks of up to frames samples. Partial samples are carried over
// between reads.
func readFloat32Stream(ctx context.Context, r io.Reader, frames int, emit ChunkFunc) error {
	buf := make([]byte, frames*4)
	var carry []byte

	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := buf[:n]
			if len(carry) > 0 {
				data = append(carry, data...)
				carry = nil
			}
			whole := len(data) / 4 * 4
			if whole > 0 {
				samples := make([]float32, whole/4)
				for i := range samples {
					samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
				}
				emit(samples)
			}
			if rest := data[whole:]; len(rest) > 0 {
				carry = append([]byte(nil), rest...)
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func buildPwRecordArgs(config Config) []string {
	args := []string{
		"--format", "f32",
		"--rate", strconv.Itoa(config.SampleRate),
		"--channels", strconv.Itoa(config.Channels),
		"-", // stdout
	}
	if config.Device != "" {
		args = append(args, "--target", config.Device)
	}
	return args
}

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	// Use a short timeout to avoid hangs on misconfigured systems.
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, "pw-cli", "info")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}
