package injection

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
)

// systemClipboard uses the platform clipboard (xclip/xsel/wl-clipboard on
// Linux, pbcopy on macOS, the Win32 API on Windows).
type systemClipboard struct{}

func (systemClipboard) Name() string { return "clipboard" }

func (systemClipboard) Available() error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility found")
	}
	return nil
}

func (systemClipboard) Write(ctx context.Context, text string) error {
	// WriteAll has no cancellation; the goroutine is abandoned on timeout
	errCh := make(chan error, 1)
	go func() { errCh <- clipboard.WriteAll(text) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wlClipboard shells out to wl-copy directly.
type wlClipboard struct{}

func (wlClipboard) Name() string { return "wl-copy" }

func (wlClipboard) Available() error {
	if _, err := exec.LookPath("wl-copy"); err != nil {
		return fmt.Errorf("wl-copy not found: %w (install wl-clipboard)", err)
	}
	return nil
}

func (wlClipboard) Write(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, "wl-copy")
	cmd.Stdin = strings.NewReader(text)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("wl-copy failed: %w", err)
	}
	return nil
}
