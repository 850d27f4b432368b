package injection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Backend writes text to one clipboard implementation.
type Backend interface {
	Name() string
	Available() error
	Write(ctx context.Context, text string) error
}

// Config for transcript delivery
type Config struct {
	Backends []string      // tried in order: "clipboard", "wl-copy"
	Timeout  time.Duration // per backend write
}

// DefaultConfig returns sensible defaults for injection
func DefaultConfig() Config {
	return Config{
		Backends: []string{"clipboard", "wl-copy"},
		Timeout:  3 * time.Second,
	}
}

// Injector delivers transcripts to the clipboard, falling back through the
// configured backends until one succeeds.
type Injector struct {
	config   Config
	backends []Backend
}

// NewInjector creates an injector with the given config. Unknown backend
// names are an error.
func NewInjector(config Config) (*Injector, error) {
	backends := make([]Backend, 0, len(config.Backends))
	for _, name := range config.Backends {
		b, err := backendByName(name)
		if err != nil {
			return nil, err
		}
		backends = append(backends, b)
	}
	return NewInjectorWithBackends(config, backends...), nil
}

// NewInjectorWithBackends builds an injector around explicit backends.
func NewInjectorWithBackends(config Config, backends ...Backend) *Injector {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Injector{config: config, backends: backends}
}

func backendByName(name string) (Backend, error) {
	switch name {
	case "clipboard":
		return systemClipboard{}, nil
	case "wl-copy":
		return wlClipboard{}, nil
	default:
		return nil, fmt.Errorf("unknown injection backend: %s", name)
	}
}

// Deliver copies text to the clipboard. Empty text is delivered as is so the
// clipboard reflects a silent recording.
func (i *Injector) Deliver(ctx context.Context, text string) error {
	if len(i.backends) == 0 {
		return fmt.Errorf("no injection backends configured")
	}

	var errs []error
	for _, b := range i.backends {
		if err := b.Available(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}

		writeCtx, cancel := context.WithTimeout(ctx, i.config.Timeout)
		err := b.Write(writeCtx, text)
		cancel()
		if err == nil {
			log.Printf("Injection: copied %d characters via %s", len(text), b.Name())
			return nil
		}

		log.Printf("Injection: %s failed: %v", b.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}

	return fmt.Errorf("all injection backends failed: %w", errors.Join(errs...))
}
