// Package hotkey registers a global keyboard shortcut with the desktop.
package hotkey

import (
	"context"
	"fmt"
	"log"

	"golang.design/x/hotkey"

	"github.com/whisperclip/whisperclip/internal/shortcut"
)

// Listener owns one registered global shortcut.
type Listener struct {
	shortcut shortcut.Shortcut
	hk       *hotkey.Hotkey
}

func Register(sc shortcut.Shortcut) (*Listener, error) {
	key, ok := keys[sc.Key]
	if !ok {
		return nil, fmt.Errorf("key %q has no global hotkey mapping", sc.Key)
	}
	mods := make([]hotkey.Modifier, 0, len(sc.Modifiers))
	for _, m := range sc.Modifiers {
		mod, ok := modifiers[m]
		if !ok {
			return nil, fmt.Errorf("modifier %s is not supported on this platform", m)
		}
		mods = append(mods, mod)
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("register %s: %w", sc, err)
	}
	log.Printf("Hotkey: %s registered", sc)
	return &Listener{shortcut: sc, hk: hk}, nil
}

func (l *Listener) Shortcut() shortcut.Shortcut { return l.shortcut }

// Run calls onPress for every key down until ctx is done, then releases the
// shortcut.
func (l *Listener) Run(ctx context.Context, onPress func()) {
	defer func() {
		if err := l.hk.Unregister(); err != nil {
			log.Printf("Hotkey: unregister %s failed: %v", l.shortcut, err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-l.hk.Keydown():
			if !ok {
				return
			}
			onPress()
		}
	}
}
