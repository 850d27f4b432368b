package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/whisperclip/whisperclip/internal/shortcut"
)

// X11 reports alt as Mod1 and super as Mod4.
var modifiers = map[shortcut.Modifier]hotkey.Modifier{
	shortcut.Ctrl:  hotkey.ModCtrl,
	shortcut.Shift: hotkey.ModShift,
	shortcut.Alt:   hotkey.Mod1,
	shortcut.Super: hotkey.Mod4,
}
