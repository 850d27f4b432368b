package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/whisperclip/whisperclip/internal/shortcut"
)

var modifiers = map[shortcut.Modifier]hotkey.Modifier{
	shortcut.Ctrl:  hotkey.ModCtrl,
	shortcut.Shift: hotkey.ModShift,
	shortcut.Alt:   hotkey.ModOption,
	shortcut.Super: hotkey.ModCmd,
}
