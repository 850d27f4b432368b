// Package shortcut parses keyboard shortcuts written as "alt+shift+r".
package shortcut

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Modifier int

const (
	Ctrl Modifier = iota
	Shift
	Alt
	Super
)

func (m Modifier) String() string {
	switch m {
	case Ctrl:
		return "ctrl"
	case Shift:
		return "shift"
	case Alt:
		return "alt"
	case Super:
		return "super"
	default:
		return fmt.Sprintf("modifier(%d)", int(m))
	}
}

var modifierNames = map[string]Modifier{
	"ctrl":    Ctrl,
	"control": Ctrl,
	"shift":   Shift,
	"alt":     Alt,
	"option":  Alt,
	"super":   Super,
	"cmd":     Super,
	"win":     Super,
	"meta":    Super,
}

var keyAliases = map[string]string{
	"return": "enter",
	"esc":    "escape",
}

var namedKeys = map[string]bool{
	"space":  true,
	"enter":  true,
	"tab":    true,
	"escape": true,
	"delete": true,
	"left":   true,
	"right":  true,
	"up":     true,
	"down":   true,
}

// Shortcut is a key pressed together with a set of modifiers.
type Shortcut struct {
	Modifiers []Modifier
	Key       string
}

// Parse reads a '+' separated shortcut. Names are case insensitive and the
// last element is the key. At least one modifier is required so the
// shortcut does not swallow ordinary typing.
func Parse(s string) (Shortcut, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) < 2 {
		return Shortcut{}, fmt.Errorf("invalid shortcut %q: need at least one modifier and a key", s)
	}

	seen := map[Modifier]bool{}
	var sc Shortcut
	for _, p := range parts[:len(parts)-1] {
		p = strings.TrimSpace(p)
		mod, ok := modifierNames[p]
		if !ok {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: unknown modifier %q", s, p)
		}
		if seen[mod] {
			return Shortcut{}, fmt.Errorf("invalid shortcut %q: duplicate modifier %q", s, p)
		}
		seen[mod] = true
		sc.Modifiers = append(sc.Modifiers, mod)
	}
	sort.Slice(sc.Modifiers, func(i, j int) bool { return sc.Modifiers[i] < sc.Modifiers[j] })

	key := strings.TrimSpace(parts[len(parts)-1])
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	if !validKey(key) {
		return Shortcut{}, fmt.Errorf("invalid shortcut %q: unsupported key %q", s, key)
	}
	sc.Key = key
	return sc, nil
}

func validKey(key string) bool {
	if len(key) == 1 {
		c := key[0]
		return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
	}
	if namedKeys[key] {
		return true
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(key, "f")); err == nil && key[0] == 'f' {
		return n >= 1 && n <= 12 && key == "f"+strconv.Itoa(n)
	}
	return false
}

func (s Shortcut) Has(m Modifier) bool {
	for _, mod := range s.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

// String returns the canonical form, modifiers in ctrl, shift, alt, super
// order.
func (s Shortcut) String() string {
	parts := make([]string, 0, len(s.Modifiers)+1)
	for _, m := range s.Modifiers {
		parts = append(parts, m.String())
	}
	parts = append(parts, s.Key)
	return strings.Join(parts, "+")
}

// Label is the human form shown in menus, e.g. "Alt+Shift+R".
func (s Shortcut) Label() string {
	parts := make([]string, 0, len(s.Modifiers)+1)
	for _, m := range s.Modifiers {
		name := m.String()
		parts = append(parts, strings.ToUpper(name[:1])+name[1:])
	}
	key := s.Key
	if len(key) == 1 || strings.HasPrefix(key, "f") {
		key = strings.ToUpper(key)
	} else {
		key = strings.ToUpper(key[:1]) + key[1:]
	}
	parts = append(parts, key)
	return strings.Join(parts, "+")
}
