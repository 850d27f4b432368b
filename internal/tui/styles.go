package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

const logoASCII = `
          _     _                      _ _
__      _| |__ (_)___ _ __   ___ _ __ | (_)_ __
\ \ /\ / / '_ \| / __| '_ \ / _ \ '__|| | | '_ \
 \ V  V /| | | | \__ \ |_) |  __/ | / __| | |_) |
  \_/\_/ |_| |_|_|___/ .__/ \___|_| \___|_| .__/
                     |_|                  |_|`

func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}
