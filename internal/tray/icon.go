package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

const iconSize = 22

var (
	colorIdle      = color.RGBA{200, 200, 200, 255}
	colorRecording = color.RGBA{255, 59, 48, 255}
	colorDegraded  = color.RGBA{255, 149, 0, 255}
)

var icons = map[State][]byte{}

func init() {
	for _, s := range []State{Idle, Recording, Degraded} {
		icons[s] = drawIcon(stateColor(s))
	}
}

// Icon returns the PNG shown for s.
func Icon(s State) []byte {
	if b, ok := icons[s]; ok {
		return b
	}
	return icons[Idle]
}

func stateColor(s State) color.RGBA {
	switch s {
	case Recording:
		return colorRecording
	case Degraded:
		return colorDegraded
	default:
		return colorIdle
	}
}

// drawIcon paints a filled dot on a transparent square.
func drawIcon(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	center := float64(iconSize-1) / 2
	radius := float64(iconSize)/2 - 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx := float64(x) - center
			dy := float64(y) - center
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
