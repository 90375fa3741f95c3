// Package icon renders the tray icons for the nudge notifier.
//
// Three everyday states exist plus a signed-out variant:
//   - Idle: hollow grey ring, signed in with nothing surfaced right now.
//   - Nudge: filled blue circle, a pull request is being surfaced.
//   - Urgent: white circle on an amber square, the display came from a
//     forced poll (sign-in or return from a long absence).
//   - SignedOut: grey ring with a gap, no session is held.
//
// Icons are drawn at 4x resolution and downsampled with Catmull-Rom
// interpolation for clean edges on KDE and GNOME trays.
package icon

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/draw"
)

// Size is the standard system tray icon size.
const Size = 48

// oversample is the supersampling factor used before downscaling.
const oversample = 4

// State identifies a tray icon variant.
type State int

// Icon states.
const (
	Idle State = iota
	Nudge
	Urgent
	SignedOut
)

var (
	grey  = color.RGBA{R: 128, G: 134, B: 139, A: 255}
	blue  = color.RGBA{R: 0, G: 120, B: 212, A: 255}
	amber = color.RGBA{R: 240, G: 160, B: 0, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

var (
	cacheMu sync.Mutex
	cache   = make(map[State][]byte)
)

// Render returns the PNG bytes for the given state. Results are cached;
// rendering the same state twice returns the same bytes.
func Render(state State) ([]byte, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if data, ok := cache[state]; ok {
		return data, nil
	}

	big := image.NewRGBA(image.Rect(0, 0, Size*oversample, Size*oversample))
	switch state {
	case Nudge:
		drawDisc(big, blue, 1.0)
	case Urgent:
		drawSquare(big, amber)
		drawDisc(big, white, 0.55)
	case SignedOut:
		drawRing(big, grey, 0.55)
		drawNotch(big)
	case Idle:
		drawRing(big, grey, 0.7)
	}

	small := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.CatmullRom.Scale(small, small.Bounds(), big, big.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, small); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	data := buf.Bytes()
	cache[state] = data
	return data, nil
}

// drawDisc fills a centered circle covering scale of the image radius.
func drawDisc(img *image.RGBA, fill color.RGBA, scale float64) {
	size := img.Bounds().Dx()
	center := float64(size) / 2
	radius := center * scale
	for py := range size {
		for px := range size {
			dx := float64(px) - center + 0.5
			dy := float64(py) - center + 0.5
			if math.Sqrt(dx*dx+dy*dy) <= radius {
				img.Set(px, py, fill)
			}
		}
	}
}

// drawRing draws a hollow circle; inner scale of the radius stays clear.
func drawRing(img *image.RGBA, fill color.RGBA, inner float64) {
	size := img.Bounds().Dx()
	center := float64(size) / 2
	outerR := center
	innerR := center * inner
	for py := range size {
		for px := range size {
			dx := float64(px) - center + 0.5
			dy := float64(py) - center + 0.5
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist <= outerR && dist >= innerR {
				img.Set(px, py, fill)
			}
		}
	}
}

// drawSquare fills the whole image, used as the warning backdrop.
func drawSquare(img *image.RGBA, fill color.RGBA) {
	size := img.Bounds().Dx()
	for py := range size {
		for px := range size {
			img.Set(px, py, fill)
		}
	}
}

// drawNotch clears a wedge from the top-right quadrant so the signed-out
// ring reads as "open".
func drawNotch(img *image.RGBA) {
	size := img.Bounds().Dx()
	transparent := color.RGBA{}
	for py := range size / 2 {
		for px := size / 2; px < size; px++ {
			if px-size/2 > py {
				img.Set(px, py, transparent)
			}
		}
	}
}
