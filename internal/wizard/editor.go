package wizard

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// Edit ranges
const (
	MinZoom       = 1.0
	MaxZoom       = 3.0
	MinBrightness = 0.0
	MaxBrightness = 200.0
)

// Edits are the cosmetic adjustments applied to the captured frame
type Edits struct {
	Zoom             float64 `json:"zoom"`
	Brightness       float64 `json:"brightness"`
	RemoveBackground bool    `json:"removeBackground"`
}

// DefaultEdits leaves the frame untouched
func DefaultEdits() Edits {
	return Edits{Zoom: 1, Brightness: 100}
}

// EditsUpdate changes some of the edits. Nil fields are left as they are.
type EditsUpdate struct {
	Zoom             *float64 `json:"zoom" validate:"omitempty,gte=1,lte=3"`
	Brightness       *float64 `json:"brightness" validate:"omitempty,gte=0,lte=200"`
	RemoveBackground *bool    `json:"removeBackground"`
}

// Apply returns e with the update merged in
func (u EditsUpdate) Apply(e Edits) Edits {
	if u.Zoom != nil {
		e.Zoom = *u.Zoom
	}
	if u.Brightness != nil {
		e.Brightness = *u.Brightness
	}
	if u.RemoveBackground != nil {
		e.RemoveBackground = *u.RemoveBackground
	}
	return e
}

// Render produces the edited image. Zoom crops a centred window of
// 1/zoom of the frame and scales it back to the full size; brightness
// multiplies every colour channel by brightness/100. RemoveBackground has
// no effect.
func Render(src image.Image, e Edits) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	zoom := clamp(e.Zoom, MinZoom, MaxZoom)
	cw, ch := int(float64(w)/zoom), int(float64(h)/zoom)
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	x0 := b.Min.X + (w-cw)/2
	y0 := b.Min.Y + (h-ch)/2
	crop := image.Rect(x0, y0, x0+cw, y0+ch)

	if zoom == 1 {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	}

	factor := clamp(e.Brightness, MinBrightness, MaxBrightness) / 100
	if factor != 1 {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := dst.RGBAAt(x, y)
				dst.SetRGBA(x, y, color.RGBA{
					R: scaleChannel(c.R, factor),
					G: scaleChannel(c.G, factor),
					B: scaleChannel(c.B, factor),
					A: c.A,
				})
			}
		}
	}
	return dst
}

// EncodePNG renders the edited image as PNG
func EncodePNG(src image.Image, e Edits) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(src, e)); err != nil {
		return nil, fmt.Errorf("failed to encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

func scaleChannel(v uint8, factor float64) uint8 {
	scaled := float64(v) * factor
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
