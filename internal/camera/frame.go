package camera

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedFrame is returned for frames that are not PNG or JPEG
var ErrUnsupportedFrame = errors.New("unsupported frame format")

// DecodeFrame checks the content type of an uploaded frame and decodes it
func DecodeFrame(data []byte, maxBytes int64) (image.Image, error) {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit of %d", len(data), maxBytes)
	}
	mtype := mimetype.Detect(data)
	if !mtype.Is("image/png") && !mtype.Is("image/jpeg") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFrame, mtype.String())
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return img, nil
}

// SyntheticFrame draws a portrait-sized placeholder: a vertical grey
// gradient with a lighter oval where a face would be
func SyntheticFrame(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	cx, cy := float64(width)/2, float64(height)*0.42
	rx, ry := float64(width)*0.22, float64(height)*0.2
	for y := 0; y < height; y++ {
		base := uint8(60 + 100*y/height)
		for x := 0; x < width; x++ {
			dx, dy := (float64(x)-cx)/rx, (float64(y)-cy)/ry
			v := base
			if dx*dx+dy*dy <= 1 {
				v = 210
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}
