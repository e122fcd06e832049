package imaging

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var (
	placeholderBackground = color.RGBA{R: 0xd9, G: 0xd9, B: 0xd9, A: 0xff}
	placeholderFrame      = color.RGBA{R: 0xa6, G: 0xa6, B: 0xa6, A: 0xff}
)

// Placeholder renders the JPEG stored for a pin whose album is empty: a light
// gray tile with a darker inset frame.
func Placeholder(width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid placeholder dimensions: %dx%d", width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderBackground}, image.Point{}, draw.Src)

	inset := min(width, height) / 8
	border := max(1, min(width, height)/40)
	outer := image.Rect(inset, inset, width-inset, height-inset)
	if outer.Dx() > 2*border && outer.Dy() > 2*border {
		draw.Draw(img, outer, &image.Uniform{C: placeholderFrame}, image.Point{}, draw.Src)
		draw.Draw(img, outer.Inset(border), &image.Uniform{C: placeholderBackground}, image.Point{}, draw.Src)
	}

	return encodeJPEG(img)
}
