// Package imaging scales downloaded photos and renders the placeholder shown
// for an album without photos.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 85

// Thumbnail scales the image to the given width, preserving its aspect ratio,
// and encodes it as JPEG. Images already narrower than width are returned
// unchanged.
func Thumbnail(imageData []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", width)
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	originalWidth, originalHeight := bounds.Dx(), bounds.Dy()
	if originalWidth <= width && format == "jpeg" {
		slog.Debug("thumbnail: image already within width; returning original", "width", originalWidth)
		return imageData, nil
	}
	if originalWidth < width {
		width = originalWidth
	}

	height := originalHeight * width / originalWidth
	if height < 1 {
		height = 1
	}
	slog.Debug("thumbnail: scaling image",
		"format", format,
		"orig_width", originalWidth,
		"orig_height", originalHeight,
		"width", width,
		"height", height)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return encodeJPEG(dst)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image to JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
