package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"hamkae-backend/internal/common"
)

// Image quality floor. Photos below this resolution are useless to the
// judge, so they are rejected at upload instead of burning an API call.
const (
	MinImageWidth  = 200
	MinImageHeight = 200
)

// minBrightness is the average-luma floor (0..255). Near-black frames
// (lens covered, pocket shots) carry no evidence either way.
const minBrightness = 16.0

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

// ValidateImage checks content type, size and resolution of an upload.
// Returns the file extension to store the image under.
func ValidateImage(data []byte, contentType string, maxBytes int64) (string, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %s: %w", contentType, common.ErrValidation)
	}

	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("image exceeds %d bytes: %w", maxBytes, common.ErrValidation)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty image: %w", common.ErrValidation)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("undecodable image: %w", common.ErrValidation)
	}
	if format == "jpeg" {
		ext = "jpg"
	}

	if cfg.Width < MinImageWidth || cfg.Height < MinImageHeight {
		return "", fmt.Errorf("image %dx%d below minimum %dx%d: %w",
			cfg.Width, cfg.Height, MinImageWidth, MinImageHeight, common.ErrValidation)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("undecodable image: %w", common.ErrValidation)
	}
	if sampleBrightness(img) < minBrightness {
		return "", fmt.Errorf("image too dark: %w", common.ErrValidation)
	}

	return ext, nil
}

// sampleBrightness estimates average luma over a sparse pixel grid.
func sampleBrightness(img image.Image) float64 {
	bounds := img.Bounds()
	stepX := bounds.Dx() / 16
	stepY := bounds.Dy() / 16
	if stepX < 1 {
		stepX = 1
	}
	if stepY < 1 {
		stepY = 1
	}

	var sum float64
	var n int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			// Rec. 601 luma, scaled from 16-bit channels to 0..255.
			sum += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
