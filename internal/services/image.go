package services

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"

	jpegQuality = 85
)

// NormalizeImage validates that data is a JPEG or PNG and downscales
// it to maxWidth, preserving aspect ratio. Images already within
// maxWidth are returned re-encoded but unscaled. The detected
// content type is returned alongside the bytes.
func NormalizeImage(data []byte, maxWidth int) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrInvalidInput)
	}

	ctype := http.DetectContentType(data)
	if ctype != mimeJPEG && ctype != mimePNG {
		return nil, "", fmt.Errorf("%w: unsupported image type %s", ErrInvalidInput, ctype)
	}

	original, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: undecodable image", ErrInvalidInput)
	}

	bounds := original.Bounds()
	if bounds.Dx() <= maxWidth {
		encoded, err := encodeImage(original, ctype)
		if err != nil {
			return nil, "", err
		}
		return encoded, ctype, nil
	}

	ratio := float64(maxWidth) / float64(bounds.Dx())
	height := int(float64(bounds.Dy()) * ratio)
	if height < 1 {
		height = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), original, bounds, draw.Over, nil)

	encoded, err := encodeImage(scaled, ctype)
	if err != nil {
		return nil, "", err
	}
	return encoded, ctype, nil
}

func encodeImage(img image.Image, ctype string) ([]byte, error) {
	var buf bytes.Buffer
	switch ctype {
	case mimeJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
	case mimePNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported image type %s", ErrInvalidInput, ctype)
	}
	return buf.Bytes(), nil
}
