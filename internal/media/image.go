// AngelaMos | 2026
// image.go

package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	MaxImageDimension = 1600
	JPEGQuality       = 80
)

type Processed struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// Compress decodes an uploaded image, scales it down to MaxImageDimension on
// its longest side and re-encodes it. Images with transparency stay PNG.
func Compress(data []byte) (*Processed, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := resize(src, MaxImageDimension)
	bounds := img.Bounds()

	var buf bytes.Buffer
	out := &Processed{Width: bounds.Dx(), Height: bounds.Dy()}

	if hasAlpha(img) {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		out.ContentType = "image/png"
		out.Extension = ".png"
	} else {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		out.ContentType = "image/jpeg"
		out.Extension = ".jpg"
	}

	out.Data = buf.Bytes()
	return out, nil
}

func resize(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}
