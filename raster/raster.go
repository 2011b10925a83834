// Package raster decodes source images and re-encodes them into the
// embeddable formats the PDF writer accepts.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // register decoders
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format tags an encoded image payload.
type Format string

const (
	FormatJPEG Format = "jpeg"
)

var (
	ErrUnsupportedSourceFormat = errors.New("raster: unsupported source format")
	ErrUnsupportedTargetFormat = errors.New("raster: unsupported target format")
	ErrDecodeFailed            = errors.New("raster: image decode failed")
	ErrEncodeFailed            = errors.New("raster: image encode failed")
)

// inputTypes maps declared MIME types to the registered decoders.
var inputTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

// Supported reports whether a declared MIME type is in the input set.
func Supported(mimeType string) bool { return inputTypes[mimeType] }

// Decoded holds flattened pixel data for one source image.
// Pix is NRGBA, 4 bytes per pixel, row-major.
type Decoded struct {
	Width  int
	Height int
	Pix    []byte
	Gray   bool
}

// Encoded is a compressed image payload ready for embedding.
type Encoded struct {
	Format Format
	Width  int
	Height int
	Gray   bool
	Data   []byte
}

// Decode parses source bytes declared as mimeType and flattens them to
// non-premultiplied RGBA. The declared type is validated against the
// input set before any decode work happens.
func Decode(data []byte, mimeType string) (*Decoded, error) {
	if !Supported(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceFormat, mimeType)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecodeFailed)
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)

	_, gray := img.(*image.Gray)
	return &Decoded{Width: w, Height: h, Pix: nrgba.Pix, Gray: gray}, nil
}

// Encode compresses decoded pixels into the target format. The only
// embeddable target is JPEG.
func Encode(d *Decoded, target Format) (*Encoded, error) {
	if target != FormatJPEG {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTargetFormat, target)
	}
	var src image.Image
	if d.Gray {
		src = toGray(d)
	} else {
		src = &image.NRGBA{
			Pix:    d.Pix,
			Stride: d.Width * 4,
			Rect:   image.Rect(0, 0, d.Width, d.Height),
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return &Encoded{
		Format: FormatJPEG,
		Width:  d.Width,
		Height: d.Height,
		Gray:   d.Gray,
		Data:   buf.Bytes(),
	}, nil
}

func toGray(d *Decoded) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, d.Width, d.Height))
	for i := 0; i < d.Width*d.Height; i++ {
		// Pix came from an *image.Gray, so R==G==B.
		g.Pix[i] = d.Pix[i*4]
	}
	return g
}
