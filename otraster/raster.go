package otraster

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidRaster is returned for rasters with inconsistent geometry.
var ErrInvalidRaster = errors.New("invalid raster")

// Raster is a caller-owned 8-bit coverage buffer.
//
// Row y starts at Pixels[y*Stride]. Stride may exceed Width, e.g. for
// alignment; bytes between Width and Stride are never written.
type Raster struct {
	Width, Height int
	Stride        int // bytes per row
	DPI           int // device resolution, dots per inch
	Pixels        []byte
}

// NewRaster allocates a zeroed raster with Stride = width.
func NewRaster(width, height, dpi int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Stride: width,
		DPI:    dpi,
		Pixels: make([]byte, width*height),
	}
}

// Validate checks the geometry of r.
func (r *Raster) Validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: raster is nil", ErrInvalidRaster)
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: size %d×%d", ErrInvalidRaster, r.Width, r.Height)
	case r.Stride < r.Width:
		return fmt.Errorf("%w: stride %d < width %d", ErrInvalidRaster, r.Stride, r.Width)
	case r.DPI <= 0:
		return fmt.Errorf("%w: resolution of %d dpi", ErrInvalidRaster, r.DPI)
	case len(r.Pixels) < (r.Height-1)*r.Stride+r.Width:
		return fmt.Errorf("%w: %d bytes of pixel data for %d rows of stride %d",
			ErrInvalidRaster, len(r.Pixels), r.Height, r.Stride)
	}
	return nil
}

// At returns the coverage value of pixel (x, y), or 0 outside the raster.
func (r *Raster) At(x, y int) byte {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return 0
	}
	return r.Pixels[y*r.Stride+x]
}

// Clear resets all pixels to 0.
func (r *Raster) Clear() {
	clear(r.Pixels)
}

// Gray returns an image view of r, sharing its pixels. It is meant for
// handing the raster to image encoders.
func (r *Raster) Gray() *image.Gray {
	return &image.Gray{
		Pix:    r.Pixels,
		Stride: r.Stride,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// add blends coverage v into pixel i, saturating at 255.
func (r *Raster) add(i int, v byte) {
	s := int(r.Pixels[i]) + int(v)
	if s > 255 {
		s = 255
	}
	r.Pixels[i] = byte(s)
}
