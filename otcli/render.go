package main

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/truetype"
	"github.com/npillmayer/truetype/otraster"
	"github.com/pterm/pterm"
)

func sizeOp(intp *Intp, op *Op) (error, bool) {
	size, err := strconv.ParseFloat(op.arg, 64)
	if err != nil || size <= 0 {
		return fmt.Errorf("size: invalid point size %q", op.arg), false
	}
	intp.size = size
	return nil, false
}

func renderOp(intp *Intp, op *Op) (error, bool) {
	text, ok := op.hasArg()
	if !ok {
		return errors.New("render: text missing"), false
	}
	subpixel := op.format == "sub"
	raster := truetype.RasterFor(intp.tf, text, intp.size, intp.dpi)
	if err := truetype.Rasterize(intp.tf, text, intp.size, raster, subpixel); err != nil {
		return err, false
	}
	intp.raster = raster
	tracer().Infof("rendered %d×%d pixels", raster.Width, raster.Height)
	preview(raster)
	return nil, false
}

// shades maps coverage to characters, from empty to full.
const shades = " .:-=+*#%@"

// preview prints a raster as ASCII art, one character per pixel.
func preview(raster *otraster.Raster) {
	const maxWidth = 160
	w := min(raster.Width, maxWidth)
	sb := strings.Builder{}
	for y := 0; y < raster.Height; y++ {
		for x := 0; x < w; x++ {
			c := int(raster.At(x, y)) * (len(shades) - 1) / 255
			sb.WriteByte(shades[c])
		}
		sb.WriteByte('\n')
	}
	pterm.Println(sb.String())
	if raster.Width > maxWidth {
		pterm.Info.Printf("preview clipped to %d of %d columns\n", maxWidth, raster.Width)
	}
}

func saveOp(intp *Intp, op *Op) (error, bool) {
	if intp.raster == nil {
		return errors.New("save: nothing rendered yet"), false
	}
	name, ok := op.hasArg()
	if !ok {
		name = "out.png"
	}
	if err := writePNG(name, intp.raster); err != nil {
		return err, false
	}
	pterm.Success.Printf("saved %s\n", name)
	return nil, false
}

func writePNG(name string, raster *otraster.Raster) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, raster.Gray()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
