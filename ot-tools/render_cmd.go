package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/truetype"
	"github.com/npillmayer/truetype/otraster"
	"github.com/thatisuday/commando"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

func runRenderCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	setupTracing(flags)
	fontName := strings.TrimSpace(args["font"].Value)
	if fontName == "" {
		fatalf("font is required")
	}
	tf, data := mustLoadFont(fontName)
	text, err := parseTextInput(args["text"], flags["codepoints"])
	if err != nil {
		fatalf("%v", err)
	}
	opts := renderOptions{
		size:       mustFlagFloat(flags["size"], "size"),
		dpi:        mustFlagInt(flags["dpi"], "dpi"),
		margin:     mustFlagInt(flags["margin"], "margin"),
		subpixel:   mustFlagBool(flags["subpixel"], "subpixel"),
		showBBoxes: mustFlagBool(flags["show-bboxes"], "show-bboxes"),
	}
	if opts.dpi <= 0 || opts.margin < 0 {
		fatalf("invalid --dpi or --margin")
	}
	img, err := renderText(tf, text, opts)
	if err != nil {
		fatalf("%v", err)
	}
	if mustFlagBool(flags["reference"], "reference") {
		ref, err := renderReference(data, tf, text, opts)
		if err != nil {
			fatalf("reference rendering: %v", err)
		}
		img = stack(img, ref)
	}
	output, _ := flags["output"].GetString()
	if err := writePNG(output, img); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("wrote %s (%d×%d)\n", output, img.Bounds().Dx(), img.Bounds().Dy())
}

type renderOptions struct {
	size       float64
	dpi        int
	margin     int
	subpixel   bool
	showBBoxes bool
}

// rasterizer returns a rasterizer with the pen origin moved by the margin,
// together with the size of the image needed for text.
func (opts renderOptions) rasterizer(tf *truetype.Typeface, text string) (*otraster.Rasterizer, int, int) {
	fit := truetype.RasterFor(tf, text, opts.size, opts.dpi)
	z := otraster.New(tf)
	scale := z.Scale(opts.size, opts.dpi)
	m := float64(opts.margin)
	z.PenX = m
	z.Baseline, z.FixedBaseline = m+z.BaselineFor(scale), true
	return z, fit.Width + 2*opts.margin, fit.Height + 2*opts.margin
}

// renderText renders black text on white.
func renderText(tf *truetype.Typeface, text string, opts renderOptions) (*image.RGBA, error) {
	z, w, h := opts.rasterizer(tf, text)
	raster := otraster.NewRaster(w, h, opts.dpi)
	if err := z.Rasterize(text, opts.size, raster, opts.subpixel); err != nil {
		return nil, err
	}
	img := whiteImage(w, h)
	mask := &image.Alpha{Pix: raster.Pixels, Stride: raster.Stride, Rect: image.Rect(0, 0, w, h)}
	draw.DrawMask(img, img.Bounds(), image.Black, image.Point{}, mask, image.Point{}, draw.Over)
	if opts.showBBoxes {
		scale := z.Scale(opts.size, opts.dpi)
		placements, _ := z.Layout(text, opts.size, opts.dpi)
		for _, p := range placements {
			o, err := tf.OutlineFor(p.Glyph)
			if err != nil || len(o.Contours) == 0 {
				continue
			}
			x, y := float64(p.Origin.X)/64, float64(p.Origin.Y)/64
			drawRectOutline(img,
				int(math.Floor(x+float64(o.Bounds.XMin)*scale)),
				int(math.Floor(y-float64(o.Bounds.YMax)*scale)),
				int(math.Ceil(x+float64(o.Bounds.XMax)*scale)),
				int(math.Ceil(y-float64(o.Bounds.YMin)*scale)),
				color.RGBA{255, 0, 0, 255})
		}
	}
	return img, nil
}

// renderReference renders text with the Go image library, using the same
// glyph positions as renderText.
func renderReference(data []byte, tf *truetype.Typeface, text string, opts renderOptions) (*image.RGBA, error) {
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse sfnt font for rasterization: %w", err)
	}
	z, w, h := opts.rasterizer(tf, text)
	ppem := fixed.Int26_6(math.Round(opts.size * float64(opts.dpi) / 72 * 64))
	rast := vector.NewRasterizer(w, h)
	rast.DrawOp = draw.Over
	var buf sfnt.Buffer
	placements, _ := z.Layout(text, opts.size, opts.dpi)
	for _, p := range placements {
		segs, err := sf.LoadGlyph(&buf, sfnt.GlyphIndex(p.Glyph), ppem, nil)
		if err != nil {
			continue
		}
		dx, dy := float32(p.Origin.X)/64, float32(p.Origin.Y)/64
		pt := func(q fixed.Point26_6) (float32, float32) {
			return dx + float32(q.X)/64, dy + float32(q.Y)/64
		}
		for _, seg := range segs {
			switch seg.Op {
			case sfnt.SegmentOpMoveTo:
				rast.MoveTo(pt(seg.Args[0]))
			case sfnt.SegmentOpLineTo:
				rast.LineTo(pt(seg.Args[0]))
			case sfnt.SegmentOpQuadTo:
				bx, by := pt(seg.Args[0])
				cx, cy := pt(seg.Args[1])
				rast.QuadTo(bx, by, cx, cy)
			case sfnt.SegmentOpCubeTo:
				bx, by := pt(seg.Args[0])
				cx, cy := pt(seg.Args[1])
				ex, ey := pt(seg.Args[2])
				rast.CubeTo(bx, by, cx, cy, ex, ey)
			}
		}
	}
	img := whiteImage(w, h)
	rast.Draw(img, img.Bounds(), image.Black, image.Point{})
	return img, nil
}

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{255, 255, 255, 255}), image.Point{}, draw.Src)
	return img
}

// stack places img2 below img1, separated by a gray line.
func stack(img1, img2 *image.RGBA) *image.RGBA {
	b1, b2 := img1.Bounds(), img2.Bounds()
	w := max(b1.Dx(), b2.Dx())
	out := whiteImage(w, b1.Dy()+1+b2.Dy())
	draw.Draw(out, b1, img1, image.Point{}, draw.Src)
	line := image.Rect(0, b1.Dy(), w, b1.Dy()+1)
	draw.Draw(out, line, image.NewUniform(color.RGBA{160, 160, 160, 255}), image.Point{}, draw.Src)
	draw.Draw(out, b2.Add(image.Pt(0, b1.Dy()+1)), img2, image.Point{}, draw.Src)
	return out
}

func drawRectOutline(img *image.RGBA, minX int, minY int, maxX int, maxY int, c color.RGBA) {
	if img == nil {
		return
	}
	if maxX < minX {
		minX, maxX = maxX, minX
	}
	if maxY < minY {
		minY, maxY = maxY, minY
	}
	r := image.Rect(minX, minY, maxX, maxY).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	// top and bottom
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	// left and right
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

func writePNG(outPath string, img image.Image) error {
	if outPath == "" {
		return errors.New("output path is empty")
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("cannot encode png: %w", err)
	}
	return nil
}
