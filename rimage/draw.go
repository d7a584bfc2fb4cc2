// Package rimage holds the drawing helpers used to overlay projections on images.
package rimage

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/golang/geo/r2"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// DrawSegments strokes each segment with the given color and width.
func DrawSegments(dc *gg.Context, segments [][2]r2.Point, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	for _, s := range segments {
		dc.DrawLine(s[0].X, s[0].Y, s[1].X, s[1].Y)
		dc.Stroke()
	}
}

// DrawRectangleEmpty draws the given rectangle into the context. The positions of the
// rectangle are used to place it within the context.
func DrawRectangleEmpty(dc *gg.Context, r image.Rectangle, c color.Color, width float64) {
	minX, minY := float64(r.Min.X), float64(r.Min.Y)
	maxX, maxY := float64(r.Max.X), float64(r.Max.Y)
	DrawSegments(dc, [][2]r2.Point{
		{{X: minX, Y: minY}, {X: maxX, Y: minY}},
		{{X: minX, Y: minY}, {X: minX, Y: maxY}},
		{{X: maxX, Y: minY}, {X: maxX, Y: maxY}},
		{{X: minX, Y: maxY}, {X: maxX, Y: maxY}},
	}, c, width)
}
