package boxprojection

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"go.viam.com/boxprojection/rimage"
)

const annotationFontSize = 12

// Draw strokes the box wireframe onto dc using its render style and, if annotate is set, writes
// the label and score above the box. Boxes with a corner that does not project to a finite pixel
// are skipped and Draw returns false.
func Draw(dc *gg.Context, pb ProjectedBox, annotate bool) bool {
	if _, ok := pb.Pixels(); !ok {
		return false
	}
	segs := pb.Segments()
	rimage.DrawSegments(dc, segs[:], pb.Style.Color, float64(pb.Style.Thickness))
	if annotate {
		bounds := pb.Bounds()
		at := image.Point{X: bounds.Min.X, Y: bounds.Min.Y - 2*annotationFontSize}
		rimage.DrawString(dc, fmt.Sprintf("%d %.2f", pb.Box.Label, pb.Box.Score), at, pb.Style.Color, annotationFontSize)
	}
	return true
}

// DrawAll draws every box and returns how many were drawn.
func DrawAll(dc *gg.Context, boxes []ProjectedBox, annotate bool) int {
	drawn := 0
	for _, pb := range boxes {
		if Draw(dc, pb, annotate) {
			drawn++
		}
	}
	return drawn
}
