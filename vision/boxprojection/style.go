package boxprojection

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"go.viam.com/boxprojection/utils"
)

// RenderStyle is the stroke a drawing consumer should use for a box. It never affects geometry.
type RenderStyle struct {
	Color     color.RGBA `json:"-"`
	Thickness int        `json:"thickness"`
}

// NewRenderStyle derives the stroke from the class label and score: the red and blue channels
// trade off across labels 0..3, green brightens and the stroke thickens with confidence.
func NewRenderStyle(label int, score float64) RenderStyle {
	labelShade := int(200 * (float64(label) / 3.))
	return RenderStyle{
		Color: color.RGBA{
			R: clampChannel(255 - labelShade),
			G: clampChannel(200 + int(55*score)),
			B: clampChannel(labelShade),
			A: 255,
		},
		Thickness: 1 + int(3*score),
	}
}

// Hex returns the color as #rrggbb.
func (s RenderStyle) Hex() string {
	c, _ := colorful.MakeColor(s.Color)
	return c.Hex()
}

func clampChannel(v int) uint8 {
	return uint8(utils.ClampInt(v, 0, 255))
}
