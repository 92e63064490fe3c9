package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawLabel paints a small diagnostic label into the top-left corner
// of the frame: yellow text on a half-transparent black box.
func drawLabel(dst *image.RGBA, text string) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()

	const margin = 10
	box := image.Rect(margin-4, margin-4, margin+width+4, margin+face.Height+4)
	draw.DrawMask(dst, box,
		image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{},
		image.NewUniform(color.Alpha{A: 128}), image.Point{},
		draw.Over)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{255, 220, 0, 255}),
		Face: face,
		Dot:  fixed.P(margin, margin+face.Ascent),
	}
	d.DrawString(text)
}
