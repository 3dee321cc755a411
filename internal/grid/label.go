package grid

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var labelBox = image.NewUniform(color.NRGBA{A: 0x80})

// FormatLabel renders seconds as HH:MM:SS.
func FormatLabel(seconds float64) string {
	s := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s/60%60, s%60)
}

func drawLabel(dst draw.Image, at image.Point, text string) {
	face := basicfont.Face7x13
	const inset, pad = 4, 3

	w := font.MeasureString(face, text).Ceil()
	box := image.Rect(0, 0, w+2*pad, face.Height+2*pad).Add(at).Add(image.Pt(inset, inset))
	draw.Draw(dst, box, labelBox, image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(box.Min.X+pad, box.Min.Y+pad+face.Ascent),
	}
	d.DrawString(text)
}
