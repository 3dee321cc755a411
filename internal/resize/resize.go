package resize

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/qeesung/image2ascii/convert"
)

type Resizer struct {
	resizeHandler *convert.ImageResizeHandler
}

func NewResizer() *Resizer {
	return &Resizer{
		resizeHandler: convert.NewResizeHandler().(*convert.ImageResizeHandler),
	}
}

// Fit scales img to fit a w x h block of terminal cells.
func (r *Resizer) Fit(img image.Image, w, h int) image.Image {
	sz := img.Bounds()
	neww, newh := r.resizeHandler.CalcFitSize(float64(w), float64(h), float64(sz.Dx()), float64(sz.Dy()))
	return resize.Resize(uint(neww), uint(newh), img, resize.Lanczos3)
}

// ToHeight scales img to height h pixels, keeping its aspect ratio.
func (r *Resizer) ToHeight(img image.Image, h int) image.Image {
	if img.Bounds().Dy() == h {
		return img
	}
	return resize.Resize(0, uint(h), img, resize.Lanczos3)
}
