package ascii

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageToASCII(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(0, 0, color.Black)

	rows := NewConverter(false).ImageToASCII(img)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Len(t, row, 4)
	}
	assert.NotEqual(t, rows[0][0], rows[0][1])
	assert.Equal(t, rows[1], rows[2])
}
