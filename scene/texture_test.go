package scene

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextureFromImagePacksRGBA8RowMajor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(1, 0, color.RGBA{R: 0, G: 255, B: 0, A: 128})

	tex := textureFromImage(img)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 1, tex.Height)
	assert.Len(t, tex.Pixels, 8)
	assert.Equal(t, byte(255), tex.Pixels[0])
	assert.Equal(t, byte(0), tex.Pixels[1])
}
