package scene

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gknext/render-go/errs"
)

// Texture is a CPU-decoded image ready for GPU upload: tightly packed
// RGBA8, row-major, origin top-left.
type Texture struct {
	Width, Height int
	Pixels        []byte // len == Width*Height*4
}

// LoadTexture decodes an image file from any format registered via
// image.RegisterFormat — PNG and JPEG from the standard library, plus
// BMP/TIFF/WEBP via golang.org/x/image's decode-only packages (glTF
// textures and ad-hoc material maps are not guaranteed to be PNG/JPEG).
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.AssetParse, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.AssetParse, err)
	}
	return textureFromImage(img), nil
}

func textureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, w*h*4)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			pixels[i] = byte(r >> 8)
			pixels[i+1] = byte(g >> 8)
			pixels[i+2] = byte(b >> 8)
			pixels[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return &Texture{Width: w, Height: h, Pixels: pixels}
}
