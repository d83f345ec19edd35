// Package texture decodes texture images and caches the GPU textures created
// from them.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Image is decoded pixel data ready for upload. Rows are stored top to
// bottom, tightly packed, Channels bytes per pixel.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pixels   []byte
}

// Decoder turns a texture file path into pixel data.
type Decoder interface {
	Decode(path string) (*Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(path string) (*Image, error)

// Decode calls f(path).
func (f DecoderFunc) Decode(path string) (*Image, error) {
	return f(path)
}

// FileDecoder reads images from the filesystem. PNG, JPEG, GIF, BMP, TIFF,
// WebP and TGA files are supported.
type FileDecoder struct{}

// Decode reads and decodes the image at path.
func (FileDecoder) Decode(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := DecodeBytes(data, path)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// DecodeBytes decodes an encoded image. The name is only used to pick the
// TGA decoder, which has no magic number to sniff.
func DecodeBytes(data []byte, name string) (*Image, error) {
	var img image.Image
	var err error
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err = DecodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// FromImage packs an image into tightly packed rows. Grayscale images keep a
// single channel, opaque images get three and everything else four.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if g, ok := img.(*image.Gray); ok {
		out := &Image{Width: w, Height: h, Channels: 1, Pixels: make([]byte, w*h)}
		for y := 0; y < h; y++ {
			row := g.Pix[y*g.Stride : y*g.Stride+w]
			copy(out.Pixels[y*w:], row)
		}
		return out
	}

	channels := 4
	if isOpaque(img) {
		channels = 3
	}

	out := &Image{Width: w, Height: h, Channels: channels, Pixels: make([]byte, w*h*channels)}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Pixels[i] = c.R
			out.Pixels[i+1] = c.G
			out.Pixels[i+2] = c.B
			if channels == 4 {
				out.Pixels[i+3] = c.A
			}
			i += channels
		}
	}
	return out
}

func isOpaque(img image.Image) bool {
	switch img.(type) {
	case *image.YCbCr, *image.CMYK, *image.Gray16:
		return true
	}
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
