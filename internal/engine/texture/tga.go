package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeGray         = 3  // Uncompressed grayscale
	TGATypeRLE          = 10 // RLE compressed true-color
	TGATypeGrayRLE      = 11 // RLE compressed grayscale
)

var errTGATruncated = errors.New("TGA data truncated")

// DecodeTGA decodes a TGA image file.
// Supports uncompressed and RLE true-color (24/32 bit) and grayscale (8 bit)
// images. Color-mapped images are rejected.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}

	gray := imageType == TGATypeGray || imageType == TGATypeGrayRLE
	rle := imageType == TGATypeRLE || imageType == TGATypeGrayRLE
	switch imageType {
	case TGATypeUncompressed, TGATypeRLE:
		if bpp != 24 && bpp != 32 {
			return nil, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", bpp)
		}
	case TGATypeGray, TGATypeGrayRLE:
		if bpp != 8 {
			return nil, fmt.Errorf("unsupported grayscale TGA bit depth %d", bpp)
		}
	default:
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("TGA has zero size %dx%d", width, height)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}

	d := tgaDecoder{
		src:         data[offset:],
		width:       width,
		height:      height,
		bytesPerPx:  bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}
	if gray {
		d.gray = image.NewGray(image.Rect(0, 0, width, height))
	} else {
		d.rgba = image.NewNRGBA(image.Rect(0, 0, width, height))
	}

	var err error
	if rle {
		err = d.decodeRLE()
	} else {
		err = d.decodeRaw()
	}
	if err != nil {
		return nil, err
	}

	if gray {
		return d.gray, nil
	}
	return d.rgba, nil
}

type tgaDecoder struct {
	src         []byte
	pos         int
	width       int
	height      int
	bytesPerPx  int
	topToBottom bool

	gray *image.Gray
	rgba *image.NRGBA
}

// pixel reads one pixel at the cursor. TGA stores BGR(A).
func (d *tgaDecoder) pixel() (color.NRGBA, bool) {
	if d.pos+d.bytesPerPx > len(d.src) {
		return color.NRGBA{}, false
	}
	p := d.src[d.pos : d.pos+d.bytesPerPx]
	d.pos += d.bytesPerPx

	if d.bytesPerPx == 1 {
		return color.NRGBA{R: p[0], G: p[0], B: p[0], A: 255}, true
	}
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bytesPerPx == 4 {
		c.A = p[3]
	}
	return c, true
}

// set writes the n-th pixel in file order, flipping bottom-up images so
// row 0 is always the top row.
func (d *tgaDecoder) set(n int, c color.NRGBA) {
	x := n % d.width
	y := n / d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	if d.gray != nil {
		d.gray.SetGray(x, y, color.Gray{Y: c.R})
		return
	}
	d.rgba.SetNRGBA(x, y, c)
}

func (d *tgaDecoder) decodeRaw() error {
	total := d.width * d.height
	if len(d.src) < total*d.bytesPerPx {
		return errTGATruncated
	}
	for n := 0; n < total; n++ {
		c, _ := d.pixel()
		d.set(n, c)
	}
	return nil
}

func (d *tgaDecoder) decodeRLE() error {
	total := d.width * d.height
	n := 0
	for n < total {
		if d.pos >= len(d.src) {
			return errTGATruncated
		}
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run-length packet: one pixel repeated
			c, ok := d.pixel()
			if !ok {
				return errTGATruncated
			}
			for i := 0; i < count && n < total; i++ {
				d.set(n, c)
				n++
			}
			continue
		}

		// Raw packet: count literal pixels
		for i := 0; i < count && n < total; i++ {
			c, ok := d.pixel()
			if !ok {
				return errTGATruncated
			}
			d.set(n, c)
			n++
		}
	}
	return nil
}
