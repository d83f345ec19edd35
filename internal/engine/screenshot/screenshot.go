// Package screenshot saves rendered frames as PNG files.
package screenshot

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Capture writes screenshots into a directory with timestamped names.
type Capture struct {
	Dir    string
	Prefix string

	now func() time.Time
}

// New creates a capture writing to dir. An empty dir means the working
// directory.
func New(dir, prefix string) *Capture {
	return &Capture{Dir: dir, Prefix: prefix, now: time.Now}
}

// Filename returns the path the next screenshot would be written to.
func (c *Capture) Filename() string {
	name := fmt.Sprintf("%s_%s.png", c.Prefix, c.now().Format("2006-01-02_15-04-05.000"))
	if c.Dir != "" {
		name = filepath.Join(c.Dir, name)
	}
	return name
}

// SaveFramebuffer writes RGBA pixels read back from the framebuffer, which
// has its origin at the bottom left, as a top-down PNG.
func (c *Capture) SaveFramebuffer(pixels []byte, width, height int) (string, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[src:src+rowSize])
	}
	return c.Save(img)
}

// Save encodes img as PNG and returns the file path.
func (c *Capture) Save(img image.Image) (string, error) {
	if c.Dir != "" {
		if err := os.MkdirAll(c.Dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	name := c.Filename()
	file, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}
	return name, nil
}
