package texture

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/gpu"
	"github.com/Faultbox/meshview/internal/logger"
)

// Kind is the material slot a texture was referenced from.
type Kind int

// Texture kinds.
const (
	Diffuse Kind = iota
	Specular
)

func (k Kind) String() string {
	if k == Specular {
		return "specular"
	}
	return "diffuse"
}

// UniformName returns the sampler name prefix used for this kind inside the
// shader's material struct.
func (k Kind) UniformName() string {
	return "texture_" + k.String()
}

// Texture is a GPU texture referenced by a mesh.
type Texture struct {
	Handle uint32 // zero when the image could not be loaded
	Kind   Kind
	Path   string // normalized path, the cache key
}

// Valid reports whether the texture refers to a GPU object.
func (t Texture) Valid() bool {
	return t.Handle != 0
}

// Cache loads each texture path once per model. Entries are never evicted or
// replaced; failed loads are not cached so the next Resolve tries again.
type Cache struct {
	baseDir string
	decoder Decoder
	device  gpu.Device

	entries map[string]Texture
	order   []string

	// Stats
	hits   int
	misses int
}

// NewCache creates a cache resolving relative paths against baseDir.
func NewCache(baseDir string, decoder Decoder, device gpu.Device) *Cache {
	return &Cache{
		baseDir: baseDir,
		decoder: decoder,
		device:  device,
		entries: make(map[string]Texture),
	}
}

// Key returns the normalized path used to identify rel.
func (c *Cache) Key(rel string) string {
	p := filepath.FromSlash(rel)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.baseDir, p)
}

// Resolve returns the texture for rel, loading and uploading it on first use.
// The returned texture carries kind even when the GPU object was first
// loaded for a different slot.
func (c *Cache) Resolve(rel string, kind Kind) Texture {
	key := c.Key(rel)

	if tex, ok := c.entries[key]; ok {
		c.hits++
		tex.Kind = kind
		return tex
	}
	c.misses++

	img, err := c.decoder.Decode(key)
	if err != nil {
		logger.Warn("failed to load texture",
			zap.String("path", key),
			zap.Stringer("kind", kind),
			zap.Error(err),
		)
		return Texture{Kind: kind, Path: key}
	}

	format, pixels := uploadFormat(img, key)
	handle := c.device.CreateTexture(gpu.TextureDesc{
		Width:   img.Width,
		Height:  img.Height,
		Format:  format,
		Pixels:  pixels,
		Sampler: gpu.DefaultSampler,
	})
	if handle == 0 {
		logger.Warn("failed to upload texture", zap.String("path", key))
		return Texture{Kind: kind, Path: key}
	}

	tex := Texture{Handle: handle, Kind: kind, Path: key}
	c.entries[key] = tex
	c.order = append(c.order, key)

	logger.Debug("texture loaded",
		zap.String("path", key),
		zap.Uint32("handle", handle),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Stringer("format", format),
	)
	return tex
}

// Lookup returns the cached texture for rel without loading it.
func (c *Cache) Lookup(rel string) (Texture, bool) {
	tex, ok := c.entries[c.Key(rel)]
	return tex, ok
}

// Len returns the number of textures loaded.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Release deletes every cached GPU texture. The cache is empty afterwards.
func (c *Cache) Release() {
	for _, key := range c.order {
		c.device.DeleteTexture(c.entries[key].Handle)
	}
	c.entries = make(map[string]Texture)
	c.order = nil
}

// FormatForChannels maps a channel count to an upload format. The second
// result is false for unsupported counts, which map to FormatRGB.
func FormatForChannels(channels int) (gpu.PixelFormat, bool) {
	switch channels {
	case 1:
		return gpu.FormatRed, true
	case 3:
		return gpu.FormatRGB, true
	case 4:
		return gpu.FormatRGBA, true
	default:
		return gpu.FormatRGB, false
	}
}

// uploadFormat picks the pixel format for img. Unsupported channel counts
// fall back to RGB and the pixels are repacked so the upload never reads past
// the decoded data.
func uploadFormat(img *Image, path string) (gpu.PixelFormat, []byte) {
	format, ok := FormatForChannels(img.Channels)
	if ok {
		return format, img.Pixels
	}

	logger.Warn("unsupported texture channel count, falling back to RGB",
		zap.String("path", path),
		zap.Int("channels", img.Channels),
	)
	return format, repackRGB(img)
}

// repackRGB converts n-channel pixels to RGB. One or two channels are treated
// as luminance (plus alpha); extra channels are dropped.
func repackRGB(img *Image) []byte {
	n := img.Width * img.Height
	out := make([]byte, n*3)
	if img.Channels <= 0 {
		return out
	}
	for i := 0; i < n; i++ {
		src := i * img.Channels
		if src+img.Channels > len(img.Pixels) {
			break
		}
		dst := i * 3
		if img.Channels < 3 {
			v := img.Pixels[src]
			out[dst], out[dst+1], out[dst+2] = v, v, v
			continue
		}
		copy(out[dst:dst+3], img.Pixels[src:src+3])
	}
	return out
}
