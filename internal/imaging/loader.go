package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ironsheep/xray-tools-mcp/internal/storage"
)

// ErrDecode reports data that no registered decoder accepts.
var ErrDecode = errors.New("failed to decode image")

// cachedImage is a decoded capture with the metadata recorded at load time.
type cachedImage struct {
	img    image.Image
	format string
	size   int64
}

// Default cache bounds.
const (
	DefaultCacheSize = 32
	DefaultCacheTTL  = 10 * time.Minute
)

// ImageCache provides thread-safe caching of decoded captures keyed by
// source string, so repeated tool calls on one film decode it once.
//
// Sources are opened through a storage.Fetcher, which may read local files,
// HTTP URLs or blobs. The cache holds at most its capacity in captures,
// evicting the least recently used, and drops each entry once its TTL
// passes so changed remote captures are fetched again.
type ImageCache struct {
	images  *expirable.LRU[string, *cachedImage]
	fetcher storage.Fetcher
}

// CacheOption configures an ImageCache.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	size int
	ttl  time.Duration
}

// WithCapacity bounds the number of cached captures. 0 disables caching.
func WithCapacity(n int) CacheOption {
	return func(o *cacheOptions) { o.size = n }
}

// WithTTL sets how long a capture stays cached. 0 keeps entries until they
// are evicted for capacity.
func WithTTL(d time.Duration) CacheOption {
	return func(o *cacheOptions) { o.ttl = d }
}

// NewImageCache creates an empty cache that opens sources with f.
func NewImageCache(f storage.Fetcher, opts ...CacheOption) *ImageCache {
	o := cacheOptions{size: DefaultCacheSize, ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(&o)
	}
	c := &ImageCache{fetcher: f}
	if o.size > 0 {
		c.images = expirable.NewLRU[string, *cachedImage](o.size, nil, o.ttl)
	}
	return c
}

// Load returns the decoded image for source, fetching and decoding it on
// first use. EXIF orientation is applied while decoding.
//
// The returned image is shared and must not be modified.
func (c *ImageCache) Load(ctx context.Context, source string) (image.Image, error) {
	entry, err := c.load(ctx, source)
	if err != nil {
		return nil, err
	}
	return entry.img, nil
}

func (c *ImageCache) load(ctx context.Context, source string) (*cachedImage, error) {
	if c.images != nil {
		if entry, ok := c.images.Get(source); ok {
			return entry, nil
		}
	}

	rc, err := c.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, format, size, err := decode(rc)
	if err != nil {
		return nil, err
	}
	entry := &cachedImage{img: img, format: format, size: size}

	if c.images != nil {
		c.images.Add(source, entry)
	}
	return entry, nil
}

// Evict removes one source from the cache and reports whether it was
// cached.
func (c *ImageCache) Evict(source string) bool {
	if c.images == nil {
		return false
	}
	return c.images.Remove(source)
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	if c.images == nil {
		return 0
	}
	return c.images.Len()
}

// Decode reads a capture from r and decodes it with EXIF auto-orientation.
// It returns the image and its format name ("png", "jpeg", "gif", "bmp",
// "tiff").
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, _, err := decode(r)
	return img, format, err
}

func decode(r io.Reader) (image.Image, string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to read image: %w", err)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, int64(len(data)), nil
}

// RadiographInfo describes a loaded capture.
type RadiographInfo struct {
	// Source is the string the capture was loaded from.
	Source string `json:"source"`

	// Width is the image width in pixels, after orientation.
	Width int `json:"width"`

	// Height is the image height in pixels, after orientation.
	Height int `json:"height"`

	// Format is the decoder that recognized the data.
	Format string `json:"format"`

	// ColorDepth is "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha reports whether the decoded image carries alpha.
	HasAlpha bool `json:"has_alpha"`

	// Grayscale reports whether the capture decoded to a gray color model.
	Grayscale bool `json:"grayscale"`

	// SizeBytes is the encoded size of the capture.
	SizeBytes int64 `json:"size_bytes"`

	// Intensity summarizes the luma of the capture.
	Intensity IntensityStats `json:"intensity"`
}

// LoadRadiographInfo loads source into the cache and describes it.
func LoadRadiographInfo(ctx context.Context, cache *ImageCache, source string) (*RadiographInfo, error) {
	entry, err := cache.load(ctx, source)
	if err != nil {
		return nil, err
	}
	img := entry.img
	bounds := img.Bounds()

	hasAlpha := false
	grayscale := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray:
		grayscale = true
	case *image.Gray16:
		grayscale = true
		colorDepth = "16-bit"
	}

	return &RadiographInfo{
		Source:     source,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     entry.format,
		ColorDepth: colorDepth,
		HasAlpha:   hasAlpha,
		Grayscale:  grayscale,
		SizeBytes:  entry.size,
		Intensity:  MeasureIntensity(img),
	}, nil
}
