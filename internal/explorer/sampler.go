package explorer

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"
	"path/filepath"
	"strings"

	"genremap/internal/cache"
	"genremap/internal/palette"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// ErrNoImage is returned when the displayed data image cannot be read
var ErrNoImage = errors.New("data layer image unavailable")

// Click is a pointer click on the image surface. X and Y are relative to the
// image's top-left corner in display pixels; PageX and PageY place the info
// box on the page.
type Click struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	DisplayWidth  float64 `json:"displayWidth"`
	DisplayHeight float64 `json:"displayHeight"`
	PageX         float64 `json:"pageX"`
	PageY         float64 `json:"pageY"`
}

// Sampler reads pixels from layer images. Image sources are URL paths below
// urlPrefix; they are read from dir on disk.
type Sampler struct {
	urlPrefix string
	dir       string
	cache     *cache.ImageCache
}

// NewSampler creates a sampler reading assets from dir
func NewSampler(urlPrefix, dir string, images *cache.ImageCache) *Sampler {
	return &Sampler{
		urlPrefix: strings.Trim(urlPrefix, "/"),
		dir:       dir,
		cache:     images,
	}
}

// FilePath maps an image source to its file on disk
func (s *Sampler) FilePath(src string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(src, "/"), s.urlPrefix)
	rel = strings.TrimPrefix(rel, "/")
	return filepath.Join(s.dir, filepath.FromSlash(rel))
}

// Invalidate drops the cached decode of a file on disk
func (s *Sampler) Invalidate(file string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(file)
}

// InvalidateAll drops every cached decode
func (s *Sampler) InvalidateAll() {
	if s.cache == nil {
		return
	}
	s.cache.Clear()
}

// Load returns the decoded image for a source, using the cache when possible
func (s *Sampler) Load(src string) (image.Image, error) {
	file := s.FilePath(src)
	if s.cache != nil {
		if img, ok := s.cache.GetImage(file); ok {
			return img, nil
		}
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrNoImage, file, err)
	}

	if s.cache != nil {
		s.cache.SetImage(file, img)
	}
	return img, nil
}

// Sample returns the color under a click, scaling display coordinates to the
// image's natural size. Points outside the image read as transparent black.
func (s *Sampler) Sample(src string, click Click) (palette.RGB, error) {
	img, err := s.Load(src)
	if err != nil {
		return palette.RGB{}, err
	}

	x, y := NaturalPoint(img.Bounds(), click)
	p := image.Pt(x, y)
	if !p.In(img.Bounds()) {
		return palette.RGB{}, nil
	}
	return palette.FromColor(img.At(x, y)), nil
}

// NaturalPoint converts display coordinates to natural pixel coordinates.
// A non-positive display size is treated as the natural size.
func NaturalPoint(bounds image.Rectangle, click Click) (int, int) {
	scaleX, scaleY := 1.0, 1.0
	if click.DisplayWidth > 0 {
		scaleX = float64(bounds.Dx()) / click.DisplayWidth
	}
	if click.DisplayHeight > 0 {
		scaleY = float64(bounds.Dy()) / click.DisplayHeight
	}
	x := int(math.Floor(click.X*scaleX)) + bounds.Min.X
	y := int(math.Floor(click.Y*scaleY)) + bounds.Min.Y
	return x, y
}
