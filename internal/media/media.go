// Package media reads the intrinsic size of images so a slide can be laid
// out with real image heights before any browser has loaded them.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"strconv"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdpress/internal/dom"
)

// MaxConcurrentLoads bounds the image loads of one SizeAll call.
const MaxConcurrentLoads = 4

// ErrNotImage is returned by Decode for data that is not a raster image.
var ErrNotImage = errors.New("not a raster image")

// Loader fetches ref resolved against base.
type Loader interface {
	Load(ctx context.Context, ref, base string) ([]byte, error)
}

// Size is an intrinsic image size in pixels.
type Size struct {
	Width  int
	Height int
}

// Decode reads the size of a raster image from its header. SVG and other
// vector or unknown formats yield ErrNotImage.
func Decode(data []byte) (Size, error) {
	if !filetype.IsImage(data) {
		return Size{}, ErrNotImage
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Size{}, fmt.Errorf("decoding image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Size{}, fmt.Errorf("decoding image header: empty image %dx%d", cfg.Width, cfg.Height)
	}
	return Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// Unsized returns the img elements under root that declare no height.
// Inline data URIs are skipped.
func Unsized(root *html.Node) []*html.Node {
	return dom.Find(root, func(n *html.Node) bool {
		if !dom.IsElement(n, "img") {
			return false
		}
		src, ok := dom.Attr(n, "src")
		if !ok || strings.TrimSpace(src) == "" || strings.HasPrefix(src, "data:") {
			return false
		}
		return pixels(n, "height") <= 0
	})
}

// Sizer declares width and height on images from their loaded bytes.
type Sizer struct {
	loader Loader
	log    *zap.Logger
}

// NewSizer creates a Sizer. A nil logger disables logging.
func NewSizer(loader Loader, log *zap.Logger) *Sizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sizer{loader: loader, log: log}
}

// SizeAll loads every unsized image under root, resolving its src against
// base, and declares its size. It returns the number of images sized.
// Images that fail to load or decode stay unsized; only a cancelled ctx is
// an error.
func (s *Sizer) SizeAll(ctx context.Context, root *html.Node, base string) (int, error) {
	imgs := Unsized(root)
	if len(imgs) == 0 {
		return 0, nil
	}

	sizes := make([]Size, len(imgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentLoads)
	for i, img := range imgs {
		src, _ := dom.Attr(img, "src")
		g.Go(func() error {
			data, err := s.loader.Load(gctx, src, base)
			if err != nil {
				s.log.Debug("image not loaded", zap.String("url", src), zap.Error(err))
				return nil
			}
			size, err := Decode(data)
			if err != nil {
				s.log.Debug("image size unknown", zap.String("url", src), zap.Error(err))
				return nil
			}
			sizes[i] = size
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	sized := 0
	for i, img := range imgs {
		if sizes[i].Height > 0 && declare(img, sizes[i]) {
			sized++
		}
	}
	return sized, nil
}

// declare sets the size attributes of img. A declared width is kept and
// the height follows the aspect ratio; a width that is not a pixel count
// leaves img untouched.
func declare(img *html.Node, size Size) bool {
	w := size.Width
	h := size.Height
	if v, ok := dom.Attr(img, "width"); ok && strings.TrimSpace(v) != "" {
		declared := pixels(img, "width")
		if declared <= 0 {
			return false
		}
		w = int(declared)
		h = int(declared*float64(size.Height)/float64(size.Width) + 0.5)
	}
	dom.SetAttr(img, "width", strconv.Itoa(w))
	dom.SetAttr(img, "height", strconv.Itoa(h))
	return true
}

func pixels(n *html.Node, key string) float64 {
	v, ok := dom.Attr(n, key)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return 0
	}
	return f
}
