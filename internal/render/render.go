package render

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"photo-ingest/internal/logging"
	"photo-ingest/internal/metrics"

	"github.com/disintegration/imaging"

	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Rendition failure classification. Both are fatal to the current item only.
var (
	// ErrDecode indicates the source bytes could not be decoded as an image.
	ErrDecode = errors.New("image decode failed")
	// ErrEncode indicates re-encoding the scaled image failed.
	ErrEncode = errors.New("image encode failed")
)

const (
	// DefaultMaxSide bounds the longer side of a rendition in pixels.
	DefaultMaxSide = 1440
	// DefaultQuality is the JPEG encode quality for renditions.
	DefaultQuality = 80
)

// Ext is the file extension renditions are stored under.
const Ext = "jpg"

// Rendition is a downsampled, re-encoded derived image.
type Rendition struct {
	Data   []byte
	Width  int
	Height int
}

// Size returns the encoded byte size, which is what quota is charged against.
func (r Rendition) Size() int64 {
	return int64(len(r.Data))
}

// Renderer produces bounded-size JPEG renditions from arbitrary raster input.
type Renderer struct {
	MaxSide int // maximum longer-side length in pixels
	Quality int // JPEG encode quality, 1..100
}

// NewRenderer returns a Renderer with validated parameters, substituting
// defaults for out-of-range values.
func NewRenderer(maxSide, quality int) *Renderer {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Renderer{MaxSide: maxSide, Quality: quality}
}

// Render decodes src, scales it down so the longer side is at most MaxSide
// (aspect preserved, never scaling up), and re-encodes it as JPEG at the
// configured quality. Given identical input bytes and parameters the output
// is deterministic, though its exact byte size depends on the encoder.
//
// When libvips is initialized, decoding and shrinking happen there with
// decode-time downsampling; otherwise the pure-Go path is used.
func (r *Renderer) Render(src []byte) (Rendition, error) {
	if IsVipsEnabled() {
		start := time.Now()
		rendition, err := renderWithVips(src, r.MaxSide, r.Quality)
		metrics.RenderDuration.WithLabelValues("vips").Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.RendersTotal.WithLabelValues("vips", "success").Inc()
			return rendition, nil
		}
		metrics.RendersTotal.WithLabelValues("vips", "error").Inc()
		logging.Debug("render: vips path failed (%v), falling back to pure-Go decode", err)
	}

	start := time.Now()
	defer func() {
		metrics.RenderDuration.WithLabelValues("imaging").Observe(time.Since(start).Seconds())
	}()

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		metrics.RendersTotal.WithLabelValues("imaging", "error").Inc()
		return Rendition{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// Scale down only. imaging.Fit preserves the aspect ratio and returns
	// the original when both sides already fit.
	if width > r.MaxSide || height > r.MaxSide {
		img = imaging.Fit(img, r.MaxSide, r.MaxSide, imaging.Lanczos)
		bounds = img.Bounds()
		width, height = bounds.Dx(), bounds.Dy()
		logging.Debug("render: scaled to %dx%d (max side %d)", width, height, r.MaxSide)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(r.Quality)); err != nil {
		metrics.RendersTotal.WithLabelValues("imaging", "error").Inc()
		return Rendition{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	metrics.RendersTotal.WithLabelValues("imaging", "success").Inc()
	return Rendition{Data: buf.Bytes(), Width: width, Height: height}, nil
}
