package render

import (
	"fmt"
	"sync"

	"photo-ingest/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsEnabled     bool
)

// InitVips initializes the libvips library for decode-time shrinking.
// This should be called once at startup. The renderer works without it,
// falling back to the pure-Go decode path.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Route vips log output through our logger, filtered by the app level,
	// and configure this BEFORE Startup() so init noise is filtered too.
	var vipsLogLevel vips.LogLevel
	if logging.IsDebugEnabled() {
		vipsLogLevel = vips.LogLevelInfo
	} else {
		vipsLogLevel = vips.LogLevelWarning
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Conservative memory settings: one decode at a time, small cache.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsEnabled = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsEnabled = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsEnabled returns whether libvips is initialized and available
func IsVipsEnabled() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsEnabled
}

// renderWithVips produces a rendition using libvips. Shrinking happens at
// decode time for JPEG sources, which keeps peak memory well below the
// decode-then-resize path for large originals.
func renderWithVips(src []byte, maxSide, quality int) (Rendition, error) {
	ref, err := vips.NewImageFromBuffer(src)
	if err != nil {
		return Rendition{}, fmt.Errorf("%w: vips load: %v", ErrDecode, err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return Rendition{}, fmt.Errorf("%w: vips auto-rotate: %v", ErrDecode, err)
	}

	width := ref.Width()
	height := ref.Height()

	// Scale down only, preserving aspect ratio.
	if width > maxSide || height > maxSide {
		targetWidth, targetHeight := maxSide, maxSide
		if width > height {
			targetHeight = height * maxSide / width
		} else {
			targetWidth = width * maxSide / height
		}
		if err := ref.Thumbnail(targetWidth, targetHeight, vips.InterestingNone); err != nil {
			return Rendition{}, fmt.Errorf("%w: vips thumbnail: %v", ErrDecode, err)
		}
		width = ref.Width()
		height = ref.Height()
	}

	data, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        quality,
		StripMetadata:  true,
		OptimizeCoding: true,
	})
	if err != nil {
		return Rendition{}, fmt.Errorf("%w: vips export: %v", ErrEncode, err)
	}

	return Rendition{Data: data, Width: width, Height: height}, nil
}
