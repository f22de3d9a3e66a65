package exifdata

import (
	"bytes"
	"image"
	"time"

	"photo-ingest/internal/logging"

	"github.com/rwcarlsen/goexif/exif"

	// Image format decoders for dimension probing
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// exifTimeLayout is the timestamp format used by EXIF date tags.
const exifTimeLayout = "2006:01:02 15:04:05"

// captureTags are the EXIF date fields consulted for a capture timestamp,
// most specific first: original capture, digitization (create), then the
// generic modify date.
var captureTags = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

// Capture extracts the capture timestamp embedded in an image, or nil when
// none is present. Missing EXIF blocks, unsupported containers, and
// malformed tag values all mean "absent": this function never returns an
// error, because metadata extraction must not abort an item.
func Capture(data []byte) *time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		logging.Debug("exifdata: no decodable EXIF block: %v", err)
		return nil
	}

	for _, field := range captureTags {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		ts, err := time.Parse(exifTimeLayout, raw)
		if err != nil {
			logging.Debug("exifdata: unparseable %s value %q", field, raw)
			continue
		}
		utc := ts.UTC()
		return &utc
	}

	return nil
}

// Dimensions decodes the pixel dimensions of an image without decoding the
// full bitmap. Unlike Capture this is not best-effort: an undecodable image
// cannot be rendered either, so the error is real and aborts the item.
func Dimensions(data []byte) (width, height int, err error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}
