package exifdata

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
	"time"
)

// encodeTestImage renders a small gradient image in the given format.
func encodeTestImage(t *testing.T, width, height int, format string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&buf, img)
	default:
		t.Fatalf("unsupported test image format: %s", format)
	}
	if err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// tiffWithDateTime builds a minimal little-endian TIFF whose IFD0 carries a
// single DateTime (0x0132) ASCII tag with the given value.
func tiffWithDateTime(t *testing.T, value string) []byte {
	t.Helper()
	if len(value) != 19 {
		t.Fatalf("EXIF datetime must be 19 chars, got %d", len(value))
	}

	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.WriteString("II")                     // little-endian byte order
	binary.Write(&buf, le, uint16(42))        // TIFF magic
	binary.Write(&buf, le, uint32(8))         // IFD0 offset
	binary.Write(&buf, le, uint16(1))         // one directory entry
	binary.Write(&buf, le, uint16(0x0132))    // DateTime tag
	binary.Write(&buf, le, uint16(2))         // ASCII
	binary.Write(&buf, le, uint32(20))        // value length incl. NUL
	binary.Write(&buf, le, uint32(26))        // value offset (8+2+12+4)
	binary.Write(&buf, le, uint32(0))         // no next IFD
	buf.WriteString(value)
	buf.WriteByte(0)

	return buf.Bytes()
}

func TestCaptureFromDateTimeTag(t *testing.T) {
	data := tiffWithDateTime(t, "2021:03:04 05:06:07")

	got := Capture(data)
	if got == nil {
		t.Fatal("Capture returned nil for image with DateTime tag")
	}

	want := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Capture = %v, want %v", got, want)
	}
}

func TestCaptureAbsent(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"plain JPEG without EXIF", encodeTestImage(t, 8, 8, "jpeg")},
		{"PNG (unsupported container)", encodeTestImage(t, 8, 8, "png")},
		{"garbage bytes", []byte("definitely not an image")},
		{"empty input", nil},
		{"unparseable datetime", tiffWithDateTime(t, "not a date, really!")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Capture(tt.data); got != nil {
				t.Errorf("Capture = %v, want nil (absent)", got)
			}
		})
	}
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		format string
	}{
		{"small JPEG", 100, 60, "jpeg"},
		{"PNG", 32, 48, "png"},
		{"wide JPEG", 1920, 1080, "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeTestImage(t, tt.width, tt.height, tt.format)
			w, h, err := Dimensions(data)
			if err != nil {
				t.Fatalf("Dimensions failed: %v", err)
			}
			if w != tt.width || h != tt.height {
				t.Errorf("Dimensions = %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
		})
	}
}

func TestDimensionsUndecodable(t *testing.T) {
	if _, _, err := Dimensions([]byte("not an image")); err == nil {
		t.Fatal("expected error for undecodable bytes")
	}
}
