package mediatypes

// ImageExtensions maps file extensions to whether they are part of the
// raster-image set the ingest pipeline accepts.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// vipsExtensions are formats only libvips can decode. They join the accepted
// set via EnableVipsFormats once libvips is up; without it every such file
// would enumerate only to fail at the decode stage.
var vipsExtensions = map[string]bool{
	".heic": true,
	".heif": true,
}

// EnableVipsFormats adds the libvips-only formats to the accepted image set.
// Call once at startup, after libvips initializes successfully.
func EnableVipsFormats() {
	for ext := range vipsExtensions {
		ImageExtensions[ext] = true
	}
}

// MimeTypes maps image file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
}

// junkNames are filesystem noise that never counts as a candidate.
var junkNames = map[string]bool{
	".ds_store": true,
	"thumbs.db": true,
}

// junkSuffixes mark partially written files left behind by other tools.
var junkSuffixes = []string{".tmp", ".part", ".crdownload"}

// IsImage returns true if the extension represents a supported raster image.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
func IsImage(ext string) bool {
	return ImageExtensions[ext]
}

// GetMimeType returns the MIME type for a given image file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsJunk reports whether a lowercase file name is incidental filesystem
// noise (.DS_Store, Thumbs.db, partial downloads) that should be silently
// excluded from enumeration.
func IsJunk(lowerName string) bool {
	if junkNames[lowerName] {
		return true
	}
	for _, suffix := range junkSuffixes {
		if len(lowerName) > len(suffix) && lowerName[len(lowerName)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}
