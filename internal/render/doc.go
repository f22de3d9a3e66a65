// Package render produces bounded-size JPEG renditions of source images.
//
// A rendition's longer side never exceeds the configured maximum. Scaling
// preserves the aspect ratio and only ever shrinks: a source that already
// fits is re-encoded at its original dimensions. Two decode paths exist,
// libvips (when initialized at startup) with decode-time downsampling, and a
// pure-Go fallback via the imaging library.
package render
