// Package media turns photo files into decoded previews and reads the
// embedded metadata used by triage.
//
// Loader decodes a file once, fits it to the preview size and stores the
// result in the shared thumbcache.Cache so the analysis workers and the HTTP
// preview endpoint never decode the same file twice. Concurrent misses on
// the same path are collapsed into a single decode.
//
// Decoding uses disintegration/imaging with EXIF auto-orientation. When
// libvips is initialised (USE_VIPS) it is used instead: it shrinks JPEGs at
// decode time and renders camera raw formats the pure Go decoders cannot.
//
// CaptureTime reads EXIF DateTimeOriginal and EmbeddedRating reads the XMP
// star rating written by other photo tools.
package media
