// Package mediatypes holds the dependency-free file classification shared by
// the scanner, the preview loader and the HTTP surface.
//
// Use IsPhoto to decide whether a path belongs in a triage session:
//
//	if mediatypes.IsPhoto(path) {
//	    // enqueue
//	}
//
// Raw camera formats are accepted by the scanner but can only be rendered
// when libvips is enabled. SortField names the orders offered for the visible
// record list.
package mediatypes
