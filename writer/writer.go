// Package writer turns encoded raster images into finished PDF byte
// buffers: one image per page, classic xref table, no external PDF
// machinery.
package writer

import "errors"

var (
	// ErrUnsupportedEncoding is returned when an image payload is not in
	// the embeddable set.
	ErrUnsupportedEncoding = errors.New("writer: image encoding not embeddable")
	// ErrNoPages is returned when assembly is requested with zero pages.
	ErrNoPages = errors.New("writer: document needs at least one page")
)

const (
	// Fixed object numbers for the document skeleton.
	catalogNum  = 1
	pageTreeNum = 2

	// Each page owns three consecutive objects: Page, Image XObject,
	// Content stream.
	objectsPerPage = 3

	// firstPageObject is where page triples start numbering.
	firstPageObject = 3
)

// header is the file marker plus a binary comment line so transfer tools
// treat the file as binary.
const header = "%PDF-1.7\n%\xE2\xE3\xCF\xD3\n"

// imageResource is the name every page's single XObject is registered
// under in its resource dictionary.
const imageResource = "Im0"
