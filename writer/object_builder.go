package writer

import (
	"fmt"

	"docforge/pdfobj"
	"docforge/raster"
)

// PageTriple is the object group for one page. The Page object takes
// number Base, the image XObject Base+1, the content stream Base+2.
// Absolute byte offsets are resolved by the assembler.
type PageTriple struct {
	Base    int
	Width   int
	Height  int
	Page    *pdfobj.Dict
	Image   *pdfobj.Stream
	Content *pdfobj.Stream
}

// BuildPage emits the three objects for a single page wrapping one
// embeddable image, numbered from base.
func BuildPage(img *raster.Encoded, base int) (*PageTriple, error) {
	if img.Format != raster.FormatJPEG {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, img.Format)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("writer: invalid page size %dx%d", img.Width, img.Height)
	}

	imageNum := base + 1
	contentNum := base + 2

	page := pdfobj.NewDict()
	page.Set("Type", pdfobj.NameOf("Page"))
	page.Set("Parent", pdfobj.ToRef(pageTreeNum))
	page.Set("MediaBox", pdfobj.NewArray(
		pdfobj.Int(0), pdfobj.Int(0),
		pdfobj.Int(int64(img.Width)), pdfobj.Int(int64(img.Height)),
	))
	xobjects := pdfobj.NewDict()
	xobjects.Set(imageResource, pdfobj.ToRef(imageNum))
	resources := pdfobj.NewDict()
	resources.Set("XObject", xobjects)
	page.Set("Resources", resources)
	page.Set("Contents", pdfobj.ToRef(contentNum))

	xdict := pdfobj.NewDict()
	xdict.Set("Type", pdfobj.NameOf("XObject"))
	xdict.Set("Subtype", pdfobj.NameOf("Image"))
	xdict.Set("Width", pdfobj.Int(int64(img.Width)))
	xdict.Set("Height", pdfobj.Int(int64(img.Height)))
	xdict.Set("ColorSpace", pdfobj.NameOf(colorSpace(img)))
	xdict.Set("BitsPerComponent", pdfobj.Int(8))
	xdict.Set("Filter", pdfobj.NameOf("DCTDecode"))
	// NewStream sets Length from the payload itself; the raw JPEG bytes
	// pass through untouched.
	image := pdfobj.NewStream(xdict, img.Data)

	content := pdfobj.NewStream(pdfobj.NewDict(), contentOps(img.Width, img.Height))

	return &PageTriple{
		Base:    base,
		Width:   img.Width,
		Height:  img.Height,
		Page:    page,
		Image:   image,
		Content: content,
	}, nil
}

// contentOps scales the unit square to the page size and paints the
// image at the origin. Dimensions are integers, so the operands never
// need exponent-free float handling.
func contentOps(w, h int) []byte {
	return []byte(fmt.Sprintf("q\n%d 0 0 %d 0 0 cm\n/%s Do\nQ", w, h, imageResource))
}

func colorSpace(img *raster.Encoded) string {
	if img.Gray {
		return "DeviceGray"
	}
	return "DeviceRGB"
}
