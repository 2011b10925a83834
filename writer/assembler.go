package writer

import (
	"bytes"
	"fmt"

	"docforge/pdfobj"
	"docforge/raster"
)

// Assemble lays out N encoded images as an N-page document and returns
// the finished byte buffer. A single page is the N=1 case of the same
// path; zero pages is an error and nothing is produced.
//
// Two passes: the first assigns every object its number and builds the
// catalog and page tree (their text depends on the full kid list), the
// second serializes in final order while recording each object's offset
// as it is written.
func Assemble(images []*raster.Encoded) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrNoPages
	}

	// Pass 1: numbering and structure.
	triples := make([]*PageTriple, 0, len(images))
	kids := pdfobj.NewArray()
	for i, img := range images {
		base := firstPageObject + i*objectsPerPage
		t, err := BuildPage(img, base)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		triples = append(triples, t)
		kids.Append(pdfobj.ToRef(base))
	}

	pageTree := pdfobj.NewDict()
	pageTree.Set("Type", pdfobj.NameOf("Pages"))
	pageTree.Set("Kids", kids)
	pageTree.Set("Count", pdfobj.Int(int64(len(triples))))

	catalog := pdfobj.NewDict()
	catalog.Set("Type", pdfobj.NameOf("Catalog"))
	catalog.Set("Pages", pdfobj.ToRef(pageTreeNum))

	// Pass 2: serialize with a running cursor. Offsets come from the
	// buffer position at write time, never from arithmetic.
	var buf bytes.Buffer
	buf.WriteString(header)

	totalObjects := pageTreeNum + len(triples)*objectsPerPage
	offsets := make([]int64, totalObjects+1) // index 0 unused (free entry)

	write := func(num int, obj pdfobj.Object) {
		offsets[num] = int64(buf.Len())
		buf.Write(pdfobj.MarshalIndirect(pdfobj.Ref{Num: num}, obj))
	}

	write(catalogNum, catalog)
	write(pageTreeNum, pageTree)
	for _, t := range triples {
		write(t.Base, t.Page)
		write(t.Base+1, t.Image)
		write(t.Base+2, t.Content)
	}

	// Cross-reference table: free entry for object 0, then one fixed
	// 20-byte line per object in ascending number order.
	xrefOffset := buf.Len()
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", totalObjects+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= totalObjects; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}

	buf.WriteString("trailer\n")
	fmt.Fprintf(&buf, "<< /Size %d /Root %d 0 R >>\n", totalObjects+1, catalogNum)
	buf.WriteString("startxref\n")
	fmt.Fprintf(&buf, "%d\n", xrefOffset)
	buf.WriteString("%%EOF\n")

	return buf.Bytes(), nil
}
