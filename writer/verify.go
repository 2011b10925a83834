package writer

import (
	"bytes"
	"fmt"

	"docforge/xref"
)

// Verify re-reads a produced buffer's xref table and confirms every
// entry points at the first byte of its object header. This is the
// central correctness property of the whole writer; it is cheap enough
// to run on every produced document.
func Verify(data []byte) error {
	table, err := xref.Resolve(data)
	if err != nil {
		return fmt.Errorf("writer: verify: %w", err)
	}
	nums := table.Objects()
	if len(nums) == 0 {
		return fmt.Errorf("writer: verify: xref table has no objects")
	}
	for _, num := range nums {
		off, gen, _ := table.Lookup(num)
		if gen != 0 {
			return fmt.Errorf("writer: verify: object %d has generation %d", num, gen)
		}
		want := []byte(fmt.Sprintf("%d 0 obj", num))
		if off < 0 || off+int64(len(want)) > int64(len(data)) {
			return fmt.Errorf("writer: verify: object %d offset %d out of range", num, off)
		}
		if !bytes.HasPrefix(data[off:], want) {
			return fmt.Errorf("writer: verify: object %d offset %d does not address %q", num, off, want)
		}
	}
	if table.Size() != nums[len(nums)-1]+1 {
		return fmt.Errorf("writer: verify: table size %d does not cover object %d", table.Size(), nums[len(nums)-1])
	}
	return nil
}
