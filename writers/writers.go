package writers

// Functions for encoding field values back into a save buffer.
// Everything is fixed-width and in-place: the format addresses records by
// absolute offset, so a single byte of growth anywhere would corrupt every
// record after it.

import (
	"fmt"

	"github.com/phlenoir/pz-corps-save-explorer/readers"
	"github.com/phlenoir/pz-corps-save-explorer/types"
)

// Write_uint writes v as width little-endian bytes into target at off.
// A value that does not fit the declared width is an error, never a
// silent truncation.
func Write_uint(target []byte, off int, width int, v int) error {
	if width < 1 || width > 4 {
		return &types.Encoding_error{Field: "?", What: fmt.Sprintf("unsupported field width %v", width)}
	}
	max := 1<<(8*width) - 1
	if v < 0 || v > max {
		return &types.Encoding_error{Field: "?", What: fmt.Sprintf("value %v out of range 0..%v", v, max)}
	}
	if off < 0 || off+width > len(target) {
		return &types.Structural_error{Offset: off, What: "write runs past end of buffer"}
	}
	for i := range width {
		target[off+i] = uint8((v >> (8 * i)) & 0xFF)
	}
	return nil
}

// Write_int is Write_uint for signed fields.
func Write_int(target []byte, off int, width int, v int) error {
	if width < 1 || width > 4 {
		return &types.Encoding_error{Field: "?", What: fmt.Sprintf("unsupported field width %v", width)}
	}
	lo, hi := -(1 << (8*width - 1)), 1<<(8*width-1)-1
	if v < lo || v > hi {
		return &types.Encoding_error{Field: "?", What: fmt.Sprintf("value %v out of range %v..%v", v, lo, hi)}
	}
	if v < 0 {
		v += 1 << (8 * width)
	}
	return Write_uint(target, off, width, v)
}

// Write_utf16_string writes str as UTF-16LE into a fixed-capacity slot at
// off.  cap is the encoded byte length of the original string (terminator
// not included); a longer replacement fails rather than shifting bytes.
// The unused remainder of the slot is zeroed, which doubles as terminator.
func Write_utf16_string(target []byte, off int, cap int, str string) error {
	if 2*len(str) > cap {
		return &types.Encoding_error{
			Field: "?",
			What:  fmt.Sprintf("string too long: %v characters, capacity %v", len(str), cap/2),
		}
	}
	if off < 0 || off+cap+2 > len(target) {
		return &types.Structural_error{Offset: off, What: "string write runs past end of buffer"}
	}
	for _, c := range []byte(str) {
		if !(readers.Is_print_ascii(c) || c == '\t') {
			return &types.Encoding_error{Field: "?", What: fmt.Sprintf("character %q not representable", c)}
		}
	}
	for i := range cap + 2 {
		target[off+i] = 0
	}
	for i, c := range []byte(str) {
		target[off+2*i] = c
	}
	return nil
}
