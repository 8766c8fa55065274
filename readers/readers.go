package readers

// Low-level byte readers for .pzsav buffers.
// All of these work on a whole-file byte slice with an explicit cursor,
// because everything interesting in the format is addressed by absolute
// offset - discovered with a hex editor, confirmed by sentinels.

import (
	"github.com/phlenoir/pz-corps-save-explorer/types"
)

func Is_print_ascii(b byte) bool {
	return b >= 0x20 && b < 0x7F
}

func Read_uint8(bytes []byte, cur *int) uint8 {
	out := bytes[*cur]
	*cur += 1
	return out
}

// Read_uint16 reads a little-endian unsigned 16-bit value.
func Read_uint16(bytes []byte, cur *int) int {
	out := int(bytes[*cur]) + int(bytes[*cur+1])<<8
	*cur += 2
	return out
}

// Read_int16 is Read_uint16 with sign extension.
func Read_int16(bytes []byte, cur *int) int {
	out := Read_uint16(bytes, cur)
	if out >= 0x8000 {
		out -= 0x10000
	}
	return out
}

func Read_uint32(bytes []byte, cur *int) int {
	out := 0
	for i := range 4 {
		out += int(bytes[*cur+i]) << (8 * i)
	}
	*cur += 4
	return out
}

// Read_utf16_string reads a 00 00 terminated UTF-16LE string at *cur and
// advances past the terminator.
// Only the "impoverished" UTF-16 that actually appears in save files is
// accepted: high byte 0, low byte printable ASCII (tab allowed).  Anything
// else is treated as proof that *cur is not pointing at a string at all.
func Read_utf16_string(bytes []byte, cur *int) (string, error) {
	out := []byte{}
	for {
		if *cur+1 >= len(bytes) {
			return "", &types.Structural_error{Offset: *cur, What: "EOF while reading UTF-16LE string"}
		}
		lo, hi := bytes[*cur], bytes[*cur+1]
		if lo == 0 && hi == 0 {
			*cur += 2
			return string(out), nil
		}
		if hi != 0 || !(Is_print_ascii(lo) || lo == '\t') {
			return "", &types.Structural_error{Offset: *cur, What: "invalid UTF-16LE pair (expected ASCII+00)"}
		}
		out = append(out, lo)
		*cur += 2
	}
}

// Skip_non_ascii advances the cursor past non-printable bytes, up to max.
// Units are padded with junk before the name; nobody knows what it means.
func Skip_non_ascii(bytes []byte, cur *int, max int) {
	end := min(len(bytes), *cur+max)
	for *cur < end && !Is_print_ascii(bytes[*cur]) {
		*cur += 1
	}
}

// Find_ff_run finds the first contiguous run of 0xFF bytes of length at
// least min_run, starting at start and looking no further than window bytes
// ahead.  The counted length is capped at max_run - physically longer runs
// do occur, but the format only ever cares about the first max_run bytes.
// Returns (pos, count), or (-1, 0) if there is no such run in the window.
func Find_ff_run(bytes []byte, start int, window int, min_run int, max_run int) (int, int) {
	end := min(len(bytes), start+window)
	i := start
	for i < end {
		if bytes[i] != 0xFF {
			i += 1
			continue
		}
		j := i
		for j < end && bytes[j] == 0xFF && (j-i) < max_run {
			j += 1
		}
		if j-i >= min_run {
			return i, j - i
		}
		// too short - skip the whole physical run and keep looking
		for j < end && bytes[j] == 0xFF {
			j += 1
		}
		i = j
	}
	return -1, 0
}

// Read_uint16_block reads n little-endian u16s starting at off.
func Read_uint16_block(bytes []byte, off int, n int) ([]int, error) {
	if off < 0 || off+2*n > len(bytes) {
		return nil, &types.Structural_error{Offset: off, What: "u16 block runs past end of file"}
	}
	out := make([]int, n)
	cur := off
	for i := range n {
		out[i] = Read_uint16(bytes, &cur)
	}
	return out, nil
}
