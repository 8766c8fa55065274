package types

import (
	"fmt"
	"strings"
)

// There is no published spec for the .pzsav format.  Everything in here was
// worked out by staring at hex dumps, so fields are only as trustworthy as
// the sentinel checks that guard them.

// Anchor is a located occurrence of a UTF-16LE text pattern in the save file.
// Anchors are discovered by searching, never constructed by hand.
type Anchor struct {
	Offset int
	Text   string
}

// Field describes how one named value maps onto bytes inside a record.
// Offset is relative to the owning stats block (or record, for strings).
type Field struct {
	Name   string
	Offset int
	Width  int
	Enc    Encoding
}

type Encoding int

const (
	ENC_UINT Encoding = iota
	ENC_INT
	ENC_STRING // UTF-16LE, 00 00 terminated, fixed capacity
)

// Hero is a sub-record nested inside a unit.  Stats is always 16 u16s.
type Hero struct {
	Name      string
	Image     string
	Stats     []int
	Stats_off int // absolute offset of the stats block in the file
}

// Unit is one decoded unit record.
// Start/End are absolute byte offsets into the loaded file; End is exclusive.
// The unit does not own any file bytes - it just remembers where they are.
type Unit struct {
	Name     string
	Idx      int // 1-based position in scan order
	Start    int
	End      int
	Name_off int // where the name string itself begins (after any padding)
	Name_cap int // encoded byte length of the name, terminator not included

	Stats     []int
	Stats_off int

	History   []byte
	Heroes    []Hero
	Citations []string
}

// Structural_error means the bytes did not look like what the schema says
// they should look like at some offset.  Never recoverable: decoding past
// one of these would produce garbage stats.
type Structural_error struct {
	Offset int
	What   string
}

func (e *Structural_error) Error() string {
	return fmt.Sprintf("structural error at offset 0x%x (%v): %v", e.Offset, e.Offset, e.What)
}

// Selector_error means a requested unit/hero/field could not be picked out -
// either nothing matched, or (for names) more than one thing matched.
type Selector_error struct {
	Selector   string
	What       string
	Candidates []string
}

func (e *Selector_error) Error() string {
	out := fmt.Sprintf("%v: %v", e.Selector, e.What)
	if len(e.Candidates) > 0 {
		out += " {" + strings.Join(e.Candidates, ", ") + "}"
	}
	return out
}

// Encoding_error means a new value does not fit the declared field shape.
// One of these aborts the whole patch; partial patches never hit the disk.
type Encoding_error struct {
	Field string
	What  string
}

func (e *Encoding_error) Error() string {
	return fmt.Sprintf("cannot encode %v: %v", e.Field, e.What)
}
