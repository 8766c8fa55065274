package patch

// The patch engine.  Applies (unit, field) = value assignments to an
// in-memory copy of a save file, re-checks the sentinels it touched, and
// only then lets anything near the disk - behind a verified backup.
//
// No partial patches: any bad selector or unencodable value fails the
// whole set before a single byte is changed.

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/phlenoir/pz-corps-save-explorer/scanner"
	"github.com/phlenoir/pz-corps-save-explorer/tables"
	"github.com/phlenoir/pz-corps-save-explorer/types"
	"github.com/phlenoir/pz-corps-save-explorer/writers"
)

// Selector picks one unit record.  Exactly one of the three ways should be
// set: exact name, 1-based scan index, or an absolute record offset.
type Selector struct {
	Name   string
	Index  int // 1-based; 0 means unused
	Offset int // absolute; <0 means unused
}

func (s Selector) String() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Index > 0:
		return fmt.Sprintf("#%v", s.Index)
	default:
		return fmt.Sprintf("@0x%x", s.Offset)
	}
}

// Assignment is one field = value pair.  Value stays textual until apply
// time so the same struct can carry numbers and replacement names.
type Assignment struct {
	Field string
	Value string
}

// Patchset scopes a list of assignments to one unit, or to one of its
// heroes when Hero is 1-based non-zero.
type Patchset struct {
	Target Selector
	Hero   int
	Sets   []Assignment
}

// Change reports one applied (or dry-run) field edit.
type Change struct {
	Unit   string
	Field  string
	Offset int
	Old    string
	New    string
}

// Apply resolves every patchset, applies all assignments to a fresh copy
// of data, re-validates every touched record, and returns the changes plus
// the working buffer.  data itself is never modified.
func Apply(data []byte, base int, patches []Patchset, opts scanner.Options) ([]Change, []byte, error) {
	units, err := scanner.Scan_units(data, base, opts)
	if err != nil {
		return nil, nil, err
	}

	// resolve everything first - a selector failure in patch 3 must not
	// leave patches 1 and 2 half-applied
	targets := make([]*types.Unit, len(patches))
	for i, ps := range patches {
		u, err := resolve(data, units, ps.Target, opts)
		if err != nil {
			return nil, nil, err
		}
		targets[i] = u
	}

	working := make([]byte, len(data))
	copy(working, data)

	changes := []Change{}
	for i, ps := range patches {
		cs, err := apply_one(working, targets[i], ps)
		if err != nil {
			return nil, nil, err
		}
		changes = append(changes, cs...)
	}

	// confirm no patch broke the alignment it depended on
	for _, u := range targets {
		if err := scanner.Validate_start(working, u.Start, opts); err != nil {
			return nil, nil, fmt.Errorf("patch corrupted record at 0x%x: %w", u.Start, err)
		}
		_, next, err := scanner.Parse_unit(working, u.Start, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("patch corrupted record at 0x%x: %w", u.Start, err)
		}
		if next != u.End {
			return nil, nil, &types.Structural_error{
				Offset: u.Start,
				What:   fmt.Sprintf("record end moved from 0x%x to 0x%x after patch", u.End, next),
			}
		}
	}

	return changes, working, nil
}

// Dry_run is Apply without the working buffer: resolve, encode, validate,
// report - never touch the disk.
func Dry_run(data []byte, base int, patches []Patchset, opts scanner.Options) ([]Change, error) {
	changes, _, err := Apply(data, base, patches, opts)
	return changes, err
}

func resolve(data []byte, units []types.Unit, sel Selector, opts scanner.Options) (*types.Unit, error) {
	switch {
	case sel.Name != "":
		return scanner.Unit_by_name(units, sel.Name)
	case sel.Index > 0:
		return scanner.Unit_by_index(units, sel.Index)
	case sel.Offset >= 0:
		if err := scanner.Validate_start(data, sel.Offset, opts); err != nil {
			return nil, err
		}
		u, _, err := scanner.Parse_unit(data, sel.Offset, opts)
		if err != nil {
			return nil, err
		}
		return &u, nil
	}
	return nil, &types.Selector_error{Selector: sel.String(), What: "empty selector"}
}

func apply_one(working []byte, u *types.Unit, ps Patchset) ([]Change, error) {
	var hero *types.Hero
	if ps.Hero != 0 {
		h, err := scanner.Hero_of(u, ps.Hero)
		if err != nil {
			return nil, err
		}
		hero = h
	}

	changes := []Change{}
	for _, set := range ps.Sets {
		var c *Change
		var err error
		if hero != nil {
			c, err = set_hero_field(working, u, hero, set)
		} else {
			c, err = set_unit_field(working, u, set)
		}
		if err != nil {
			return nil, name_encoding_error(err, set.Field)
		}
		if c != nil {
			changes = append(changes, *c)
		}
	}
	return changes, nil
}

func set_unit_field(working []byte, u *types.Unit, set Assignment) (*Change, error) {
	f, ok := tables.Unit_fields[set.Field]
	if !ok {
		return nil, &types.Selector_error{
			Selector:   set.Field,
			What:       "not a unit field",
			Candidates: tables.Field_names(tables.Unit_fields),
		}
	}

	if f.Enc == types.ENC_STRING {
		// the unit name: fixed capacity, no byte-shift allowed
		if set.Value == u.Name {
			return nil, nil
		}
		err := writers.Write_utf16_string(working, u.Name_off, u.Name_cap, set.Value)
		if err != nil {
			return nil, err
		}
		return &Change{Unit: u.Name, Field: set.Field, Offset: u.Name_off, Old: u.Name, New: set.Value}, nil
	}

	v, err := parse_value(set.Value)
	if err != nil {
		return nil, err
	}
	old, err := tables.Unit_stat(u, set.Field)
	if err != nil {
		return nil, err
	}
	if old == v {
		return nil, nil
	}
	off := u.Stats_off + f.Offset
	if err := write_numeric(working, off, f, v); err != nil {
		return nil, err
	}
	return &Change{Unit: u.Name, Field: set.Field, Offset: off, Old: strconv.Itoa(old), New: strconv.Itoa(v)}, nil
}

func set_hero_field(working []byte, u *types.Unit, h *types.Hero, set Assignment) (*Change, error) {
	f, ok := tables.Hero_fields[set.Field]
	if !ok {
		return nil, &types.Selector_error{
			Selector:   set.Field,
			What:       "not a hero field",
			Candidates: tables.Field_names(tables.Hero_fields),
		}
	}
	v, err := parse_value(set.Value)
	if err != nil {
		return nil, err
	}
	old, err := tables.Hero_stat(h, set.Field)
	if err != nil {
		return nil, err
	}
	if old == v {
		return nil, nil
	}
	off := h.Stats_off + f.Offset
	if err := write_numeric(working, off, f, v); err != nil {
		return nil, err
	}
	unit := u.Name + " / " + h.Name
	return &Change{Unit: unit, Field: set.Field, Offset: off, Old: strconv.Itoa(old), New: strconv.Itoa(v)}, nil
}

func write_numeric(working []byte, off int, f types.Field, v int) error {
	if f.Enc == types.ENC_INT {
		return writers.Write_int(working, off, f.Width, v)
	}
	return writers.Write_uint(working, off, f.Width, v)
}

func parse_value(s string) (int, error) {
	// base 0 so "0x1f" works the same as it does in a hex editor
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, &types.Encoding_error{Field: "?", What: fmt.Sprintf("%q is not a number", s)}
	}
	return int(v), nil
}

// name_encoding_error stamps the real field name onto encoding errors that
// bubbled up from the width-checking writers.
func name_encoding_error(err error, field string) error {
	var ee *types.Encoding_error
	if errors.As(err, &ee) && ee.Field == "?" {
		ee.Field = field
	}
	return err
}

// Persist writes the working buffer to disk.  Writing back over the
// original happens only after the original has been copied, byte for
// byte, to <path>.bak and the copy has been read back and compared.  If
// the backup cannot be confirmed the original is not touched.  The backup
// is never deleted by this tool.
func Persist(path string, original []byte, working []byte, out_path string) (string, error) {
	if out_path != "" && out_path != path {
		return "", write_whole_file(out_path, working)
	}

	backup := path + ".bak"
	if err := write_whole_file(backup, original); err != nil {
		return "", fmt.Errorf("backup failed, original untouched: %w", err)
	}
	check, err := os.ReadFile(backup)
	if err != nil || !bytes.Equal(check, original) {
		return "", fmt.Errorf("backup at %v could not be verified, original untouched", backup)
	}

	if err := write_whole_file(path, working); err != nil {
		return backup, err
	}
	return backup, nil
}

func write_whole_file(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
