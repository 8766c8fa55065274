package scanner

// Unit record scanner for .pzsav save files.
//
// The format is undocumented.  What we rely on:
//   - unit and hero names are UTF-16LE strings terminated by 00 00
//   - blocks inside a unit are delimited by sentinel runs of 0xFF
//   - the scenario objective text appears twice, and the unit list starts
//     after the SECOND occurrence.  Nobody knows why it is there twice;
//     treat this as an observed rule, not a property of the format.

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/phlenoir/pz-corps-save-explorer/readers"
	"github.com/phlenoir/pz-corps-save-explorer/tables"
	"github.com/phlenoir/pz-corps-save-explorer/types"
)

// Options are the scan tuning knobs.  The defaults in tables.go are right
// for every save seen so far; the CLI exposes overrides for bootstrapping
// new game versions.
type Options struct {
	Stats_len         int // bytes of history head decoded as unit stats
	After_name_window int
	History_window    int
	Tail_window       int
	Min_run           int
	Max_run           int
	Max_units         int
}

func Default_options() Options {
	return Options{
		Stats_len:         tables.UNIT_STATS_LEN,
		After_name_window: tables.AFTER_NAME_WINDOW,
		History_window:    tables.HISTORY_WINDOW,
		Tail_window:       tables.TAIL_WINDOW,
		Min_run:           tables.MIN_FF_RUN,
		Max_run:           tables.MAX_FF_RUN,
		Max_units:         1000,
	}
}

// Encode_pattern converts text to the byte pattern it has in the file:
// UTF-16LE plus the 00 00 terminator.
func Encode_pattern(text string) ([]byte, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	out, err := enc.Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("cannot encode %q as UTF-16LE: %w", text, err)
	}
	return append(out, 0, 0), nil
}

// Find_anchors returns every offset where text appears in the buffer as a
// terminated UTF-16LE string, in ascending order.  The search advances one
// byte per hit, so matches at odd alignments are found too.
func Find_anchors(data []byte, text string) ([]types.Anchor, error) {
	pattern, err := Encode_pattern(text)
	if err != nil {
		return nil, err
	}
	out := []types.Anchor{}
	start := 0
	for {
		pos := bytes.Index(data[start:], pattern)
		if pos < 0 {
			return out, nil
		}
		out = append(out, types.Anchor{Offset: start + pos, Text: text})
		start += pos + 1
	}
}

// Find_base locates the start of the unit list from the scenario objective
// marker text.  The marker block appears twice in every save examined; the
// real unit list follows the second occurrence.  (Heuristic - see above.)
func Find_base(data []byte, marker string) (int, error) {
	anchors, err := Find_anchors(data, marker)
	if err != nil {
		return 0, err
	}
	if len(anchors) == 0 {
		return 0, &types.Structural_error{Offset: 0, What: fmt.Sprintf("marker %q not found", marker)}
	}
	if len(anchors) < 2 {
		return 0, &types.Structural_error{
			Offset: anchors[0].Offset,
			What:   fmt.Sprintf("marker %q found only once; expected two occurrences", marker),
		}
	}
	pattern, _ := Encode_pattern(marker)
	return anchors[1].Offset + len(pattern), nil
}

// Validate_start decides whether off is a plausible unit record boundary:
// a terminated UTF-16LE name within the padding window, followed by a
// sentinel run where the schema says one must be.  Callers must not decode
// fields from an offset this rejects - this check is the only thing
// standing between a bad offset and silently garbage stats.
func Validate_start(data []byte, off int, opts Options) error {
	if off < 0 || off >= len(data) {
		return &types.Structural_error{Offset: off, What: "offset outside buffer"}
	}
	cur := off
	readers.Skip_non_ascii(data, &cur, tables.NAME_SKIP_WINDOW)
	name, err := readers.Read_utf16_string(data, &cur)
	if err != nil {
		return err
	}
	if name == "" {
		return &types.Structural_error{Offset: off, What: "empty name at candidate record start"}
	}
	pos, _ := readers.Find_ff_run(data, cur, opts.After_name_window, opts.Min_run, opts.Max_run)
	if pos < 0 {
		return &types.Structural_error{Offset: cur, What: "no sentinel run within window after name"}
	}
	return nil
}

// Parse_unit decodes the record starting at off and returns it along with
// the offset of the next record.
func Parse_unit(data []byte, off int, opts Options) (types.Unit, int, error) {
	u := types.Unit{Start: off}

	cur := off
	readers.Skip_non_ascii(data, &cur, tables.NAME_SKIP_WINDOW)
	u.Name_off = cur
	name, err := readers.Read_utf16_string(data, &cur)
	if err != nil {
		return u, off, err
	}
	u.Name = name
	u.Name_cap = cur - 2 - u.Name_off

	// boundary #1: name -> stats/history
	pos1, cnt1 := readers.Find_ff_run(data, cur, opts.After_name_window, opts.Min_run, opts.Max_run)
	if pos1 < 0 {
		return u, off, &types.Structural_error{Offset: cur, What: "first sentinel not found after name"}
	}
	hist_start := pos1 + cnt1
	u.Stats_off = hist_start + 1
	u.Stats, err = readers.Read_uint16_block(data, u.Stats_off, opts.Stats_len/2)
	if err != nil {
		return u, off, err
	}

	// boundary #2: history -> heroes
	pos2, cnt2 := readers.Find_ff_run(data, hist_start, opts.History_window, opts.Min_run, opts.Max_run)
	if pos2 < 0 {
		return u, off, &types.Structural_error{Offset: hist_start, What: "second sentinel not found after history"}
	}
	u.History = data[hist_start:pos2]

	after_heroes := parse_heroes(data, pos2+cnt2, &u, opts)

	// boundary #3: heroes/citations -> next unit
	pos3, cnt3 := readers.Find_ff_run(data, after_heroes, opts.Tail_window, opts.Min_run, opts.Max_run)
	if pos3 < 0 {
		return u, off, &types.Structural_error{Offset: after_heroes, What: "third sentinel not found after heroes"}
	}
	u.Citations = Split_citations(data[after_heroes:pos3])

	u.End = pos3 + cnt3 + tables.RECORD_END_SLACK
	if u.End > len(data) {
		u.End = len(data)
	}
	return u, u.End, nil
}

// parse_heroes reads the hero count byte and then exactly that many hero
// sub-records (capped at the structural maximum).  A hero that does not
// parse ends the hero block cleanly - the declared count lies sometimes.
func parse_heroes(data []byte, count_off int, u *types.Unit, opts Options) int {
	if count_off >= len(data) {
		return count_off
	}
	declared := int(data[count_off])
	i := count_off + tables.HERO_COUNT_SKIP
	for range min(declared, tables.MAX_HEROES) {
		hero, next, ok := parse_one_hero(data, i, opts)
		if !ok {
			return i
		}
		u.Heroes = append(u.Heroes, hero)
		i = next
	}
	return i
}

func parse_one_hero(data []byte, off int, opts Options) (types.Hero, int, bool) {
	h := types.Hero{}
	cur := off
	name, err := readers.Read_utf16_string(data, &cur)
	if err != nil || name == "" {
		return h, off, false
	}
	h.Name = name

	cur += tables.HERO_NAME_GAP
	image, err := readers.Read_utf16_string(data, &cur)
	if err != nil || !strings.HasSuffix(image, ".png") {
		return h, off, false
	}
	h.Image = image

	// each hero's stats block sits just after its own sentinel run
	pos, cnt := readers.Find_ff_run(data, cur, opts.After_name_window, opts.Min_run, opts.Max_run)
	if pos < 0 {
		return h, off, false
	}
	h.Stats_off = pos + cnt
	stats, err := readers.Read_uint16_block(data, h.Stats_off, tables.HERO_STAT_COUNT)
	if err != nil {
		return h, off, false
	}
	h.Stats = stats
	return h, h.Stats_off + 2*tables.HERO_STAT_COUNT + 2, true
}

// Scan_units walks the buffer from base and decodes consecutive unit
// records.  A sentinel reject at base itself is an error - a bad base
// would silently corrupt every subsequent decode, so it must be surfaced,
// not skipped.  A reject further in just ends the scan.
func Scan_units(data []byte, base int, opts Options) ([]types.Unit, error) {
	if err := Validate_start(data, base, opts); err != nil {
		return nil, fmt.Errorf("invalid base offset 0x%x: %w", base, err)
	}

	units := []types.Unit{}
	off := base
	for len(units) < opts.Max_units && off < len(data) {
		if Validate_start(data, off, opts) != nil {
			break
		}
		u, next, err := Parse_unit(data, off, opts)
		if err != nil || next <= off {
			break
		}
		u.Idx = len(units) + 1
		units = append(units, u)
		off = next
	}
	return units, nil
}

// Unit_by_name picks a unit by exact decoded name.  More than one match is
// an error listing the candidates - guessing which one the caller meant
// and then writing to it would be a great way to trash a campaign.
func Unit_by_name(units []types.Unit, name string) (*types.Unit, error) {
	matches := []int{}
	for i := range units {
		if units[i].Name == name {
			matches = append(matches, i)
		}
	}
	if len(matches) == 0 {
		return nil, &types.Selector_error{Selector: name, What: "no unit with that name"}
	}
	if len(matches) > 1 {
		candidates := []string{}
		for _, i := range matches {
			candidates = append(candidates, fmt.Sprintf("#%v %v @0x%x", units[i].Idx, units[i].Name, units[i].Start))
		}
		return nil, &types.Selector_error{Selector: name, What: "name matches more than one unit", Candidates: candidates}
	}
	return &units[matches[0]], nil
}

// Unit_by_index picks a unit by 1-based scan position.
func Unit_by_index(units []types.Unit, idx int) (*types.Unit, error) {
	if idx < 1 || idx > len(units) {
		return nil, &types.Selector_error{
			Selector: fmt.Sprintf("#%v", idx),
			What:     fmt.Sprintf("unit index out of range 1..%v", len(units)),
		}
	}
	return &units[idx-1], nil
}

// Hero_of picks a hero sub-record by 1-based index, distinguishing "this
// unit has fewer heroes than that" from "no unit can have that many".
func Hero_of(u *types.Unit, idx int) (*types.Hero, error) {
	if idx < 1 || idx > tables.MAX_HEROES {
		return nil, &types.Selector_error{
			Selector: fmt.Sprintf("hero %v", idx),
			What:     fmt.Sprintf("hero index out of bounds (1..%v)", tables.MAX_HEROES),
		}
	}
	if idx > len(u.Heroes) {
		return nil, &types.Selector_error{
			Selector: fmt.Sprintf("hero %v", idx),
			What:     fmt.Sprintf("hero not present (unit %v has %v)", u.Name, len(u.Heroes)),
		}
	}
	return &u.Heroes[idx-1], nil
}

// Split_citations decodes the tail block as "ASCII on 2 bytes" strings
// separated by 00 00.  Both alignments are tried; whichever produces more
// text wins.  The tail is noisy and this is best-effort by design.
func Split_citations(tail []byte) []string {
	parse := func(start int) []string {
		out := []string{}
		cur := []byte{}
		i := start
		for i+1 < len(tail) {
			lo, hi := tail[i], tail[i+1]
			i += 2
			if lo == 0 && hi == 0 {
				if s := strings.TrimSpace(string(cur)); s != "" {
					out = append(out, s)
				}
				cur = cur[:0]
				for i+1 < len(tail) && tail[i] == 0 && tail[i+1] == 0 {
					i += 2
				}
				continue
			}
			if hi == 0 && readers.Is_print_ascii(lo) {
				cur = append(cur, lo)
			}
		}
		if s := strings.TrimSpace(string(cur)); s != "" {
			out = append(out, s)
		}
		return out
	}

	a0, a1 := parse(0), parse(1)
	s0, s1 := 0, 0
	for _, s := range a0 {
		s0 += len(s)
	}
	for _, s := range a1 {
		s1 += len(s)
	}
	if s0 >= s1 {
		return a0
	}
	return a1
}

// Decode_history projects the printable-ASCII half of a history block,
// skipping the first skip bytes, cut to at most snippet characters.
func Decode_history(hist []byte, skip int, snippet int) string {
	if skip > len(hist) {
		return ""
	}
	h := hist[skip:]
	out := []byte{}
	for i := 0; i+1 < len(h); i += 2 {
		if h[i+1] == 0 && readers.Is_print_ascii(h[i]) {
			out = append(out, h[i])
		}
	}
	if len(out) > snippet {
		out = out[:snippet]
	}
	return string(out)
}
