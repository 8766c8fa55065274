package scanner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phlenoir/pz-corps-save-explorer/tables"
	"github.com/phlenoir/pz-corps-save-explorer/types"
)

// Synthetic save files for testing.  These are built from the same layout
// rules the scanner decodes: junk padding, UTF-16LE name, sentinel, stats
// block, history, sentinel, hero block, citations, sentinel.  Real saves
// are megabytes of mostly-unknown data; these are the parts we understand.

const test_marker = "Capture Smolensk and hold it"

type save_builder struct {
	buf []byte
}

func (b *save_builder) raw(p ...byte) {
	b.buf = append(b.buf, p...)
}

func (b *save_builder) zeros(n int) {
	b.buf = append(b.buf, make([]byte, n)...)
}

func (b *save_builder) u16(vals ...int) {
	for _, v := range vals {
		b.buf = append(b.buf, byte(v&0xFF), byte(v>>8))
	}
}

// str writes a 00 00 terminated UTF-16LE string
func (b *save_builder) str(s string) {
	for _, c := range []byte(s) {
		b.buf = append(b.buf, c, 0)
	}
	b.buf = append(b.buf, 0, 0)
}

// wide writes ASCII as UTF-16LE pairs with no terminator (history text)
func (b *save_builder) wide(s string) {
	for _, c := range []byte(s) {
		b.buf = append(b.buf, c, 0)
	}
}

func (b *save_builder) ff(n int) {
	for range n {
		b.buf = append(b.buf, 0xFF)
	}
}

type hero_spec struct {
	name  string
	image string
	stats [tables.HERO_STAT_COUNT]int
}

// unit appends one complete unit record
func (b *save_builder) unit(name string, history string, stats map[string]int, heroes []hero_spec, citations []string) {
	b.raw(0x02, 0x00, 0x13) // pre-name junk
	b.str(name)

	b.ff(6)
	b.raw(0x00) // stats start one byte after the sentinel
	vals := make([]int, tables.UNIT_STATS_LEN/2)
	for k, v := range stats {
		vals[tables.Unit_fields[k].Offset/2] = v
	}
	b.u16(vals...)
	b.wide(history)

	b.ff(5)
	b.raw(byte(len(heroes)))
	b.zeros(tables.HERO_COUNT_SKIP - 1)
	for _, h := range heroes {
		b.str(h.name)
		b.raw(0x01, 0x00, 0x00, 0x00)
		b.str(h.image)
		b.ff(4)
		b.u16(h.stats[:]...)
		b.zeros(2)
	}

	for _, c := range citations {
		b.wide(c)
		b.zeros(2)
	}
	if len(citations) == 0 {
		b.zeros(2)
	}

	b.ff(4)
	b.zeros(tables.RECORD_END_SLACK)
}

// build_save makes a file with the usual shape: junk, the objective text
// twice, then the unit list.
func build_save(units func(b *save_builder)) []byte {
	b := &save_builder{}
	b.zeros(32)
	b.str(test_marker) // briefing copy
	b.zeros(48)
	b.str(test_marker) // second copy; units follow
	units(b)
	return b.buf
}

func one_hero() hero_spec {
	h := hero_spec{name: "Hans Stollwerk", image: "hero_attack.png"}
	h.stats[tables.Hero_fields["attack"].Offset/2] = 22
	h.stats[tables.Hero_fields["defense"].Offset/2] = 7
	h.stats[tables.Hero_fields["movement"].Offset/2] = 1
	return h
}

func Test_Encode_pattern(t *testing.T) {
	p, err := Encode_pattern("AB")
	require.NoError(t, err)
	require.Equal(t, []byte{'A', 0, 'B', 0, 0, 0}, p)
}

func Test_Find_anchors(t *testing.T) {
	data := build_save(func(b *save_builder) {
		b.unit("1st Grenadiers", "x", nil, nil, nil)
	})

	anchors, err := Find_anchors(data, test_marker)
	require.NoError(t, err)
	require.Len(t, anchors, 2)
	require.Less(t, anchors[0].Offset, anchors[1].Offset)
	require.Equal(t, test_marker, anchors[0].Text)
}

func Test_Find_anchors_near_misses(t *testing.T) {
	b := &save_builder{}
	b.raw([]byte("decoy")...) // plain ASCII, not UTF-16LE
	b.zeros(4)
	b.wide("decoy") // right encoding, no terminator
	b.raw(0x41, 0x00)
	b.zeros(4)
	b.str("decoys") // terminated, but a longer word

	anchors, err := Find_anchors(b.buf, "decoy")
	require.NoError(t, err)
	require.Empty(t, anchors)
}

func Test_Find_base(t *testing.T) {
	data := build_save(func(b *save_builder) {
		b.unit("3rd Panzergrenadiers", "Formed in 1939.", map[string]int{"ammo": 42}, nil, nil)
	})

	base, err := Find_base(data, test_marker)
	require.NoError(t, err)

	// The unit list really does start there
	units, err := Scan_units(data, base, Default_options())
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.Equal(t, "3rd Panzergrenadiers", units[0].Name)
}

func Test_Find_base_failures(t *testing.T) {
	data := build_save(func(b *save_builder) {
		b.unit("3rd Panzergrenadiers", "x", nil, nil, nil)
	})

	_, err := Find_base(data, "no such text anywhere")
	require.Error(t, err)
	se := &types.Structural_error{}
	require.ErrorAs(t, err, &se)

	// A marker that appears only once is suspicious, not usable
	b := &save_builder{}
	b.zeros(16)
	b.str(test_marker)
	b.unit("3rd Panzergrenadiers", "x", nil, nil, nil)
	_, err = Find_base(b.buf, test_marker)
	require.Error(t, err)
	require.Contains(t, err.Error(), "only once")
}

func Test_Scan_units(t *testing.T) {
	data := build_save(func(b *save_builder) {
		b.unit("1st Grenadiers", "Raised in Kassel.", map[string]int{"strength": 10}, nil, nil)
		b.unit("3rd Panzergrenadiers", "Formed in 1939.", map[string]int{"strength": 8}, []hero_spec{one_hero()}, nil)
		b.unit("45th SdKfz  7/2", "Flak halftracks.", map[string]int{"strength": 15}, nil, nil)
	})
	base, err := Find_base(data, test_marker)
	require.NoError(t, err)

	units, err := Scan_units(data, base, Default_options())
	require.NoError(t, err)
	require.Len(t, units, 3)

	names := []string{}
	for i, u := range units {
		names = append(names, u.Name)
		require.Equal(t, i+1, u.Idx)
		require.Less(t, u.Start, u.End, "unit %v is empty or inverted", u.Name)
		if i > 0 {
			require.GreaterOrEqual(t, u.Start, units[i-1].End, "unit %v overlaps its predecessor", u.Name)
		}
	}
	require.Equal(t, []string{"1st Grenadiers", "3rd Panzergrenadiers", "45th SdKfz  7/2"}, names)
}

func Test_Scan_units_bad_base(t *testing.T) {
	data := build_save(func(b *save_builder) {
		b.unit("1st Grenadiers", "x", nil, nil, nil)
	})

	for _, base := range []int{-1, len(data) + 10} {
		_, err := Scan_units(data, base, Default_options())
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid base offset")
	}

	// In-bounds but pointing at nothing: no name, no sentinel
	_, err := Scan_units(make([]byte, 600), 0, Default_options())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid base offset")
}

func Test_Validate_start_no_sentinel(t *testing.T) {
	b := &save_builder{}
	b.str("Lonely Unit")
	b.zeros(100)

	err := Validate_start(b.buf, 0, Default_options())
	require.Error(t, err)
	require.Contains(t, err.Error(), "sentinel")
}

func Test_Parse_unit_fields(t *testing.T) {
	stats := map[string]int{
		"strength":     15,
		"max_strength": 10,
		"xp":           320,
		"fuel":         0,
		"ammo":         99,
		"kills":        25,
		"kill_tank":    10,
	}
	data := build_save(func(b *save_builder) {
		b.unit("3rd Panzergrenadiers", "Formed in 1939.", stats, []hero_spec{one_hero()},
			[]string{"For conspicuous gallantry", "Mentioned in dispatches"})
	})
	base, err := Find_base(data, test_marker)
	require.NoError(t, err)
	units, err := Scan_units(data, base, Default_options())
	require.NoError(t, err)
	require.Len(t, units, 1)
	u := &units[0]

	for name, want := range stats {
		got, err := tables.Unit_stat(u, name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	// An unset stat reads as zero, not garbage
	got, err := tables.Unit_stat(u, "losses")
	require.NoError(t, err)
	require.Equal(t, 0, got)

	require.Equal(t, "Formed in 1939.", Decode_history(u.History, tables.UNIT_STATS_LEN, 1000))

	require.Len(t, u.Heroes, 1)
	h := &u.Heroes[0]
	require.Equal(t, "Hans Stollwerk", h.Name)
	require.Equal(t, "hero_attack.png", h.Image)
	attack, err := tables.Hero_stat(h, "attack")
	require.NoError(t, err)
	require.Equal(t, 22, attack)

	require.Equal(t, []string{"For conspicuous gallantry", "Mentioned in dispatches"}, u.Citations)
}

func Test_Parse_unit_full_hero_block(t *testing.T) {
	heroes := []hero_spec{one_hero(), one_hero(), one_hero()}
	heroes[1].name = "Viktor Brack"
	heroes[2].name = "Otto Meyer"
	data := build_save(func(b *save_builder) {
		b.unit("3rd Panzergrenadiers", "x", nil, heroes, nil)
	})
	base, _ := Find_base(data, test_marker)
	units, err := Scan_units(data, base, Default_options())
	require.NoError(t, err)
	require.Len(t, units[0].Heroes, tables.MAX_HEROES)
}

func Test_Unit_by_name(t *testing.T) {
	data := build_save(func(b *save_builder) {
		b.unit("1st Grenadiers", "x", nil, nil, nil)
		b.unit("45th SdKfz  7/2", "x", nil, nil, nil)
		b.unit("45th SdKfz  7/2", "x", nil, nil, nil)
	})
	base, _ := Find_base(data, test_marker)
	units, err := Scan_units(data, base, Default_options())
	require.NoError(t, err)
	require.Len(t, units, 3)

	// the duplicated name is also visible as exactly two anchors
	anchors, err := Find_anchors(data, "45th SdKfz  7/2")
	require.NoError(t, err)
	require.Len(t, anchors, 2)
	require.Less(t, anchors[0].Offset, anchors[1].Offset)

	u, err := Unit_by_name(units, "1st Grenadiers")
	require.NoError(t, err)
	require.Equal(t, 1, u.Idx)

	_, err = Unit_by_name(units, "9th Phantom Corps")
	se := &types.Selector_error{}
	require.ErrorAs(t, err, &se)
	require.Empty(t, se.Candidates)

	// Two units with the same name: refuse to guess, list both
	_, err = Unit_by_name(units, "45th SdKfz  7/2")
	se = &types.Selector_error{}
	require.ErrorAs(t, err, &se)
	require.Len(t, se.Candidates, 2)
}

func Test_Unit_by_index(t *testing.T) {
	data := build_save(func(b *save_builder) {
		b.unit("1st Grenadiers", "x", nil, nil, nil)
	})
	base, _ := Find_base(data, test_marker)
	units, _ := Scan_units(data, base, Default_options())

	u, err := Unit_by_index(units, 1)
	require.NoError(t, err)
	require.Equal(t, "1st Grenadiers", u.Name)

	for _, idx := range []int{0, 2, -5} {
		_, err := Unit_by_index(units, idx)
		require.Error(t, err, fmt.Sprintf("index %v", idx))
	}
}

func Test_Hero_of(t *testing.T) {
	data := build_save(func(b *save_builder) {
		b.unit("3rd Panzergrenadiers", "x", nil, []hero_spec{one_hero()}, nil)
	})
	base, _ := Find_base(data, test_marker)
	units, _ := Scan_units(data, base, Default_options())
	u := &units[0]

	h, err := Hero_of(u, 1)
	require.NoError(t, err)
	require.Equal(t, "Hans Stollwerk", h.Name)

	// Slot 2 exists in the format but this unit hasn't filled it
	_, err = Hero_of(u, 2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not present")

	// Slot 4 can never exist
	_, err = Hero_of(u, 4)
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of bounds")
}

func Test_Split_citations(t *testing.T) {
	b := &save_builder{}
	b.wide("For conspicuous gallantry")
	b.zeros(2)
	b.wide("Mentioned in dispatches")
	b.zeros(2)
	want := []string{"For conspicuous gallantry", "Mentioned in dispatches"}
	require.Equal(t, want, Split_citations(b.buf))

	// Same block knocked off alignment by a stray byte
	misaligned := append([]byte{0x00}, b.buf...)
	require.Equal(t, want, Split_citations(misaligned))

	require.Empty(t, Split_citations([]byte{0, 0, 0, 0}))
}

func Test_Decode_history(t *testing.T) {
	b := &save_builder{}
	b.zeros(10)
	b.wide("Moved to Smolensk")
	require.Equal(t, "Moved to Smolensk", Decode_history(b.buf, 10, 1000))
	require.Equal(t, "Moved", Decode_history(b.buf, 10, 5))
	require.Equal(t, "", Decode_history(b.buf, len(b.buf)+5, 100))
}
