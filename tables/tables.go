package tables

// Schema tables for the .pzsav unit block.
// These are in their own file because they are data, not logic: every
// constant in here was found by manual hex inspection and can be revised
// without touching the scanning or patching code.

import (
	"sort"

	"github.com/phlenoir/pz-corps-save-explorer/types"
)

// Sentinel shape.  Record boundaries are contiguous runs of 0xFF; shorter
// runs appear inside stat blocks and must be ignored.
const (
	MIN_FF_RUN = 4
	MAX_FF_RUN = 16
)

// Search windows.  Deliberately generous - their only job is to stop a
// misaligned scan from walking half the file before failing.
const (
	AFTER_NAME_WINDOW = 4096    // name end -> first sentinel
	HISTORY_WINDOW    = 256_000 // history block -> second sentinel
	TAIL_WINDOW       = 512_000 // hero/citation tail -> third sentinel
)

const (
	MAX_HEROES       = 3  // populated hero slots, whatever the count byte claims
	HERO_STAT_COUNT  = 16 // u16s per hero stats block
	UNIT_STATS_LEN   = 185 // bytes of the history head holding unit stats; 185 seems to work all the time
	NAME_SKIP_WINDOW = 256 // max junk bytes before a unit name
	RECORD_END_SLACK = 4   // minimum gap between third sentinel and next unit
	HERO_COUNT_SKIP  = 8   // hero count byte -> first hero record
	HERO_NAME_GAP    = 4   // hero name terminator -> portrait string
)

// Unit kill counters are one u16 per target class, in this order, starting
// at u16 index 32 of the stats block.
var Kill_classes = []string{
	"inf", "tank", "reco", "at", "art", "aa", "bunker",
	"fighter", "tbomber", "sbomber",
	"submarine", "destroyer", "cruiser", "carrier",
	"truck", "airtransport", "seatransport", "train",
}

const KILL_CLASS_BASE = 32

// Unit_fields maps a field name to its slot in the unit stats block.
// Offsets are byte offsets (2x the u16 index the scanner reports).
var Unit_fields = map[string]types.Field{}

// Hero_fields is the same thing for the 16-u16 hero stats block.
// Index positions were confirmed by editing a live save and re-checking
// the unit screen in game.
var Hero_fields = map[string]types.Field{
	"attack":     {Name: "attack", Offset: 6, Width: 2, Enc: types.ENC_UINT},
	"defense":    {Name: "defense", Offset: 10, Width: 2, Enc: types.ENC_UINT},
	"initiative": {Name: "initiative", Offset: 12, Width: 2, Enc: types.ENC_UINT},
	"movement":   {Name: "movement", Offset: 16, Width: 2, Enc: types.ENC_UINT},
	"spotting":   {Name: "spotting", Offset: 20, Width: 2, Enc: types.ENC_UINT},
	"range":      {Name: "range", Offset: 24, Width: 2, Enc: types.ENC_UINT},
}

func init() {
	u16 := func(name string, index int) {
		Unit_fields[name] = types.Field{Name: name, Offset: 2 * index, Width: 2, Enc: types.ENC_UINT}
	}
	u16("strength", 5)
	u16("max_strength", 7)
	u16("xp", 13)
	u16("fuel", 21)
	u16("ammo", 23)
	u16("kills", 28)
	u16("losses", 30)
	for i, class := range Kill_classes {
		u16("kill_"+class, KILL_CLASS_BASE+2*i)
	}

	// The name is the one non-numeric field; its offset is per-unit
	// (recorded by the scanner), so the schema entry only declares shape.
	Unit_fields["name"] = types.Field{Name: "name", Offset: -1, Width: 0, Enc: types.ENC_STRING}
}

// Field_names lists a field table's keys in stable order, for help text
// and error messages.
func Field_names(fields map[string]types.Field) []string {
	out := []string{}
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Unit_stat reads a named stat from an already-decoded unit.
func Unit_stat(u *types.Unit, name string) (int, error) {
	f, ok := Unit_fields[name]
	if !ok || f.Enc == types.ENC_STRING {
		return 0, &types.Selector_error{Selector: name, What: "not a numeric unit stat"}
	}
	idx := f.Offset / 2
	if idx >= len(u.Stats) {
		return 0, &types.Structural_error{Offset: u.Stats_off + f.Offset, What: "stat index beyond decoded stats block"}
	}
	return u.Stats[idx], nil
}

// Hero_stat reads a named stat from a decoded hero.
func Hero_stat(h *types.Hero, name string) (int, error) {
	f, ok := Hero_fields[name]
	if !ok {
		return 0, &types.Selector_error{Selector: name, What: "not a hero stat"}
	}
	idx := f.Offset / 2
	if idx >= len(h.Stats) {
		return 0, &types.Structural_error{Offset: h.Stats_off + f.Offset, What: "stat index beyond hero stats block"}
	}
	return h.Stats[idx], nil
}
