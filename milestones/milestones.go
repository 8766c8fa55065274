package milestones

// Per-unit milestones, computed from decoded unit records.
// These are in their own package for the same reason the schema tables
// are: they're data.  Scanning code doesn't care what an "ace" is.

import (
	"fmt"

	"github.com/phlenoir/pz-corps-save-explorer/tables"
	"github.com/phlenoir/pz-corps-save-explorer/types"
)

type Milestone struct {
	Id   string
	Name string
	Expl string
	Test func(u *types.Unit) bool
}

// stat is a zero-on-error stat read.  A unit whose stats block failed to
// decode simply earns nothing, which beats crashing the watcher.
func stat(u *types.Unit, name string) int {
	v, err := tables.Unit_stat(u, name)
	if err != nil {
		return 0
	}
	return v
}

// mk_kills makes a "kill a bunch of things" milestone
func mk_kills(id string, name string, number int) Milestone {
	return Milestone{
		id,
		name,
		fmt.Sprintf("Destroy %v enemy units with one unit", number),
		func(u *types.Unit) bool {
			return stat(u, "kills") >= number
		},
	}
}

// mk_class_kills makes a class-specialist milestone
func mk_class_kills(id string, name string, expl string, class string, number int) Milestone {
	return Milestone{
		id,
		name,
		expl,
		func(u *types.Unit) bool {
			return stat(u, "kill_"+class) >= number
		},
	}
}

func mk_xp(id string, name string, expl string, number int) Milestone {
	return Milestone{
		id,
		name,
		expl,
		func(u *types.Unit) bool {
			return stat(u, "xp") >= number
		},
	}
}

// Here is the milestone list.
// Milestone id-s must remain unchanged FOREVER, even if they contain the
// worst possible typos, as they are stored in state files next to the
// saves - renaming one would re-award it to everybody on the next scan.
//
// Start with "MID" and use caps and underscores, and don't bake numbers
// into the id ("MID_MANY_TANK_KILLS", not "MID_10_TANK_KILLS") - the
// thresholds are still being argued about.
var Milestone_list = []struct {
	Category string
	Items    []Milestone
}{
	{"Blooding", []Milestone{
		mk_kills("MID_FIRST_BLOOD", "First Blood", 1),
		mk_kills("MID_SEASONED", "Seasoned", 5),
		mk_kills("MID_ACE", "Ace", 25),
		{"MID_SURVIVOR", "Survivor", "Take losses and keep fighting", func(u *types.Unit) bool {
			return stat(u, "losses") >= 10 && stat(u, "strength") > 0
		}},
	}},

	{"Veterancy", []Milestone{
		mk_xp("MID_REGULARS", "Regulars", "Reach 100 experience", 100),
		mk_xp("MID_VETERANS", "Veterans", "Reach 300 experience", 300),
		mk_xp("MID_ELITE", "Elite", "Reach 500 experience", 500),
		{"MID_OVERSTRENGTH", "Overstrength", "Exceed nominal maximum strength", func(u *types.Unit) bool {
			return stat(u, "strength") > stat(u, "max_strength") && stat(u, "max_strength") > 0
		}},
	}},

	{"Heroes", []Milestone{
		{"MID_HERO", "Decorated", "Have a hero assigned", func(u *types.Unit) bool {
			return len(u.Heroes) >= 1
		}},
		{"MID_HERO_FULL", "Legendary Crew", "Fill every hero slot", func(u *types.Unit) bool {
			return len(u.Heroes) >= tables.MAX_HEROES
		}},
		{"MID_CITATION", "Mentioned in Dispatches", "Earn a citation", func(u *types.Unit) bool {
			return len(u.Citations) >= 1
		}},
	}},

	{"Specialists", []Milestone{
		mk_class_kills("MID_TANK_HUNTER", "Tank Hunter", "Destroy 10 tank units", "tank", 10),
		mk_class_kills("MID_FLAK_TRAP", "Flak Trap", "Destroy 10 fighter units", "fighter", 10),
		mk_class_kills("MID_SUB_HUNTER", "Sub Hunter", "Destroy 5 submarines", "submarine", 5),
		mk_class_kills("MID_BUNKER_BUSTER", "Bunker Buster", "Destroy 5 bunkers", "bunker", 5),
		mk_class_kills("MID_TRAIN_ROBBER", "Train Robber", "Destroy 3 trains", "train", 3),
	}},
}
