package milestones

import (
	"testing"

	"github.com/phlenoir/pz-corps-save-explorer/tables"
	"github.com/phlenoir/pz-corps-save-explorer/types"
)

func test_unit(stats map[string]int) *types.Unit {
	vals := make([]int, tables.UNIT_STATS_LEN/2)
	for k, v := range stats {
		vals[tables.Unit_fields[k].Offset/2] = v
	}
	return &types.Unit{Name: "3rd Panzergrenadiers", Stats: vals}
}

func by_id(t *testing.T, id string) Milestone {
	for _, cat := range Milestone_list {
		for _, m := range cat.Items {
			if m.Id == id {
				return m
			}
		}
	}
	t.Fatalf("no milestone %v", id)
	return Milestone{}
}

func Test_ids_unique(t *testing.T) {
	seen := map[string]bool{}
	for _, cat := range Milestone_list {
		for _, m := range cat.Items {
			if seen[m.Id] {
				t.Errorf("duplicate milestone id %v", m.Id)
			}
			seen[m.Id] = true
			if m.Test == nil {
				t.Errorf("%v has no test", m.Id)
			}
			if m.Name == "" || m.Expl == "" {
				t.Errorf("%v has empty name or explanation", m.Id)
			}
		}
	}
}

func Test_kill_thresholds(t *testing.T) {
	cases := []struct {
		id    string
		kills int
		want  bool
	}{
		{"MID_FIRST_BLOOD", 0, false},
		{"MID_FIRST_BLOOD", 1, true},
		{"MID_SEASONED", 4, false},
		{"MID_SEASONED", 5, true},
		{"MID_ACE", 24, false},
		{"MID_ACE", 25, true},
	}
	for _, c := range cases {
		m := by_id(t, c.id)
		got := m.Test(test_unit(map[string]int{"kills": c.kills}))
		if got != c.want {
			t.Errorf("%v with %v kills: got %v", c.id, c.kills, got)
		}
	}
}

func Test_survivor(t *testing.T) {
	m := by_id(t, "MID_SURVIVOR")
	if !m.Test(test_unit(map[string]int{"losses": 10, "strength": 3})) {
		t.Error("10 losses while alive should qualify")
	}
	if m.Test(test_unit(map[string]int{"losses": 10, "strength": 0})) {
		t.Error("a dead unit does not survive anything")
	}
	if m.Test(test_unit(map[string]int{"losses": 9, "strength": 3})) {
		t.Error("9 losses is not enough")
	}
}

func Test_overstrength(t *testing.T) {
	m := by_id(t, "MID_OVERSTRENGTH")
	if !m.Test(test_unit(map[string]int{"strength": 13, "max_strength": 10})) {
		t.Error("13/10 should qualify")
	}
	if m.Test(test_unit(map[string]int{"strength": 10, "max_strength": 10})) {
		t.Error("10/10 should not")
	}
	// A unit whose stats failed to decode has max_strength 0; that must
	// not read as "over strength"
	if m.Test(test_unit(map[string]int{"strength": 5})) {
		t.Error("max_strength 0 should never qualify")
	}
}

func Test_hero_milestones(t *testing.T) {
	u := test_unit(nil)
	if by_id(t, "MID_HERO").Test(u) {
		t.Error("no heroes, no milestone")
	}

	u.Heroes = []types.Hero{{Name: "Hans Stollwerk"}}
	if !by_id(t, "MID_HERO").Test(u) {
		t.Error("one hero should qualify")
	}
	if by_id(t, "MID_HERO_FULL").Test(u) {
		t.Error("one hero is not a full crew")
	}

	u.Heroes = append(u.Heroes, types.Hero{Name: "Viktor Brack"}, types.Hero{Name: "Otto Meyer"})
	if !by_id(t, "MID_HERO_FULL").Test(u) {
		t.Error("three heroes should qualify")
	}

	if by_id(t, "MID_CITATION").Test(u) {
		t.Error("no citations yet")
	}
	u.Citations = []string{"For conspicuous gallantry"}
	if !by_id(t, "MID_CITATION").Test(u) {
		t.Error("a citation should qualify")
	}
}

func Test_specialists(t *testing.T) {
	m := by_id(t, "MID_TANK_HUNTER")
	if !m.Test(test_unit(map[string]int{"kill_tank": 10})) {
		t.Error("10 tank kills should qualify")
	}
	if m.Test(test_unit(map[string]int{"kill_tank": 9, "kills": 50})) {
		t.Error("total kills must not count towards a class milestone")
	}
}

func Test_broken_stats_earn_nothing(t *testing.T) {
	// Undecodable stats block: every stat reads as zero
	u := &types.Unit{Name: "3rd Panzergrenadiers", Stats: []int{}}
	for _, cat := range Milestone_list {
		for _, m := range cat.Items {
			if cat.Category == "Heroes" {
				continue
			}
			if m.Test(u) {
				t.Errorf("%v earned with no stats at all", m.Id)
			}
		}
	}
}
