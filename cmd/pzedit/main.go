package main

// savefile stats editor for Panzer Corps
//
// example usage:
//
// pzedit load autosave.pzsav
// pzedit set "45th SdKfz  7/2" ammo 99
// pzedit set "45th SdKfz  7/2" hero1.attack 22
// pzedit set "#12" strength 15
// pzedit dryrun
// pzedit save
//
// Nothing touches the save file until "save", and even then the original
// is copied to a .bak first.  "dryrun" shows what save would change.

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phlenoir/pz-corps-save-explorer/patch"
	"github.com/phlenoir/pz-corps-save-explorer/scanner"
	"github.com/phlenoir/pz-corps-save-explorer/tables"
	"github.com/phlenoir/pz-corps-save-explorer/types"
	"github.com/phlenoir/pz-corps-save-explorer/utils"
)

// Evil global variables
var g_stash_filename = "pzedit.tmp"

// string matching functions for field names, in strictly increasing order
// of desperation.  Unit names are deliberately NOT matched fuzzily - with
// "3rd Panzer" and "33rd Panzer" on the board, guessing is how campaigns die.
var fuzzy = []func(input string, candidate string) bool{
	func(i string, c string) bool { return i == c },
	func(i string, c string) bool { return strings.EqualFold(i, c) },
	func(i string, c string) bool { return strings.HasPrefix(strings.ToUpper(c), strings.ToUpper(i)) },
	func(i string, c string) bool { return strings.Contains(strings.ToUpper(c), strings.ToUpper(i)) },
}

// fuzzy_match_field resolves a possibly-abbreviated field name against a
// field table.  Ambiguity is an error, not a guess.
func fuzzy_match_field(input string, fields map[string]types.Field) (string, error) {
	for _, match := range fuzzy {
		matches := []string{}
		for name := range fields {
			if match(input, name) {
				matches = append(matches, name)
			}
		}
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			return "", &types.Selector_error{Selector: input, What: "ambiguous field name", Candidates: matches}
		}
		return matches[0], nil
	}
	return "", &types.Selector_error{
		Selector:   input,
		What:       "unknown field",
		Candidates: tables.Field_names(fields),
	}
}

// parse_selector reads a unit selector: "#12" is a 1-based scan index,
// "@0x39EA9" (or "@237225") an absolute offset, anything else an exact name.
func parse_selector(s string) (patch.Selector, error) {
	out := patch.Selector{Offset: -1}
	switch {
	case strings.HasPrefix(s, "#"):
		idx, err := strconv.Atoi(s[1:])
		if err != nil || idx < 1 {
			return out, errors.New(s + " is not a valid unit index")
		}
		out.Index = idx
	case strings.HasPrefix(s, "@"):
		off, err := utils.Parse_offset(s[1:])
		if err != nil {
			return out, errors.New(s + " is not a valid offset")
		}
		out.Offset = off
	default:
		out.Name = s
	}
	return out, nil
}

// parse_field splits an optional "heroN." scope off a field name.
func parse_field(s string) (int, string, error) {
	hero := 0
	if strings.HasPrefix(strings.ToLower(s), "hero") {
		rest := s[4:]
		dot := strings.IndexAny(rest, ".:")
		if dot < 0 {
			return 0, "", errors.New("hero field must look like hero1.attack")
		}
		n, err := strconv.Atoi(rest[:dot])
		if err != nil {
			return 0, "", errors.New("hero field must look like hero1.attack")
		}
		hero = n
		s = rest[dot+1:]
	}

	table := tables.Unit_fields
	if hero != 0 {
		table = tables.Hero_fields
	}
	name, err := fuzzy_match_field(s, table)
	return hero, name, err
}

func main() {
	err := main2()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main2() error {

	arg := "help"
	if len(os.Args) < 2 {
		fmt.Println("No args detected - falling back to \"help\", since you clearly need it...")
	} else {
		arg = os.Args[1]
	}

	switch arg {
	case "help":
		help_text := []string{
			"Panzer Corps Save File Editor",
			"",
			"Commands:",
			"help: display this text",
			"load (filename): load a file from the default location",
			"get (unit) (field): display one field of a unit",
			"dump (unit): display all fields of a unit",
			"set (unit) (field) (value): queue one edit",
			"dryrun: show what save would change, without writing",
			"save [new filename]: apply queued edits and write",
			"",
			"Units are selected by exact name, \"#index\", or \"@offset\".",
			"Hero fields are scoped like hero1.attack.",
			"",
			"Unit fields:",
		}
		for _, k := range tables.Field_names(tables.Unit_fields) {
			help_text = append(help_text, "   "+k)
		}
		help_text = append(help_text, "", "Hero fields:")
		for _, k := range tables.Field_names(tables.Hero_fields) {
			help_text = append(help_text, "   "+k)
		}

		for _, ht := range help_text {
			fmt.Println(ht)
		}

	case "load":
		if len(os.Args) < 3 {
			return errors.New("Load what?  Filename expected.")
		}

		full_filename := os.Args[2]
		if _, err := os.Stat(full_filename); err != nil {
			full_filename = filepath.Join(utils.Get_savefile_dir(), os.Args[2])
		}

		// Make sure it scans before accepting it
		data, base, opts, err := load_with_base(full_filename)
		if err != nil {
			return err
		}
		units, err := scanner.Scan_units(data, base, opts)
		if err != nil {
			return err
		}
		fmt.Println("Loaded", full_filename, "-", len(units), "units at base", fmt.Sprintf("0x%x", base))

		return stash(full_filename, nil)

	case "get", "dump":
		if len(os.Args) < 3 {
			return errors.New(arg + " which unit?")
		}
		if arg == "get" && len(os.Args) < 4 {
			return errors.New("Get which field?")
		}

		filename, _, err := retrieve()
		if err != nil {
			return err
		}
		data, base, opts, err := load_with_base(filename)
		if err != nil {
			return err
		}
		units, err := scanner.Scan_units(data, base, opts)
		if err != nil {
			return err
		}
		u, err := resolve_unit(data, units, os.Args[2], opts)
		if err != nil {
			return err
		}

		if arg == "dump" {
			dump_unit(u)
			return nil
		}

		hero, field, err := parse_field(os.Args[3])
		if err != nil {
			return err
		}
		val, err := read_field(u, hero, field)
		if err != nil {
			return err
		}
		fmt.Println(val)

	case "set":
		if len(os.Args) < 5 {
			return errors.New("Usage: set (unit) (field) (value)")
		}

		filename, patches, err := retrieve()
		if err != nil {
			return err
		}

		sel, err := parse_selector(os.Args[2])
		if err != nil {
			return err
		}
		hero, field, err := parse_field(os.Args[3])
		if err != nil {
			return err
		}
		value := os.Args[4]

		patches = queue_set(patches, sel, hero, field, value)

		// Dry-run the whole queue now, so a bad set is rejected when it is
		// typed, not discovered at save time
		data, base, opts, err := load_with_base(filename)
		if err != nil {
			return err
		}
		changes, err := patch.Dry_run(data, base, patches, opts)
		if err != nil {
			return err
		}
		fmt.Println(field, "set to", value, fmt.Sprintf("(%v pending changes)", len(changes)))

		return stash(filename, patches)

	case "dryrun":
		filename, patches, err := retrieve()
		if err != nil {
			return err
		}
		data, base, opts, err := load_with_base(filename)
		if err != nil {
			return err
		}
		changes, err := patch.Dry_run(data, base, patches, opts)
		if err != nil {
			return err
		}
		print_changes(changes)
		fmt.Println("Dry run only; nothing written.")

	case "save":
		filename, patches, err := retrieve()
		if err != nil {
			return err
		}
		if len(patches) == 0 {
			return errors.New("Nothing to save.  Use set first.")
		}

		out_path := ""
		if len(os.Args) > 2 {
			out_path = os.Args[2]
		}

		data, base, opts, err := load_with_base(filename)
		if err != nil {
			return err
		}
		changes, working, err := patch.Apply(data, base, patches, opts)
		if err != nil {
			return err
		}
		print_changes(changes)

		backup, err := patch.Persist(filename, data, working, out_path)
		if err != nil {
			return err
		}
		if backup != "" {
			fmt.Println("Original backed up to", backup)
			fmt.Println("New file written to", filename)
		} else {
			fmt.Println("New file written to", out_path)
		}

		err = os.Remove(g_stash_filename)
		if err != nil {
			return err
		}
		fmt.Println("Temporary data cleaned up")

	default:
		return errors.New("Unknown command " + arg + ".  Try help.")
	}

	return nil
}

// queue_set adds one assignment, merging with an existing patchset for the
// same unit+hero scope so related edits stay ordered together.
func queue_set(patches []patch.Patchset, sel patch.Selector, hero int, field string, value string) []patch.Patchset {
	for i := range patches {
		if patches[i].Target == sel && patches[i].Hero == hero {
			patches[i].Sets = append(patches[i].Sets, patch.Assignment{Field: field, Value: value})
			return patches
		}
	}
	return append(patches, patch.Patchset{
		Target: sel,
		Hero:   hero,
		Sets:   []patch.Assignment{{Field: field, Value: value}},
	})
}

func load_with_base(filename string) ([]byte, int, scanner.Options, error) {
	opts := scanner.Default_options()
	cfg := utils.Load_config()
	if cfg.Stats_len > 0 {
		opts.Stats_len = cfg.Stats_len
	}

	data, err := utils.Load_file(filename)
	if err != nil {
		return nil, 0, opts, err
	}

	if cfg.Units_offset >= 0 {
		return data, cfg.Units_offset, opts, nil
	}
	if cfg.Marker != "" {
		base, err := scanner.Find_base(data, cfg.Marker)
		return data, base, opts, err
	}
	return nil, 0, opts, errors.New("no base offset: set units_offset or marker in " + utils.CONFIG_FILE)
}

func resolve_unit(data []byte, units []types.Unit, selector string, opts scanner.Options) (*types.Unit, error) {
	sel, err := parse_selector(selector)
	if err != nil {
		return nil, err
	}
	switch {
	case sel.Name != "":
		return scanner.Unit_by_name(units, sel.Name)
	case sel.Index > 0:
		return scanner.Unit_by_index(units, sel.Index)
	default:
		u, _, err := scanner.Parse_unit(data, sel.Offset, opts)
		if err != nil {
			return nil, err
		}
		return &u, nil
	}
}

func read_field(u *types.Unit, hero int, field string) (string, error) {
	if hero != 0 {
		h, err := scanner.Hero_of(u, hero)
		if err != nil {
			return "", err
		}
		v, err := tables.Hero_stat(h, field)
		return strconv.Itoa(v), err
	}
	if field == "name" {
		return u.Name, nil
	}
	v, err := tables.Unit_stat(u, field)
	return strconv.Itoa(v), err
}

func dump_unit(u *types.Unit) {
	fmt.Printf("=== %v ===   @ 0x%x\n", u.Name, u.Start)
	for _, fname := range tables.Field_names(tables.Unit_fields) {
		if tables.Unit_fields[fname].Enc == types.ENC_STRING {
			continue
		}
		v, err := tables.Unit_stat(u, fname)
		if err == nil {
			fmt.Printf("%-18s: %v\n", fname, v)
		}
	}
	for i := range u.Heroes {
		h := &u.Heroes[i]
		fmt.Printf("hero%v: %v (%v)\n", i+1, h.Name, h.Image)
		for _, fname := range tables.Field_names(tables.Hero_fields) {
			v, err := tables.Hero_stat(h, fname)
			if err == nil {
				fmt.Printf("   %-15s: %v\n", fname, v)
			}
		}
	}
}

func print_changes(changes []patch.Change) {
	if len(changes) == 0 {
		fmt.Println("No changes to apply (values already equal)")
		return
	}
	fmt.Printf("Changes (%v):\n", len(changes))
	for _, c := range changes {
		fmt.Printf(" - %v %v @0x%x: %v -> %v\n", c.Unit, c.Field, c.Offset, c.Old, c.New)
	}
}

func stash(filename string, patches []patch.Patchset) error {
	f, err := os.Create(g_stash_filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	encoder := gob.NewEncoder(w)
	err = encoder.Encode(filename)
	if err != nil {
		return err
	}
	err = encoder.Encode(patches)
	if err != nil {
		return err
	}
	w.Flush()
	return f.Sync()
}

func retrieve() (string, []patch.Patchset, error) {
	f, err := os.Open(g_stash_filename)
	if err != nil {
		return "", nil, errors.New("No file loaded.  Use load first.")
	}
	defer f.Close()

	decoder := gob.NewDecoder(bufio.NewReader(f))
	filename := ""
	patches := []patch.Patchset{}
	err = decoder.Decode(&filename)
	if err != nil {
		return "", nil, err
	}
	err = decoder.Decode(&patches)
	if err != nil {
		return "", nil, err
	}

	return filename, patches, nil
}
