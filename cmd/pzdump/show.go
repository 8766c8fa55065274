package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phlenoir/pz-corps-save-explorer/scanner"
	"github.com/phlenoir/pz-corps-save-explorer/tables"
	"github.com/phlenoir/pz-corps-save-explorer/types"
)

var (
	show_index   int
	show_count   int
	show_skip    int
	show_snippet int
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <savefile> [unit name]",
		Short: "Show decoded stats for one or more units",
		Long: `Show a unit's full decoded record: stats, history preview, heroes and
citations.  Select by exact name, or by --index (1-based) and --count.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 1 {
				name = args[1]
			}
			return run_show(args[0], name)
		},
	}
	cmd.Flags().IntVar(&show_index, "index", 1, "First unit to show (1-based)")
	cmd.Flags().IntVar(&show_count, "count", 1, "Number of units to show")
	cmd.Flags().IntVar(&show_skip, "hist-skip", tables.UNIT_STATS_LEN, "Bytes of history to skip before the preview")
	cmd.Flags().IntVar(&show_snippet, "snippet", 160, "Characters of history preview")
	rootCmd.AddCommand(cmd)
}

func run_show(file string, name string) error {
	data, base, opts, err := load_and_base(file)
	if err != nil {
		return err
	}

	units, err := scanner.Scan_units(data, base, opts)
	if err != nil {
		return err
	}
	fmt.Printf("[scan] base 0x%x, %v units\n", base, len(units))

	matches := []*types.Unit{}
	if name != "" {
		u, err := scanner.Unit_by_name(units, name)
		if err != nil {
			return err
		}
		matches = append(matches, u)
	} else {
		for i := 0; i < show_count; i += 1 {
			u, err := scanner.Unit_by_index(units, show_index+i)
			if err != nil {
				break
			}
			matches = append(matches, u)
		}
		if len(matches) == 0 {
			return fmt.Errorf("no unit at index %v", show_index)
		}
	}

	for _, u := range matches {
		print_unit(u)
	}
	return nil
}

func print_unit(u *types.Unit) {
	fmt.Printf("\n>>unit %-3d === %v ===   @ 0x%x\n", u.Idx, u.Name, u.Start)

	fmt.Print("   ")
	for _, fname := range tables.Field_names(tables.Unit_fields) {
		if tables.Unit_fields[fname].Enc == types.ENC_STRING {
			continue
		}
		v, err := tables.Unit_stat(u, fname)
		if err == nil {
			fmt.Printf("%v=%v ", fname, v)
		}
	}
	fmt.Println()

	preview := scanner.Decode_history(u.History, show_skip, show_snippet)
	fmt.Printf("History  : %v bytes | preview: %q\n", len(u.History), preview)

	if len(u.Heroes) == 0 {
		fmt.Println("Heroes   : none")
	} else {
		fmt.Printf("Heroes   : %v\n", len(u.Heroes))
		for i := range u.Heroes {
			h := &u.Heroes[i]
			fmt.Printf("  [%v] name=%v  image=%v\n", i+1, h.Name, h.Image)
			fmt.Print("       ")
			for _, fname := range tables.Field_names(tables.Hero_fields) {
				v, err := tables.Hero_stat(h, fname)
				if err == nil {
					fmt.Printf("%v=%v ", fname, v)
				}
			}
			fmt.Println()
		}
	}

	if len(u.Citations) == 0 {
		fmt.Println("Citations: none")
	} else {
		fmt.Println("Citations:")
		for i, s := range u.Citations {
			fmt.Printf("  - (%v) %v\n", i+1, s)
		}
	}
}
