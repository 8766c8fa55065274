package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phlenoir/pz-corps-save-explorer/readers"
	"github.com/phlenoir/pz-corps-save-explorer/utils"
)

var debug_dump int

func init() {
	cmd := &cobra.Command{
		Use:   "debug <savefile>",
		Short: "Hexdump and sentinel probe at the base offset",
		Long: `Dump raw bytes at the base offset and probe for sentinel runs: the
name string, then every 0xFF run in the window after it, with positions,
lengths and distances.  This is how new offsets get found when a game
patch moves everything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run_debug(args[0])
		},
	}
	cmd.Flags().IntVar(&debug_dump, "dump", 200, "Bytes to hexdump at the offset")
	rootCmd.AddCommand(cmd)
}

func run_debug(file string) error {
	data, base, opts, err := load_and_base(file)
	if err != nil {
		return err
	}

	fmt.Printf("[start] offset: 0x%x (%v)\n", base, base)
	fmt.Println("\n[hexdump]")
	fmt.Println(utils.Hexdump(data, base, debug_dump))

	fmt.Println("\n[probe]")
	cur := base
	readers.Skip_non_ascii(data, &cur, 256)
	name, err := readers.Read_utf16_string(data, &cur)
	if err != nil {
		fmt.Println("name read error:", err)
		return nil
	}
	fmt.Printf("name       : %v\n", name)
	fmt.Printf("name_end   : 0x%x\n", cur)

	// every qualifying run in the after-name window
	fmt.Println("runs after name (within window):")
	i := cur
	end := cur + opts.After_name_window
	for count := 0; count < 10; count += 1 {
		pos, cnt := readers.Find_ff_run(data, i, end-i, opts.Min_run, opts.Max_run)
		if pos < 0 {
			break
		}
		fmt.Printf("  - at 0x%x, FF_count=%v, dist=%v\n", pos, cnt, pos-cur)
		i = pos + cnt
		for i < len(data) && data[i] == 0xFF {
			i += 1
		}
	}
	return nil
}
