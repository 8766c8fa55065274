package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phlenoir/pz-corps-save-explorer/scanner"
)

var list_count int

func init() {
	cmd := &cobra.Command{
		Use:   "list <savefile>",
		Short: "List scanned unit records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run_list(args[0])
		},
	}
	cmd.Flags().IntVar(&list_count, "count", 0, "List at most N units (0 = all)")
	rootCmd.AddCommand(cmd)
}

func run_list(file string) error {
	data, base, opts, err := load_and_base(file)
	if err != nil {
		return err
	}
	if list_count > 0 {
		opts.Max_units = list_count
	}

	units, err := scanner.Scan_units(data, base, opts)
	if err != nil {
		return err
	}

	fmt.Printf("[scan] base 0x%x, %v units\n", base, len(units))
	for _, u := range units {
		preview := scanner.Decode_history(u.History, opts.Stats_len, 60)
		fmt.Printf("- %v  @0x%x  hist=%vB  heroes=%v  quotes=%v  preview=%q\n",
			u.Name, u.Start, len(u.History), len(u.Heroes), len(u.Citations), preview)
	}
	return nil
}
