package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phlenoir/pz-corps-save-explorer/scanner"
	"github.com/phlenoir/pz-corps-save-explorer/utils"
)

func init() {
	cmd := &cobra.Command{
		Use:   "find <savefile> <text>",
		Short: "Find all occurrences of a name's UTF-16LE pattern",
		Long: `Find every offset where the given text appears as a terminated
UTF-16LE string.  This is the tool for bootstrapping a base offset: search
for a unit name you can see in game, and the hits bracket the unit list.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run_find(args[0], args[1])
		},
	}
	rootCmd.AddCommand(cmd)
}

func run_find(file string, text string) error {
	data, err := utils.Load_file(save_path(file))
	if err != nil {
		return err
	}

	anchors, err := scanner.Find_anchors(data, text)
	if err != nil {
		return err
	}
	if len(anchors) == 0 {
		fmt.Printf("No occurrence of %q found.\n", text)
		return nil
	}

	fmt.Printf("Found %v occurrence(s) of %q:\n", len(anchors), text)
	for _, a := range anchors {
		fmt.Printf("  - offset %v (0x%x)\n", a.Offset, a.Offset)
	}
	return nil
}
