package main

// pzdump - inspect unit records in Panzer Corps save files.
//
// The save format is undocumented; see the debug command for the tooling
// used to bootstrap offsets by hand.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phlenoir/pz-corps-save-explorer/scanner"
	"github.com/phlenoir/pz-corps-save-explorer/utils"
)

var (
	flag_dir       string
	flag_offset    string
	flag_marker    string
	flag_stats_len int
)

var rootCmd = &cobra.Command{
	Use:   "pzdump",
	Short: "Inspect unit records in Panzer Corps save files",
	Long: `pzdump scans .pzsav save files for unit records and displays their
decoded stats, heroes and citations.

The unit list base offset comes from --offset, or from the second
occurrence of the scenario objective marker text (--marker), or from
pzsav.ini (units_offset / marker keys).`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flag_dir, "dir", "", "Saves directory (default: pzsav.ini, then cwd)")
	rootCmd.PersistentFlags().StringVar(&flag_offset, "offset", "", "Base offset of the unit list (hex 0x... or decimal)")
	rootCmd.PersistentFlags().StringVar(&flag_marker, "marker", "", "Scenario objective text whose 2nd occurrence precedes the unit list")
	rootCmd.PersistentFlags().IntVar(&flag_stats_len, "stats-len", 0, "Bytes of the history head decoded as unit stats")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// save_path resolves a file argument against the configured saves dir.
func save_path(file string) string {
	if _, err := os.Stat(file); err == nil {
		return file
	}
	dir := flag_dir
	if dir == "" {
		dir = utils.Get_savefile_dir()
	}
	return filepath.Join(dir, file)
}

// load_and_base loads a save and works out the unit list base offset.
func load_and_base(file string) ([]byte, int, scanner.Options, error) {
	opts := scanner.Default_options()
	cfg := utils.Load_config()
	if cfg.Stats_len > 0 {
		opts.Stats_len = cfg.Stats_len
	}
	if flag_stats_len > 0 {
		opts.Stats_len = flag_stats_len
	}

	data, err := utils.Load_file(save_path(file))
	if err != nil {
		return nil, 0, opts, err
	}

	if flag_offset != "" {
		base, err := utils.Parse_offset(flag_offset)
		return data, base, opts, err
	}
	if flag_marker != "" {
		base, err := scanner.Find_base(data, flag_marker)
		return data, base, opts, err
	}
	if cfg.Units_offset >= 0 {
		return data, cfg.Units_offset, opts, nil
	}
	if cfg.Marker != "" {
		base, err := scanner.Find_base(data, cfg.Marker)
		return data, base, opts, err
	}
	return nil, 0, opts, fmt.Errorf("no base offset: pass --offset or --marker, or set units_offset/marker in %v", utils.CONFIG_FILE)
}
