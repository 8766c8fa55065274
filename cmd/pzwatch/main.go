package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/phlenoir/pz-corps-save-explorer/milestones"
	"github.com/phlenoir/pz-corps-save-explorer/utils"
	"github.com/phlenoir/pz-corps-save-explorer/watch"
)

func main() {
	// Deal with args

	arg_info := []struct {
		arg     string
		subargs int
		desc    string
	}{
		{"help", 0, "Display this possibly helpful info"},
		{"check", 0, "Sanity check"},
		{"list", 0, "List save files with recorded milestones"},
		{"show", 1, "Show earned milestones for a save file"},
		{"show_missing", 1, "Show unearned milestones for a save file"},
		{"run", 0, "Run and monitor milestones.  Also the default."},
	}

	main_arg := ""
	subargs := []string{}
	subargs_needed := 0
	for _, arg := range os.Args[1:] {
		if main_arg == "" {
			for _, info := range arg_info {
				if info.arg == arg {
					main_arg = arg
					subargs_needed = info.subargs
					break
				}
			}
			if main_arg == "" {
				fmt.Println("Unexpected extra argument:", arg)
				os.Exit(1)
			}
		} else if len(subargs) < subargs_needed {
			subargs = append(subargs, arg)
		} else {
			fmt.Println("Unexpected extra argument:", arg)
			os.Exit(1)
		}
	}
	if main_arg == "" {
		main_arg = "run"
	}

	if len(subargs) != subargs_needed {
		fmt.Println(fmt.Sprintf("Expected %v extra arguments; got %v:", subargs_needed, len(subargs)))
		os.Exit(1)
	}

	cfg := utils.Load_config()
	dir := utils.Get_savefile_dir()

	switch main_arg {
	case "help":
		for _, info := range arg_info {
			fmt.Println(info.arg, "-", info.desc)
		}

	case "check":
		fmt.Println("Target dir is: " + dir)
		if cfg.Units_offset >= 0 {
			fmt.Println(fmt.Sprintf("Unit table offset: 0x%x", cfg.Units_offset))
		} else if cfg.Marker != "" {
			fmt.Println("Unit table located via marker: " + cfg.Marker)
		} else {
			fmt.Println("WARNING: no units_offset or marker in " + utils.CONFIG_FILE + "; run will do nothing useful")
		}

	case "list":
		state := watch.Get_state(dir)
		if len(state) == 0 {
			fmt.Println("(no save files tracked)")
			os.Exit(0)
		}

		for save := range state {
			fmt.Println(save)
		}

	case "show", "show_missing":
		missing := main_arg == "show_missing"
		if missing {
			fmt.Println("Showing unearned milestones for", subargs[0])
		} else {
			fmt.Println("Showing milestones for", subargs[0])
		}
		fmt.Println()

		got := watch.Get_state(dir)[subargs[0]]

		// Earned entries are keyed "unit|milestone id"; collapse to the
		// milestone side and remember which units earned each one.
		units_by_mid := map[string][]string{}
		for key := range got {
			parts := strings.SplitN(key, "|", 2)
			if len(parts) == 2 {
				units_by_mid[parts[1]] = append(units_by_mid[parts[1]], parts[0])
			}
		}

		ttotal := 0
		tgot := 0
		for _, cat_list := range milestones.Milestone_list {
			total := len(cat_list.Items)
			ttotal += total
			indices := []int{}
			for i, m := range cat_list.Items {
				earned := len(units_by_mid[m.Id]) > 0
				if earned {
					tgot++
				}
				if earned != missing {
					indices = append(indices, i)
				}
			}
			if missing && len(indices) == 0 {
				continue
			}
			fmt.Println(fmt.Sprintf("%v (%v/%v):", cat_list.Category, len(indices), total))
			for _, i := range indices {
				fmt.Println("   " + cat_list.Items[i].Name)
				fmt.Println("   (" + cat_list.Items[i].Expl + ")")
				if !missing {
					fmt.Println("   Earned by: " + strings.Join(units_by_mid[cat_list.Items[i].Id], ", "))
				}
				fmt.Println()
			}
			fmt.Println()
		}
		fmt.Println(fmt.Sprintf("Overall: %v/%v", tgot, ttotal))

	case "run":
		events := make(chan *watch.Event)
		watcher := watch.New_watcher(dir, cfg)
		go func() {
			for {
				select {
				case ev := <-events:
					fmt.Println(ev.Unit, "-", ev.Name)
					fmt.Println(ev.Desc)
					fmt.Println("Category:", ev.Category)
					fmt.Println()
				}
			}
		}()

		err := watcher.Start_watching(events)
		if err != nil {
			fmt.Println(err)
			return
		}

		fmt.Println("Watching...", dir)
		fmt.Println()
		fmt.Println()

		// Wait forever!
		// TODO: some clean way to detect a quit key and call watcher.Stop_watching()
		<-make(chan bool)
	}

	os.Exit(0)
}
