package watch

// Directory watcher: rescan the roster whenever the game writes a save,
// and report newly earned milestones.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/phlenoir/pz-corps-save-explorer/milestones"
	"github.com/phlenoir/pz-corps-save-explorer/scanner"
	"github.com/phlenoir/pz-corps-save-explorer/types"
	"github.com/phlenoir/pz-corps-save-explorer/utils"
)

type Event struct {
	Unit     string
	Name     string
	Desc     string
	Category string
}

const state_file_name = "pzwatch_state.json"

type state_type struct {
	Earned map[string]map[string]bool // save file name -> "unit|milestone id"
}

type Roster_watcher interface {
	Start_watching(events chan<- *Event) error
	Stop_watching()
}

func New_watcher(dir string, cfg utils.Config) Roster_watcher {
	return &dir_watcher{dir: dir, cfg: cfg}
}

type dir_watcher struct {
	dir     string
	cfg     utils.Config
	watcher *fsnotify.Watcher
	state   state_type
}

func (dw *dir_watcher) Start_watching(events chan<- *Event) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dw.watcher = watcher
	dw.load_state()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) && strings.HasSuffix(strings.ToLower(event.Name), ".pzsav") {
					dw.handle_file(event.Name, events)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Println(err)
			}
		}
	}()

	err = dw.watcher.Add(dw.dir)
	if err != nil {
		dw.watcher.Close()
	}

	return err
}

func (dw *dir_watcher) Stop_watching() {
	dw.watcher.Close()
}

func (dw *dir_watcher) save_state() {
	b, _ := json.Marshal(dw.state)
	os.WriteFile(filepath.Join(dw.dir, state_file_name), b, 0644)
}

func (dw *dir_watcher) load_state() {
	bytes, _ := os.ReadFile(filepath.Join(dw.dir, state_file_name))
	json.Unmarshal(bytes, &dw.state)
	if dw.state.Earned == nil {
		dw.state.Earned = map[string]map[string]bool{}
	}
}

// Get_state reads the persisted milestone state without watching anything.
func Get_state(dir string) map[string]map[string]bool {
	state := state_type{}
	bytes, _ := os.ReadFile(filepath.Join(dir, state_file_name))
	json.Unmarshal(bytes, &state)
	if state.Earned == nil {
		state.Earned = map[string]map[string]bool{}
	}
	return state.Earned
}

func (dw *dir_watcher) handle_file(filename string, out chan<- *Event) {
	// Let the game finish writing the file before we pounce on it
	time.Sleep(2 * time.Second)

	data, err := utils.Load_file(filename)
	if err != nil {
		fmt.Println("Failed to load file", filename, "-", err)
		return
	}

	base := dw.cfg.Units_offset
	if dw.cfg.Marker != "" {
		b, err := scanner.Find_base(data, dw.cfg.Marker)
		if err == nil {
			base = b
		}
	}
	if base < 0 {
		fmt.Println("No units_offset or usable marker configured; cannot scan", filename)
		return
	}

	opts := scanner.Default_options()
	if dw.cfg.Stats_len > 0 {
		opts.Stats_len = dw.cfg.Stats_len
	}
	units, err := scanner.Scan_units(data, base, opts)
	if err != nil {
		fmt.Println("Failed to scan file", filename, "-", err)
		return
	}

	key := filepath.Base(filename)
	if dw.state.Earned[key] == nil {
		dw.state.Earned[key] = map[string]bool{}
	}

	// A badly written milestone test must not bring the watcher down
	test_wrap := func(m *milestones.Milestone, u *types.Unit) bool {
		defer func() {
			if recover() != nil {
				fmt.Println("Something went *very* wrong testing milestone \"" + m.Name + "\":")
				debug.PrintStack()
			}
		}()
		return m.Test(u)
	}

	for ui := range units {
		u := &units[ui]
		for _, list := range milestones.Milestone_list {
			for _, m := range list.Items {
				id := u.Name + "|" + m.Id
				if !dw.state.Earned[key][id] && test_wrap(&m, u) {
					out <- &Event{Unit: u.Name, Name: m.Name, Desc: m.Expl, Category: list.Category}
					dw.state.Earned[key][id] = true
				}
			}
		}
	}

	dw.save_state()
}
