package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/milk9111/animgraph/animset"
	"github.com/milk9111/animgraph/common"
	clips "github.com/milk9111/animgraph/component"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/ecs/system"
	"github.com/milk9111/animgraph/prefabs"
)

type options struct {
	spec    string
	iniPath string
	section string
	from    string
	to      string
	driver  string
	speed   float64
	dt      float64
	ticks   int
	dump    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.spec, "spec", "hero", "animation set spec in prefabs/ (basename, .yaml optional)")
	flag.StringVar(&opts.iniPath, "ini", "", "INI config holding the animation set, overrides -spec")
	flag.StringVar(&opts.section, "set", "", "INI section of the animation set")
	flag.StringVar(&opts.from, "from", "", "clip to start from (default: spec start or slot 0)")
	flag.StringVar(&opts.to, "to", "", "destination clip")
	flag.StringVar(&opts.driver, "driver", "", "driver script choosing destinations")
	flag.Float64Var(&opts.speed, "speed", 0, "speed input passed to the driver script")
	flag.Float64Var(&opts.dt, "dt", system.DefaultStep, "seconds per tick")
	flag.IntVar(&opts.ticks, "ticks", 120, "ticks to simulate")
	flag.BoolVar(&opts.dump, "dump", false, "dump the raw link table")
	watch := flag.Bool("watch", false, "rerun when specs, configs or scripts change")
	flag.Parse()

	lib := clips.NewLibrary()
	reg, key, err := registryFor(opts, lib)
	if err != nil {
		log.Fatal(err)
	}
	if err := simulate(os.Stdout, reg, key, opts); err != nil {
		log.Fatal(err)
	}
	if !*watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := watchAndRerun(ctx, reg, key, opts); err != nil {
		log.Fatal(err)
	}
}

func registryFor(opts options, lib *clips.Library) (*animset.Registry, string, error) {
	if opts.iniPath == "" {
		return prefabs.NewRegistry(lib), opts.spec, nil
	}
	section := opts.section
	if section == "" {
		file, err := prefabs.LoadINI(opts.iniPath)
		if err != nil {
			return nil, "", err
		}
		sets := prefabs.INISets(file)
		if len(sets) == 0 {
			return nil, "", fmt.Errorf("animgraph: %s declares no animation set", opts.iniPath)
		}
		section = sets[0]
	}
	return prefabs.NewINIRegistry(opts.iniPath, lib), section, nil
}

func simulate(out io.Writer, reg *animset.Registry, key string, opts options) error {
	set, err := reg.Get(key)
	if err != nil {
		return err
	}

	start, driver := opts.from, opts.driver
	if opts.iniPath == "" {
		if spec, err := prefabs.LoadAnimSetSpec(key); err == nil {
			if start == "" {
				start = spec.Start
			}
			if driver == "" && opts.to == "" {
				driver = spec.Driver
			}
		}
	}

	table := set.LinkTable()
	if err := table.Compile(); err != nil {
		return err
	}
	fmt.Fprintf(out, "set %s: %d clips, %d links\n", set.Name, set.Count(), table.LinkCount())
	for slot := 0; slot < set.Capacity(); slot++ {
		if c, ok := set.Clip(animset.Slot(slot)); ok {
			fmt.Fprintf(out, "  %d %-12s %.3fs %d keys %d events\n", slot, c.Name, c.Duration(), c.KeyCount(), c.EventCount())
		}
	}
	fmt.Fprint(out, table.String())
	if opts.dump {
		fmt.Fprint(out, table.Dump())
	}

	from := animset.Slot(0)
	if start != "" {
		if from = set.SlotByName(start); from == animset.NoSlot {
			return fmt.Errorf("animgraph: unknown clip %q", start)
		}
	}
	for from < animset.Slot(set.Capacity()) {
		if _, ok := set.Clip(from); ok {
			break
		}
		from++
	}
	inst, err := animset.NewInstance(set, from)
	if err != nil {
		return err
	}
	defer inst.Close()
	if opts.to != "" {
		if err := inst.SetTargetByName(opts.to); err != nil {
			return err
		}
	}

	w := ecs.NewWorld()
	anim := component.NewAnimator(inst)
	anim.Driver = driver
	anim.Inputs["speed"] = opts.speed
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.AnimatorComponent.Kind(), anim); err != nil {
		return err
	}

	drivers := system.NewDriverSystem()
	drivers.Step = opts.dt
	anims := system.NewAnimationSystem()
	anims.Step = opts.dt
	sched := ecs.NewScheduler(drivers, anims)

	for tick := 1; tick <= opts.ticks; tick++ {
		sched.Update(w)
		keyIdx, _ := inst.Key()
		clip := inst.Clip()
		line := fmt.Sprintf("tick %4d  %-12s t=%.3f %3.0f%% key=%d", tick, clip.Name, inst.Time(),
			100*common.Progress(inst.Time(), clip.Duration()), keyIdx)

		var notes []string
		for _, evt := range w.Events().Drain() {
			switch data := evt.Data.(type) {
			case ecs.TransitionEvent:
				arrow := "->"
				if data.Cut {
					arrow = "=>"
				}
				notes = append(notes, fmt.Sprintf("%s %s %s", data.From, arrow, data.To))
			case ecs.AnimationEvent:
				notes = append(notes, fmt.Sprintf("event %s(%g)", data.Name, data.Value))
			}
		}
		if len(notes) > 0 {
			line += "  " + strings.Join(notes, ", ")
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func watchAndRerun(ctx context.Context, reg *animset.Registry, key string, opts options) error {
	dirs := watchDirs(opts)
	if len(dirs) == 0 {
		return fmt.Errorf("animgraph: nothing to watch, %s not found on disk", prefabs.Dir)
	}
	w, err := prefabs.NewWatcher(dirs...)
	if err != nil {
		return err
	}
	defer w.Close()
	log.Printf("animgraph: watching %s", strings.Join(dirs, ", "))

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			log.Printf("animgraph: %s changed, reloading", path)
			if err := reg.Reload(); err != nil {
				log.Printf("animgraph: reload: %v", err)
				continue
			}
			if err := simulate(os.Stdout, reg, key, opts); err != nil {
				log.Printf("animgraph: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("animgraph: watch: %v", err)
		}
	}
}

// watchDirs lists the existing directories holding specs, scripts and the
// INI config given with -ini.
func watchDirs(opts options) []string {
	candidates := []string{prefabs.Dir, filepath.Join(prefabs.Dir, "scripts")}
	if opts.iniPath != "" {
		candidates = append(candidates, filepath.Dir(prefabs.DiskPath(opts.iniPath)))
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, dir := range candidates {
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}
