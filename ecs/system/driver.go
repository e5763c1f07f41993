package system

import (
	"fmt"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/prefabs"
)

const driverDispatchScript = `
if __phase == "update" {
	update(__engine, __state)
}
`

// ScriptLoader reads driver script sources by path.
type ScriptLoader func(path string) ([]byte, error)

// DriverSystem runs each animator's driver script once per tick. Scripts
// define update(engine, state) and pick destinations with engine.target.
type DriverSystem struct {
	Load    ScriptLoader
	Step    float64
	runtime map[ecs.Entity]*driverRuntime
}

type driverRuntime struct {
	path     string
	compiled *tengo.Compiled
	state    *tengo.Map
	elapsed  float64
}

func NewDriverSystem() *DriverSystem {
	return &DriverSystem{Load: prefabs.LoadScript, Step: DefaultStep}
}

// Forget drops every compiled script so the next tick reloads them.
func (d *DriverSystem) Forget() {
	d.runtime = nil
}

func (d *DriverSystem) Update(w *ecs.World) {
	ecs.ForEach(w, component.AnimatorComponent.Kind(), func(e ecs.Entity, anim *component.Animator) {
		if anim.Instance == nil || anim.Paused || strings.TrimSpace(anim.Driver) == "" {
			return
		}
		rt, err := d.runtimeFor(e, anim.Driver)
		if err != nil {
			log.Printf("driver: entity=%s load %s: %v", e, anim.Driver, err)
			return
		}
		if err := rt.run(anim); err != nil {
			log.Printf("driver: entity=%s script %s: %v", e, anim.Driver, err)
		}
		rt.elapsed += d.step()
	})

	for e := range d.runtime {
		if !ecs.IsAlive(w, e) {
			delete(d.runtime, e)
		}
	}
}

func (d *DriverSystem) step() float64 {
	if d.Step <= 0 {
		return DefaultStep
	}
	return d.Step
}

func (d *DriverSystem) runtimeFor(e ecs.Entity, path string) (*driverRuntime, error) {
	if rt, ok := d.runtime[e]; ok && rt.path == path {
		return rt, nil
	}
	load := d.Load
	if load == nil {
		load = prefabs.LoadScript
	}
	src, err := load(path)
	if err != nil {
		return nil, err
	}

	script := tengo.NewScript([]byte(string(src) + "\n" + driverDispatchScript))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}
	rt := &driverRuntime{
		path:     path,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}

	// globals stay undefined until the script body has run once
	noop := &tengo.ImmutableMap{Value: map[string]tengo.Object{}}
	if err := rt.runPhase("noop", noop); err != nil {
		return nil, err
	}
	if !compiled.IsDefined("update") {
		return nil, fmt.Errorf("script does not define update")
	}
	if d.runtime == nil {
		d.runtime = map[ecs.Entity]*driverRuntime{}
	}
	d.runtime[e] = rt
	return rt, nil
}

func (rt *driverRuntime) run(anim *component.Animator) error {
	return rt.runPhase("update", rt.engine(anim))
}

func (rt *driverRuntime) runPhase(phase string, engine *tengo.ImmutableMap) error {
	if err := rt.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := rt.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := rt.compiled.Set("__state", rt.state); err != nil {
		return err
	}
	return rt.compiled.Run()
}

func (rt *driverRuntime) engine(anim *component.Animator) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	values["elapsed"] = &tengo.Float{Value: rt.elapsed}

	values["current"] = &tengo.UserFunction{Name: "current", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.String{Value: anim.ClipName()}, nil
	}}

	values["time"] = &tengo.UserFunction{Name: "time", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: anim.Instance.Time()}, nil
	}}

	values["input"] = &tengo.UserFunction{Name: "input", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		name, _ := tengo.ToString(args[0])
		return &tengo.Float{Value: anim.Inputs[name]}, nil
	}}

	values["event"] = &tengo.UserFunction{Name: "event", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		name, _ := tengo.ToString(args[0])
		for _, fired := range anim.Fired {
			if fired == name {
				return tengo.TrueValue, nil
			}
		}
		return tengo.FalseValue, nil
	}}

	values["target"] = &tengo.UserFunction{Name: "target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		name, _ := tengo.ToString(args[0])
		name = strings.TrimSpace(name)
		if name == "" || anim.Instance.Set().SlotByName(name) < 0 {
			return tengo.FalseValue, nil
		}
		anim.Desired = name
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}
