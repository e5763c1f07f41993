package system

import (
	"log"

	"github.com/milk9111/animgraph/animset"
	clips "github.com/milk9111/animgraph/component"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
)

// DefaultStep is the fixed tick length, 60 ticks per second.
const DefaultStep = 1.0 / 60.0

// AnimationSystem advances every animator by one fixed step: it applies the
// desired target, routes the instance and publishes clip and transition
// events on the world queue.
type AnimationSystem struct {
	Step float64
}

func NewAnimationSystem() *AnimationSystem {
	return &AnimationSystem{Step: DefaultStep}
}

func (a *AnimationSystem) Update(w *ecs.World) {
	step := a.Step
	if step <= 0 {
		step = DefaultStep
	}

	ecs.ForEach(w, component.AnimatorComponent.Kind(), func(e ecs.Entity, anim *component.Animator) {
		inst := anim.Instance
		anim.Fired = anim.Fired[:0]
		if inst == nil || anim.Paused {
			return
		}

		if anim.Desired != "" {
			if err := inst.SetTargetByName(anim.Desired); err != nil {
				log.Printf("animation: entity=%s target %q: %v", e, anim.Desired, err)
			}
			anim.Desired = ""
		}

		set := inst.Set()
		inst.Events.Handlers = append(inst.Events.Handlers[:0], func(c *clips.Clip, evt clips.Event) {
			anim.Fired = append(anim.Fired, evt.Name)
			w.Events().Push(ecs.Event{Type: ecs.EventAnimation, Data: ecs.AnimationEvent{
				Entity: e,
				Clip:   c.Name,
				Name:   evt.Name,
				Time:   evt.Time,
				Value:  evt.Value,
			}})
		})
		inst.OnTransition = func(from, to animset.Slot, cut bool) {
			w.Events().Push(ecs.Event{Type: ecs.EventTransition, Data: ecs.TransitionEvent{
				Entity: e,
				From:   clipName(set, from),
				To:     clipName(set, to),
				Cut:    cut,
			}})
		}

		if _, err := inst.Update(step); err != nil {
			log.Printf("animation: entity=%s update: %v", e, err)
		}
	})
}

func clipName(set *animset.Set, slot animset.Slot) string {
	if c, ok := set.Clip(slot); ok {
		return c.Name
	}
	return ""
}
