package component

import "github.com/milk9111/animgraph/animset"

// Animator plays one animation set instance on an entity.
type Animator struct {
	Instance *animset.Instance
	// Driver is the path of the script choosing targets, empty for none.
	Driver string
	// Inputs are read by the driver script.
	Inputs map[string]float64
	// Desired is the clip the driver asked for this tick; it is consumed by
	// the animation system.
	Desired string
	// Fired lists the clip event names crossed during the last tick.
	Fired []string
	// Paused animators are not advanced.
	Paused bool
}

// NewAnimator wraps inst. The animator owns the instance reference.
func NewAnimator(inst *animset.Instance) *Animator {
	return &Animator{Instance: inst, Inputs: map[string]float64{}}
}

// ClipName returns the name of the clip being played.
func (a *Animator) ClipName() string {
	if a == nil || a.Instance == nil {
		return ""
	}
	if c := a.Instance.Clip(); c != nil {
		return c.Name
	}
	return ""
}

var AnimatorComponent = NewComponent[Animator]()
