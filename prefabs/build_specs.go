package prefabs

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/milk9111/animgraph/animset"
	"github.com/milk9111/animgraph/component"
)

var (
	ErrUnknownClip = errors.New("prefabs: unknown clip")
	ErrNoClipName  = errors.New("prefabs: clip without name")
)

// Logger receives author-data warnings. Tests may silence it.
var Logger = log.Default()

const (
	propImmediate   = "immediate"
	propClearTarget = "cleartarget"
)

// BuildClip turns a clip spec into a clip. Key durations accumulate into
// timestamps; keys or events that do not fit are logged and skipped.
func BuildClip(spec ClipSpec) (*component.Clip, error) {
	if spec.Name == "" {
		return nil, ErrNoClipName
	}
	clip := component.NewClip(spec.Name, len(spec.Keys), len(spec.Events))

	var t float64
	for i, key := range spec.Keys {
		d := spec.DefaultKeyDuration
		if key.Duration != nil {
			d = *key.Duration
		}
		t += d
		if err := clip.AddKey(key.Data, t); err != nil {
			Logger.Printf("prefabs: clip %s: skip key %d (%s at %v): %v", spec.Name, i+1, key.Data, t, err)
			t -= d
		}
	}
	for i, evt := range spec.Events {
		if err := clip.AddEvent(evt.Name, evt.Time, evt.Value); err != nil {
			Logger.Printf("prefabs: clip %s: skip event %d (%s at %v): %v", spec.Name, i+1, evt.Name, evt.Time, err)
		}
	}
	return clip, nil
}

// BuildSet creates the set described by spec. Unknown clip names and links
// that can not be added are logged and skipped, so a set with typos still
// loads partially linked. When lib is not nil the built clips are stored in it.
func BuildSet(spec AnimSetSpec, lib *component.Library) (*animset.Set, error) {
	capacity := spec.Capacity
	if capacity <= 0 {
		capacity = len(spec.Clips)
	}
	set, err := animset.New(spec.Name, capacity)
	if err != nil {
		return nil, fmt.Errorf("prefabs: build set %s: %w", spec.Name, err)
	}

	for _, cs := range spec.Clips {
		clip, err := BuildClip(cs)
		if err != nil {
			Logger.Printf("prefabs: set %s: %v", spec.Name, err)
			continue
		}
		if _, err := set.AddClip(clip); err != nil {
			Logger.Printf("prefabs: set %s: skip clip %s: %v", spec.Name, cs.Name, err)
			continue
		}
		if lib != nil {
			if err := lib.Add(clip); err != nil {
				Logger.Printf("prefabs: set %s: clip %s not stored in library: %v", spec.Name, cs.Name, err)
			}
		}
	}

	for _, ls := range spec.Links {
		if err := addLink(set, ls); err != nil {
			Logger.Printf("prefabs: set %s: couldn't add link %s <%s -> %s>: %v", spec.Name, ls.Name, ls.Source, ls.Destination, err)
		}
	}
	return set, nil
}

func addLink(set *animset.Set, ls LinkSpec) error {
	src, dst := set.SlotByName(ls.Source), set.SlotByName(ls.Destination)
	if src == animset.NoSlot || dst == animset.NoSlot {
		return ErrUnknownClip
	}
	link, err := set.AddLink(src, dst)
	if err != nil {
		return err
	}
	if err := configureLink(set, link, ls); err != nil {
		if rmErr := set.RemoveLink(link); rmErr != nil {
			return errors.Join(err, rmErr)
		}
		return err
	}
	return nil
}

// configureLink applies the flags and numeric properties of ls to link.
func configureLink(set *animset.Set, link animset.Link, ls LinkSpec) error {
	flags := strings.ToLower(ls.Property)
	if ls.Immediate || strings.Contains(flags, propImmediate) {
		if err := set.SetLinkProperty(link, animset.PropImmediateCut, 1); err != nil {
			return err
		}
	}
	if ls.ClearTarget || strings.Contains(flags, propClearTarget) {
		if err := set.SetLinkProperty(link, animset.PropClearTarget, 1); err != nil {
			return err
		}
	}
	if ls.Priority != nil {
		if err := set.SetLinkProperty(link, animset.PropPriority, *ls.Priority); err != nil {
			return err
		}
	}
	if ls.Loop != nil {
		if err := set.SetLinkProperty(link, animset.PropLoopCounter, *ls.Loop); err != nil {
			return err
		}
	}
	return nil
}

// LoadSet loads and builds the YAML set spec stored under name.
func LoadSet(name string, lib *component.Library) (*animset.Set, error) {
	spec, err := LoadAnimSetSpec(specFileName(name))
	if err != nil {
		return nil, err
	}
	if spec.Name == "" {
		spec.Name = strings.TrimSuffix(specFileName(name), ".yaml")
	}
	return BuildSet(spec, lib)
}

// NewRegistry caches sets built from the YAML specs, keyed by spec name.
func NewRegistry(lib *component.Library) *animset.Registry {
	return animset.NewRegistry(func(name string) (*animset.Set, error) {
		return LoadSet(name, lib)
	})
}

func specFileName(name string) string {
	clean := cleanSpecPath(name)
	if !isSpecFile(clean) {
		clean += ".yaml"
	}
	return clean
}
