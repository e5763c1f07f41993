package prefabs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/milk9111/animgraph/animset"
	"github.com/milk9111/animgraph/component"
	"gopkg.in/ini.v1"
)

// Config keys of INI animation sets.
const (
	keyAnimationList      = "AnimationList"
	keyLinkList           = "LinkList"
	keySource             = "Source"
	keyDestination        = "Destination"
	keyProperty           = "Property"
	keyPriority           = "Priority"
	keyKeyData            = "KeyData"
	keyKeyDuration        = "KeyDuration"
	keyDefaultKeyDuration = "DefaultKeyDuration"
	keyEventName          = "EventName"
	keyEventTime          = "EventTime"
	keyEventValue         = "EventValue"

	listSeparator = "#"
)

var ErrNotAnimSet = errors.New("prefabs: section is not an animation set")

var iniOptions = ini.LoadOptions{
	InsensitiveSections:     true,
	InsensitiveKeys:         false,
	IgnoreInlineComment:     true,
	SkipUnrecognizableLines: true,
	AllowShadows:            false,
}

// LoadINI parses an INI config file found on disk or embedded.
func LoadINI(name string) (*ini.File, error) {
	data, err := Load(name)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load %s: %w", name, err)
	}
	file, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, fmt.Errorf("prefabs: parse %s: %w", name, err)
	}
	return file, nil
}

// INISets lists the sections of file that declare an AnimationList.
func INISets(file *ini.File) []string {
	var out []string
	for _, sec := range file.Sections() {
		if sec.Name() == ini.DEFAULT_SECTION {
			continue
		}
		if sec.HasKey(keyAnimationList) {
			out = append(out, sec.Name())
		}
	}
	return out
}

// INISetSpec reads the animation set declared in section. Clip and link
// sections that are missing are logged and skipped.
func INISetSpec(file *ini.File, section string) (AnimSetSpec, error) {
	sec, err := file.GetSection(section)
	if err != nil {
		return AnimSetSpec{}, fmt.Errorf("prefabs: set %s: %w", section, err)
	}
	if !sec.HasKey(keyAnimationList) {
		return AnimSetSpec{}, fmt.Errorf("%w: %s", ErrNotAnimSet, section)
	}

	spec := AnimSetSpec{Name: section}
	for _, name := range splitList(sec.Key(keyAnimationList).Value()) {
		clipSec, err := file.GetSection(name)
		if err != nil {
			Logger.Printf("prefabs: set %s: couldn't find animation %s", section, name)
			continue
		}
		spec.Clips = append(spec.Clips, iniClipSpec(name, clipSec))
	}
	spec.Capacity = len(spec.Clips)

	if sec.HasKey(keyLinkList) {
		for _, name := range splitList(sec.Key(keyLinkList).Value()) {
			linkSec, err := file.GetSection(name)
			if err != nil {
				Logger.Printf("prefabs: set %s: couldn't find link %s", section, name)
				continue
			}
			spec.Links = append(spec.Links, iniLinkSpec(name, linkSec))
		}
	}
	return spec, nil
}

// LoadINISet loads name and builds the set declared in section.
func LoadINISet(name, section string, lib *component.Library) (*animset.Set, error) {
	file, err := LoadINI(name)
	if err != nil {
		return nil, err
	}
	spec, err := INISetSpec(file, section)
	if err != nil {
		return nil, err
	}
	return BuildSet(spec, lib)
}

// NewINIRegistry caches sets declared in the sections of one INI file.
func NewINIRegistry(name string, lib *component.Library) *animset.Registry {
	return animset.NewRegistry(func(section string) (*animset.Set, error) {
		return LoadINISet(name, section, lib)
	})
}

func iniClipSpec(name string, sec *ini.Section) ClipSpec {
	spec := ClipSpec{
		Name:               name,
		DefaultKeyDuration: sec.Key(keyDefaultKeyDuration).MustFloat64(0),
	}
	for i := 1; sec.HasKey(numbered(keyKeyData, i)); i++ {
		key := KeySpec{Data: sec.Key(numbered(keyKeyData, i)).String()}
		if durKey := numbered(keyKeyDuration, i); sec.HasKey(durKey) {
			d := sec.Key(durKey).MustFloat64(spec.DefaultKeyDuration)
			key.Duration = &d
		}
		spec.Keys = append(spec.Keys, key)
	}
	for i := 1; sec.HasKey(numbered(keyEventName, i)); i++ {
		spec.Events = append(spec.Events, EventSpec{
			Name:  sec.Key(numbered(keyEventName, i)).String(),
			Time:  sec.Key(numbered(keyEventTime, i)).MustFloat64(0),
			Value: sec.Key(numbered(keyEventValue, i)).MustFloat64(0),
		})
	}
	return spec
}

func iniLinkSpec(name string, sec *ini.Section) LinkSpec {
	spec := LinkSpec{
		Name:        name,
		Source:      strings.TrimSpace(sec.Key(keySource).String()),
		Destination: strings.TrimSpace(sec.Key(keyDestination).String()),
		Property:    sec.Key(keyProperty).String(),
	}
	if sec.HasKey(keyPriority) {
		p, err := sec.Key(keyPriority).Int()
		if err != nil {
			Logger.Printf("prefabs: link %s: bad priority %q", name, sec.Key(keyPriority).String())
		} else {
			spec.Priority = &p
		}
	}
	return spec
}

func numbered(key string, i int) string {
	return key + strconv.Itoa(i)
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, listSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
