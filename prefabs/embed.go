package prefabs

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
)

// Dir is the on-disk directory whose files override the embedded ones.
var Dir = "prefabs"

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// LoadScript reads a driver script, preferring the on-disk copy.
func LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if data, err := os.ReadFile(diskSpecPath(clean)); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

//go:embed *.yaml *.ini
var SpecsFS embed.FS

// Load reads a spec file, preferring the on-disk copy so edits apply without
// a rebuild. Absolute paths are read from disk only.
func Load(name string) ([]byte, error) {
	if filepath.IsAbs(name) {
		return os.ReadFile(name)
	}
	if data, err := os.ReadFile(DiskPath(name)); err == nil {
		return data, nil
	}
	return SpecsFS.ReadFile(cleanSpecPath(name))
}

// DiskPath returns the on-disk file Load tries first for name.
func DiskPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return diskSpecPath(cleanSpecPath(name))
}

func cleanSpecPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, Dir+"/"); ok {
		return after
	}
	return s
}

func cleanScriptPath(path string) string {
	if path == "" {
		return ""
	}
	s := cleanSpecPath(path)
	s = strings.TrimPrefix(s, "scripts/")
	return "scripts/" + s
}

func diskSpecPath(clean string) string {
	return filepath.Join(Dir, filepath.FromSlash(clean))
}
