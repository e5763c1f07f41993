package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	clips "github.com/milk9111/animgraph/component"
	"github.com/milk9111/animgraph/prefabs"
)

func TestSimulate(t *testing.T) {
	prefabs.Logger = log.New(io.Discard, "", 0)

	tests := []struct {
		name string
		opts options
		want []string
	}{
		{
			name: "yaml_destination",
			opts: options{spec: "hero", to: "run", dt: 1.0 / 60, ticks: 120},
			want: []string{"set hero: 5 clips, 12 links", "idle -> walk", "walk -> run"},
		},
		{
			name: "yaml_driver",
			opts: options{spec: "hero", speed: 6, dt: 1.0 / 60, ticks: 120},
			want: []string{"idle -> walk", "walk -> run"},
		},
		{
			name: "ini_first_set",
			opts: options{iniPath: "animsets.ini", to: "SoldierWalk", dt: 0.25, ticks: 6, dump: true},
			want: []string{"3 clips, 4 links", "SoldierIdle -> SoldierWalk"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg, key, err := registryFor(tc.opts, clips.NewLibrary())
			if err != nil {
				t.Fatalf("registryFor: %v", err)
			}
			var out bytes.Buffer
			if err := simulate(&out, reg, key, tc.opts); err != nil {
				t.Fatalf("simulate: %v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(out.String(), want) {
					t.Fatalf("output lacks %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestWatchDirsIncludesINIDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sets.ini")
	if err := os.WriteFile(path, []byte("[Empty]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs := watchDirs(options{iniPath: path})
	found := 0
	for _, d := range dirs {
		if d == filepath.Clean(dir) {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("watchDirs = %v, want %s once", dirs, dir)
	}

	for _, d := range watchDirs(options{iniPath: filepath.Join(dir, "missing", "x.ini")}) {
		if strings.Contains(d, "missing") {
			t.Fatalf("nonexistent directory %s listed", d)
		}
	}
}
