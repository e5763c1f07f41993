package animset

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/milk9111/animgraph/component"
)

type testClip struct {
	name     string
	duration float64
}

func newTestSet(t *testing.T, clips ...testClip) *Set {
	t.Helper()
	set, err := New("test", len(clips))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, tc := range clips {
		c := component.NewClip(tc.name, 1, 4)
		if err := c.AddKey(tc.name, tc.duration); err != nil {
			t.Fatalf("AddKey %s: %v", tc.name, err)
		}
		if _, err := set.AddClip(c); err != nil {
			t.Fatalf("AddClip %s: %v", tc.name, err)
		}
	}
	return set
}

// addLink links src->dst; prio < 0 keeps the default priority.
func addLink(t *testing.T, set *Set, src, dst Slot, prio int) Link {
	t.Helper()
	l, err := set.AddLink(src, dst)
	if err != nil {
		t.Fatalf("AddLink %d->%d: %v", src, dst, err)
	}
	if prio >= 0 {
		if err := set.SetLinkProperty(l, PropPriority, prio); err != nil {
			t.Fatalf("SetLinkProperty %d->%d: %v", src, dst, err)
		}
	}
	return l
}

func slots(n int) []testClip {
	clips := make([]testClip, n)
	for i := range clips {
		clips[i] = testClip{name: string(rune('a' + i)), duration: 1}
	}
	return clips
}

func compiled(t *testing.T, set *Set) *LinkTable {
	t.Helper()
	table := set.LinkTable()
	if err := table.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if table.Dirty() {
		t.Fatalf("table still dirty after Compile")
	}
	return table
}

func TestCompileIdempotent(t *testing.T) {
	set := newTestSet(t, slots(4)...)
	addLink(t, set, 0, 1, -1)
	addLink(t, set, 1, 2, 3)
	addLink(t, set, 2, 3, -1)
	addLink(t, set, 3, 0, 12)

	table := compiled(t, set)
	first := table.String()
	if err := table.Compile(); err != nil {
		t.Fatalf("second Compile: %v", err)
	}
	if got := table.String(); got != first {
		t.Fatalf("second compile changed table:\nfirst:\n%s\nsecond:\n%s", first, got)
	}

	table.MarkDirty()
	if err := table.Compile(); err != nil {
		t.Fatalf("forced Compile: %v", err)
	}
	if got := table.String(); got != first {
		t.Fatalf("recompile from scratch differs:\nfirst:\n%s\nsecond:\n%s", first, got)
	}
}

func TestCompileChainConvergence(t *testing.T) {
	const n = 6
	set := newTestSet(t, slots(n)...)
	for i := 0; i < n-1; i++ {
		addLink(t, set, Slot(i), Slot(i+1), -1)
	}
	table := compiled(t, set)

	for src := 0; src < n; src++ {
		for dst := 0; dst < n; dst++ {
			p, ok := table.Path(Slot(src), Slot(dst))
			if dst <= src {
				if ok {
					t.Fatalf("unexpected path %d->%d: %+v", src, dst, p)
				}
				continue
			}
			if !ok {
				t.Fatalf("missing path %d->%d\n%s", src, dst, table.Dump())
			}
			if p.Length != dst-src || p.Hop != Slot(src+1) {
				t.Fatalf("path %d->%d = %+v, want len %d hop %d", src, dst, p, dst-src, src+1)
			}
			if p.Direct != (dst == src+1) {
				t.Fatalf("path %d->%d direct=%v", src, dst, p.Direct)
			}
		}
	}
}

func TestCompileRouteSelection(t *testing.T) {
	tests := []struct {
		name    string
		clips   int
		links   [][3]int // src, dst, prio (-1 default)
		src     Slot
		dst     Slot
		wantHop Slot
		wantLen int
	}{
		{
			name:  "priority_beats_length",
			clips: 5,
			// 0->1 (10), 1->2, 2->4 is three hops; 0->3 (5), 3->4 is two
			links:   [][3]int{{0, 1, 10}, {1, 2, -1}, {2, 4, -1}, {0, 3, 5}, {3, 4, -1}},
			src:     0,
			dst:     4,
			wantHop: 1,
			wantLen: 3,
		},
		{
			name:  "low_priority_first_hop_loses_even_when_added_first",
			clips: 5,
			links:   [][3]int{{0, 3, 5}, {3, 4, -1}, {0, 1, 10}, {1, 2, -1}, {2, 4, -1}},
			src:     0,
			dst:     4,
			wantHop: 1,
			wantLen: 3,
		},
		{
			name:  "equal_priority_prefers_shorter",
			clips: 5,
			links:   [][3]int{{0, 1, -1}, {1, 2, -1}, {2, 4, -1}, {0, 3, -1}, {3, 4, -1}},
			src:     0,
			dst:     4,
			wantHop: 3,
			wantLen: 2,
		},
		{
			name:    "direct_link_always_wins",
			clips:   3,
			links:   [][3]int{{0, 2, 0}, {0, 1, 15}, {1, 2, 15}},
			src:     0,
			dst:     2,
			wantHop: 2,
			wantLen: 1,
		},
		{
			name:    "route_back_to_self",
			clips:   3,
			links:   [][3]int{{0, 1, -1}, {1, 2, -1}, {2, 0, -1}},
			src:     0,
			dst:     0,
			wantHop: 1,
			wantLen: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			set := newTestSet(t, slots(tc.clips)...)
			for _, l := range tc.links {
				addLink(t, set, Slot(l[0]), Slot(l[1]), l[2])
			}
			table := compiled(t, set)
			p, ok := table.Path(tc.src, tc.dst)
			if !ok {
				t.Fatalf("no path %d->%d\n%s", tc.src, tc.dst, table)
			}
			if p.Hop != tc.wantHop || p.Length != tc.wantLen {
				t.Fatalf("path %d->%d = %+v, want hop %d len %d\n%s", tc.src, tc.dst, p, tc.wantHop, tc.wantLen, table)
			}
		})
	}
}

func TestFreeRoutingPrefersSelfOnTie(t *testing.T) {
	set := newTestSet(t, slots(3)...)
	addLink(t, set, 0, 1, -1)
	addLink(t, set, 0, 0, -1)
	addLink(t, set, 0, 2, 4)
	table := compiled(t, set)

	next, ok := table.NextHop(0, NoSlot)
	if !ok || next != 0 {
		t.Fatalf("NextHop free = %d,%v, want self", next, ok)
	}

	if err := set.SetLinkProperty(Link{Src: 0, Dst: 2}, PropPriority, 9); err != nil {
		t.Fatalf("SetLinkProperty: %v", err)
	}
	table = compiled(t, set)
	if next, _ := table.NextHop(0, NoSlot); next != 2 {
		t.Fatalf("NextHop free = %d, want highest priority 2", next)
	}
}

func TestCompileHopChains(t *testing.T) {
	for _, n := range []int{8, 12} {
		rng := rand.New(rand.NewSource(7))

		for round := 0; round < 20; round++ {
			set := newTestSet(t, slots(n)...)
			for src := 0; src < n; src++ {
				for dst := 0; dst < n; dst++ {
					if rng.Intn(4) != 0 {
						continue
					}
					addLink(t, set, Slot(src), Slot(dst), rng.Intn(MaxPriority+1))
				}
			}
			table := compiled(t, set)

			for src := 0; src < n; src++ {
				for dst := 0; dst < n; dst++ {
					start, ok := table.Path(Slot(src), Slot(dst))
					if !ok {
						continue
					}
					x, steps := Slot(src), 0
					for {
						p, ok := table.Path(x, Slot(dst))
						if !ok {
							t.Fatalf("n %d round %d: hop chain %d->%d breaks at %d\n%s", n, round, src, dst, x, table)
						}
						x = p.Hop
						steps++
						if x == Slot(dst) {
							break
						}
						if steps > n {
							t.Fatalf("n %d round %d: hop chain %d->%d cycles\n%s", n, round, src, dst, table)
						}
					}
					if start.Length != steps {
						t.Fatalf("n %d round %d: %d->%d length %d, chain has %d hops\n%s", n, round, src, dst, start.Length, steps, table)
					}
				}
			}
		}
	}
}

func TestCompileSelfRouteTie(t *testing.T) {
	tests := []struct {
		name  string
		links [][2]Slot
	}{
		{"low_hop_added_first", [][2]Slot{{0, 1}, {1, 0}, {0, 2}, {2, 0}}},
		{"high_hop_added_first", [][2]Slot{{0, 2}, {2, 0}, {0, 1}, {1, 0}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			set := newTestSet(t, slots(3)...)
			for _, l := range tc.links {
				addLink(t, set, l[0], l[1], -1)
			}
			table := compiled(t, set)
			p, ok := table.Path(0, 0)
			if !ok || p.Hop != 1 || p.Length != 2 {
				t.Fatalf("path 0->0 = %+v,%v, want hop 1 len 2\n%s", p, ok, table)
			}
		})
	}
}

func TestRemoveClipClearsLinks(t *testing.T) {
	set := newTestSet(t, slots(3)...)
	addLink(t, set, 0, 1, -1)
	addLink(t, set, 1, 2, -1)
	addLink(t, set, 2, 0, -1)

	if err := set.RemoveClip(1); err != nil {
		t.Fatalf("RemoveClip: %v", err)
	}
	table := compiled(t, set)
	if got := table.LinkCount(); got != 1 {
		t.Fatalf("LinkCount = %d, want 1", got)
	}
	if _, ok := table.Path(0, 2); ok {
		t.Fatalf("path 0->2 should be gone with slot 1")
	}
	if got := set.SlotByName("b"); got != NoSlot {
		t.Fatalf("SlotByName(b) = %d, want NoSlot", got)
	}

	c := component.NewClip("d", 1, 0)
	slot, err := set.AddClip(c)
	if err != nil || slot != 1 {
		t.Fatalf("AddClip reuse = %d,%v, want slot 1", slot, err)
	}
	if set.SlotByID(component.ClipID("d")) != 1 {
		t.Fatalf("SlotByID(d) mismatch")
	}
}

func TestAddClipOnce(t *testing.T) {
	set, err := New("test", 3)
	if err != nil {
		t.Fatal(err)
	}
	lib := component.NewLibrary()
	c := component.NewClip("a", 1, 0)
	if err := lib.Add(c); err != nil {
		t.Fatal(err)
	}
	if _, err := set.AddClip(c); err != nil {
		t.Fatalf("AddClip: %v", err)
	}
	if _, err := set.AddClip(c); !errors.Is(err, component.ErrClipOwned) {
		t.Fatalf("second AddClip of the same clip = %v", err)
	}
	if set.Count() != 1 {
		t.Fatalf("Count = %d, want 1", set.Count())
	}
	if err := lib.Delete("a"); !errors.Is(err, component.ErrClipInUse) {
		t.Fatalf("Delete while in the set = %v", err)
	}
	if err := set.RemoveClip(0); err != nil {
		t.Fatal(err)
	}
	if err := lib.Delete("a"); err != nil {
		t.Fatalf("Delete after RemoveClip: %v", err)
	}
}

func TestSetEditErrors(t *testing.T) {
	set := newTestSet(t, slots(3)...)
	l := addLink(t, set, 0, 1, -1)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"duplicate_link", func() error { _, err := set.AddLink(0, 1); return err }, ErrAlreadyLinked},
		{"unlinked_property", func() error { return set.SetLinkProperty(Link{Src: 0, Dst: 2}, PropPriority, 3) }, ErrUnlinked},
		{"priority_range", func() error { return set.SetLinkProperty(l, PropPriority, MaxPriority+1) }, ErrInvalidPriority},
		{"loop_range", func() error { return set.SetLinkProperty(l, PropLoopCounter, MaxLoopCount+1) }, ErrInvalidLoop},
		{"bad_property", func() error { return set.SetLinkProperty(l, Property(99), 1) }, ErrInvalidProperty},
		{"slot_range", func() error { _, err := set.AddLink(0, 7); return err }, ErrInvalidSlot},
		{"set_full", func() error { _, err := set.AddClip(component.NewClip("x", 1, 0)); return err }, ErrNoFreeSlot},
		{"remove_missing_link", func() error { return set.RemoveLink(Link{Src: 2, Dst: 0}) }, ErrUnlinked},
		{"table_size", func() error { _, err := New("big", MaxSlots+1); return err }, ErrTableSize},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSetLockedByInstance(t *testing.T) {
	set := newTestSet(t, slots(2)...)
	l := addLink(t, set, 0, 1, -1)

	inst, err := NewInstance(set, 0)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	if !set.Locked() {
		t.Fatalf("set should be locked by instance")
	}
	if _, err := set.AddLink(1, 0); !errors.Is(err, ErrLocked) {
		t.Fatalf("AddLink while locked = %v", err)
	}
	if err := set.RemoveClip(0); !errors.Is(err, ErrLocked) {
		t.Fatalf("RemoveClip while locked = %v", err)
	}
	if err := set.SetLinkProperty(l, PropImmediateCut, 1); err != nil {
		t.Fatalf("property edit while locked: %v", err)
	}

	inst.Close()
	inst.Close()
	if set.Locked() || set.Refs() != 0 {
		t.Fatalf("refs = %d after Close", set.Refs())
	}
	if _, err := set.AddLink(1, 0); err != nil {
		t.Fatalf("AddLink after Close: %v", err)
	}
	if _, err := inst.Update(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("Update after Close = %v", err)
	}
}

func TestLinkPropertyRoundTrip(t *testing.T) {
	set := newTestSet(t, slots(2)...)
	l := addLink(t, set, 0, 1, -1)

	if v, ok := set.LinkProperty(l, PropPriority); !ok || v != DefaultPriority {
		t.Fatalf("default priority = %d,%v", v, ok)
	}
	if _, ok := set.LinkProperty(l, PropLoopCounter); ok {
		t.Fatalf("loop counter should be absent")
	}
	if err := set.SetLinkProperty(l, PropLoopCounter, 3); err != nil {
		t.Fatal(err)
	}
	if v, ok := set.LinkProperty(l, PropLoopCounter); !ok || v != 3 {
		t.Fatalf("loop counter = %d,%v", v, ok)
	}
	if !set.PrivateLinks() {
		t.Fatalf("loop counter should switch the set to private tables")
	}
	if err := set.RemoveLinkProperty(l, PropLoopCounter); err != nil {
		t.Fatal(err)
	}
	if _, ok := set.LinkProperty(l, PropLoopCounter); ok {
		t.Fatalf("loop counter should be removed")
	}
	if err := set.RemoveLink(l); err != nil {
		t.Fatal(err)
	}
	if _, ok := set.GetLink(0, 1); ok {
		t.Fatalf("link should be gone")
	}
}
