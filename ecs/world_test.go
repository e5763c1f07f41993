package ecs

import (
	"testing"

	"github.com/milk9111/animgraph/ecs/component"
)

func intPtr(i int) *int {
	return &i
}

func TestEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			if c.destroyIndex >= 0 {
				if !DestroyEntity(w, ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
			}
			for i, e := range ents {
				if want := i != c.destroyIndex; IsAlive(w, e) != want {
					t.Fatalf("entity %v alive = %v, want %v", e, !want, want)
				}
			}
		})
	}
}

func TestForEach(t *testing.T) {
	cases := []struct {
		name    string
		values  []int
		destroy int // index to destroy, -1 = none
		want    map[int]bool
	}{
		{"empty", nil, -1, map[int]bool{}},
		{"all_visited", []int{1, 2, 3}, -1, map[int]bool{1: true, 2: true, 3: true}},
		{"destroyed_skipped", []int{1, 2, 3}, 0, map[int]bool{2: true, 3: true}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			k := component.NewComponentKind[int]()
			var ents []Entity
			for _, v := range c.values {
				e := CreateEntity(w)
				if err := Add(w, e, k, intPtr(v)); err != nil {
					t.Fatalf("Add: %v", err)
				}
				ents = append(ents, e)
			}
			// an entity without the component is never visited
			CreateEntity(w)
			if c.destroy >= 0 {
				DestroyEntity(w, ents[c.destroy])
			}

			got := map[int]bool{}
			ForEach(w, k, func(e Entity, v *int) {
				if !IsAlive(w, e) {
					t.Fatalf("visited dead entity %v", e)
				}
				got[*v] = true
			})
			if len(got) != len(c.want) {
				t.Fatalf("visited %v, want %v", got, c.want)
			}
			for v := range c.want {
				if !got[v] {
					t.Fatalf("value %d not visited, got %v", v, got)
				}
			}
		})
	}
}

func TestAddReplacesValue(t *testing.T) {
	w := NewWorld()
	k := component.NewComponentKind[int]()
	e := CreateEntity(w)
	if err := Add(w, e, k, intPtr(1)); err != nil {
		t.Fatal(err)
	}
	if err := Add(w, e, k, intPtr(2)); err != nil {
		t.Fatal(err)
	}

	var seen []int
	ForEach(w, k, func(_ Entity, v *int) { seen = append(seen, *v) })
	if len(seen) != 1 || seen[0] != 2 {
		t.Fatalf("ForEach saw %v, want [2]", seen)
	}
}

func TestEntityRecycling(t *testing.T) {
	w := NewWorld()
	k := component.NewComponentKind[int]()

	e1 := CreateEntity(w)
	if err := Add(w, e1, k, intPtr(1)); err != nil {
		t.Fatal(err)
	}
	if !DestroyEntity(w, e1) {
		t.Fatalf("destroy failed")
	}
	if DestroyEntity(w, e1) {
		t.Fatalf("second destroy should fail")
	}

	e2 := CreateEntity(w)
	if e2.id() != e1.id() || e2.generation() == e1.generation() {
		t.Fatalf("expected id reuse with new generation, got %v after %v", e2, e1)
	}
	visited := 0
	ForEach(w, k, func(Entity, *int) { visited++ })
	if visited != 0 {
		t.Fatalf("recycled entity should not inherit components")
	}
	if err := Add(w, e1, k, intPtr(2)); err != component.ErrEntityNotAlive {
		t.Fatalf("Add on stale handle = %v", err)
	}
	if err := Add(w, e2, k, nil); err != component.ErrNilComponent {
		t.Fatalf("Add nil = %v", err)
	}
	if err := Add(w, e2, component.ComponentKind[int]{}, intPtr(3)); err != component.ErrInvalidComponentKind {
		t.Fatalf("Add with zero kind = %v", err)
	}
}

func TestEventQueue(t *testing.T) {
	w := NewWorld()
	q := w.Events()
	q.Push(Event{Type: EventAnimation, Data: AnimationEvent{Name: "step"}})
	q.Push(Event{Type: EventTransition})
	if q.Len() != 2 {
		t.Fatalf("Len = %d", q.Len())
	}
	got := q.Drain()
	if len(got) != 2 || got[0].Data.(AnimationEvent).Name != "step" {
		t.Fatalf("Drain = %+v", got)
	}
	if q.Drain() != nil {
		t.Fatalf("queue should be empty after Drain")
	}
}
