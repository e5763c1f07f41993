package ecs

import "github.com/milk9111/animgraph/ecs/component"

func storeOf[T any](w *World, kind component.ComponentKind[T], create bool) *SparseSet[T] {
	if w == nil || !kind.Valid() {
		return nil
	}
	if s, ok := w.stores[kind.ID()]; ok {
		return s.(*SparseSet[T])
	}
	if !create {
		return nil
	}
	s := &SparseSet[T]{}
	if w.stores == nil {
		w.stores = make(map[component.ComponentID]store)
	}
	w.stores[kind.ID()] = s
	return s
}

func Add[T any](w *World, e Entity, kind component.ComponentKind[T], value *T) error {
	if !kind.Valid() {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return component.ErrNilComponent
	}
	if !IsAlive(w, e) {
		return component.ErrEntityNotAlive
	}
	storeOf(w, kind, true).set(e.id(), value)
	return nil
}

// ForEach visits every entity holding a component of kind.
func ForEach[T any](w *World, kind component.ComponentKind[T], fn func(Entity, *T)) {
	s := storeOf(w, kind, false)
	if s == nil {
		return
	}
	for _, id := range append([]entityID(nil), s.ids()...) {
		e, ok := w.entities.entity(id)
		if !ok {
			continue
		}
		if v := s.get(id); v != nil {
			fn(e, v)
		}
	}
}
