// Package watcher keeps the two most recent readings of a polled value so
// edges can be detected without reporting one across a gap in the data.
package watcher

import "cmp"

// Pair is the previous and the current reading
type Pair[T comparable] struct {
	Old     T
	Current T
}

// Changed reports whether the value differs from the previous reading
func (p Pair[T]) Changed() bool {
	return p.Current != p.Old
}

// ChangedTo reports whether the value became v with this reading
func (p Pair[T]) ChangedTo(v T) bool {
	return p.Current == v && p.Old != v
}

// Increased reports whether the value grew with this reading
func Increased[T cmp.Ordered](p Pair[T]) bool {
	return p.Current > p.Old
}

// Decreased reports whether the value shrank with this reading
func Decreased[T cmp.Ordered](p Pair[T]) bool {
	return p.Current < p.Old
}

// Watcher holds a Pair once at least one reading succeeded. The first
// reading after a gap sets both halves, so it never counts as a change.
type Watcher[T comparable] struct {
	pair  Pair[T]
	valid bool
}

// Update records a reading; ok false means the value could not be read
func (w *Watcher[T]) Update(v T, ok bool) {
	switch {
	case !ok:
		w.Clear()
	case !w.valid:
		w.pair = Pair[T]{Old: v, Current: v}
		w.valid = true
	default:
		w.pair.Old, w.pair.Current = w.pair.Current, v
	}
}

// UpdateFrom records the outcome of a read
func (w *Watcher[T]) UpdateFrom(v T, err error) {
	w.Update(v, err == nil)
}

// Clear forgets both readings
func (w *Watcher[T]) Clear() {
	var zero Pair[T]
	w.pair, w.valid = zero, false
}

// Pair returns the readings, ok is false while no reading is held
func (w *Watcher[T]) Pair() (Pair[T], bool) {
	return w.pair, w.valid
}

// Current returns the latest reading
func (w *Watcher[T]) Current() (T, bool) {
	return w.pair.Current, w.valid
}

func (w *Watcher[T]) Changed() bool {
	return w.valid && w.pair.Changed()
}

func (w *Watcher[T]) ChangedTo(v T) bool {
	return w.valid && w.pair.ChangedTo(v)
}

// OrderedWatcher adds direction predicates for ordered values
type OrderedWatcher[T cmp.Ordered] struct {
	Watcher[T]
}

func (w *OrderedWatcher[T]) Increased() bool {
	return w.valid && Increased(w.pair)
}

func (w *OrderedWatcher[T]) Decreased() bool {
	return w.valid && Decreased(w.pair)
}
