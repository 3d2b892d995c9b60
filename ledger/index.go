package ledger

import "golang.org/x/exp/slices"

// index keeps the records of one kind in insertion order with an id lookup for
// records that have an id.
type index[T comparable] struct {
	byID  map[string]T
	order []T
}

func newIndex[T comparable]() *index[T] {
	return &index[T]{byID: make(map[string]T)}
}

func (x *index[T]) get(id string) (T, bool) {
	v, ok := x.byID[id]
	return v, ok
}

func (x *index[T]) add(id string, v T) {
	x.order = append(x.order, v)
	if id != "" {
		x.byID[id] = v
	}
}

// setID registers v under an id derived after it was added.
func (x *index[T]) setID(id string, v T) {
	if id != "" {
		x.byID[id] = v
	}
}

func (x *index[T]) remove(id string, v T) {
	x.order = slices.DeleteFunc(x.order, func(e T) bool { return e == v })
	if id != "" && x.byID[id] == v {
		delete(x.byID, id)
	}
}

func (x *index[T]) all() []T {
	return slices.Clone(x.order)
}

func (x *index[T]) len() int {
	return len(x.order)
}
