package grid

import (
	"slices"
)

// CheckState is the tri-state of a select-all control.
type CheckState int

const (
	Unchecked CheckState = iota
	Indeterminate
	Checked
)

func (s CheckState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// Selection is a set of absolute row indices. It does not know about pages or sort
// order, which is what keeps it stable when either changes.
type Selection struct {
	set map[int]struct{}
}

func newSelection() Selection {
	return Selection{set: make(map[int]struct{})}
}

func (s *Selection) Has(i int) bool {
	_, ok := s.set[i]
	return ok
}

func (s *Selection) Len() int {
	return len(s.set)
}

func (s *Selection) Toggle(i int) {
	if s.Has(i) {
		delete(s.set, i)
		return
	}
	s.set[i] = struct{}{}
}

func (s *Selection) Clear() {
	clear(s.set)
}

// SelectAll adds every index in indices.
func (s *Selection) SelectAll(indices []int) {
	for _, i := range indices {
		s.set[i] = struct{}{}
	}
}

// Indices returns the selected indices in ascending order.
func (s *Selection) Indices() []int {
	out := make([]int, 0, len(s.set))
	for i := range s.set {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// AllOf reports whether every index in indices is selected. An empty set is
// never all selected.
func (s *Selection) AllOf(indices []int) bool {
	return len(indices) > 0 && s.StateOf(indices) == Checked
}

// StateOf reports the tri-state over an arbitrary set of indices, such as one page.
func (s *Selection) StateOf(indices []int) CheckState {
	hit := 0
	for _, i := range indices {
		if s.Has(i) {
			hit++
		}
	}
	switch {
	case hit == 0 || len(indices) == 0:
		return Unchecked
	case hit == len(indices):
		return Checked
	default:
		return Indeterminate
	}
}

// shiftInsert makes room for a row inserted at absolute index at.
func (s *Selection) shiftInsert(at int) {
	next := make(map[int]struct{}, len(s.set))
	for i := range s.set {
		if i >= at {
			i++
		}
		next[i] = struct{}{}
	}
	s.set = next
}

// shiftDelete drops the index at and closes the gap.
func (s *Selection) shiftDelete(at int) {
	next := make(map[int]struct{}, len(s.set))
	for i := range s.set {
		switch {
		case i == at:
			continue
		case i > at:
			i--
		}
		next[i] = struct{}{}
	}
	s.set = next
}
