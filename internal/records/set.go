package records

// Set is an unordered collection of comparable values.
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, v := range items {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Toggle flips membership of v and returns the new membership.
func (s Set[T]) Toggle(v T) bool {
	if s.Has(v) {
		delete(s, v)
		return false
	}
	s[v] = struct{}{}
	return true
}

func (s Set[T]) Remove(v T) {
	delete(s, v)
}

func (s Set[T]) Len() int {
	return len(s)
}

// Clear empties the set in place.
func (s Set[T]) Clear() {
	for k := range s {
		delete(s, k)
	}
}

// Items returns the members in no particular order.
func (s Set[T]) Items() []T {
	out := make([]T, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}
