// Package ecs provides dense, index-based component storage keyed by entity id.
package ecs

// Entity is a stable entity identifier. Zero is never issued.
type Entity uint32

// Registry hands out entity ids.
type Registry struct {
	next Entity
}

// Create returns a fresh entity id.
func (r *Registry) Create() Entity {
	r.next++
	return r.next
}

// Store keeps components of one kind contiguous in memory.
// Entity to component lookup is a single map access; iteration walks the
// dense slice in insertion order until a removal swaps the last element in.
type Store[T any] struct {
	index    map[Entity]int
	entities []Entity
	items    []T
}

// NewStore creates an empty store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{index: make(map[Entity]int)}
}

// Add attaches a component to an entity, replacing any existing one.
// It returns the component instance index.
func (s *Store[T]) Add(e Entity, c T) int {
	if i, ok := s.index[e]; ok {
		s.items[i] = c
		return i
	}
	i := len(s.items)
	s.index[e] = i
	s.entities = append(s.entities, e)
	s.items = append(s.items, c)
	return i
}

// Lookup returns the instance index of the entity's component.
func (s *Store[T]) Lookup(e Entity) (int, bool) {
	i, ok := s.index[e]
	return i, ok
}

// Get returns a pointer to the entity's component, or nil.
// The pointer is invalidated by Add and Remove.
func (s *Store[T]) Get(e Entity) *T {
	i, ok := s.index[e]
	if !ok {
		return nil
	}
	return &s.items[i]
}

// Remove detaches the entity's component by swapping the last instance into its slot.
func (s *Store[T]) Remove(e Entity) bool {
	i, ok := s.index[e]
	if !ok {
		return false
	}
	last := len(s.items) - 1
	if i != last {
		s.items[i] = s.items[last]
		s.entities[i] = s.entities[last]
		s.index[s.entities[i]] = i
	}
	var zero T
	s.items[last] = zero
	s.items = s.items[:last]
	s.entities = s.entities[:last]
	delete(s.index, e)
	return true
}

// Len returns the number of components.
func (s *Store[T]) Len() int {
	return len(s.items)
}

// Each calls fn for every component in storage order.
func (s *Store[T]) Each(fn func(e Entity, c *T)) {
	for i := range s.items {
		fn(s.entities[i], &s.items[i])
	}
}
