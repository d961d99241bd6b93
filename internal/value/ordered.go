package value

import "slices"

// OrderedMap is an insertion-ordered string-keyed mapping. Unlike Map, two
// ordered maps are only equal when their (key, value) sequences match in
// order.
type OrderedMap struct {
	keys []string
	vals map[string]Value
}

func (*OrderedMap) value() {}

// NewOrderedMap creates an empty ordered map.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{vals: make(map[string]Value)}
}

// Set inserts or replaces key. A replaced key keeps its original position.
// Returns the receiver for chaining.
func (m *OrderedMap) Set(key string, v Value) *OrderedMap {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
	return m
}

// Get returns the value for key.
func (m *OrderedMap) Get(key string) (Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string { return slices.Clone(m.keys) }
