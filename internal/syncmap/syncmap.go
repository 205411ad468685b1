// Package syncmap provides a mutex-guarded map used by every shared registry
package syncmap

import "sync"

// Map is a map guarded by a read/write mutex. Reads that return several
// entries hand out copies taken under the lock, so callers may iterate them
// without racing concurrent writers.
type Map[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// New creates an empty Map
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		data: make(map[K]V),
	}
}

// Get returns the value stored for key
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	return v, ok
}

// Set stores value for key, replacing any previous value
func (m *Map[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
}

// Has reports whether key is present
func (m *Map[K, V]) Has(key K) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.data[key]
	return ok
}

// Delete removes key and reports whether it was present
func (m *Map[K, V]) Delete(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.data[key]
	delete(m.data, key)
	return ok
}

// Len returns the number of entries
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}

// Update atomically reads, computes and writes back a single entry.
// fn receives the current value and whether it exists; it returns the new
// value and whether to keep it. Returning keep=false deletes the entry.
func (m *Map[K, V]) Update(key K, fn func(current V, exists bool) (next V, keep bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.data[key]
	next, keep := fn(current, exists)
	if keep {
		m.data[key] = next
	} else if exists {
		delete(m.data, key)
	}
}

// Snapshot returns a shallow copy of the map taken under the lock
func (m *Map[K, V]) Snapshot() map[K]V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[K]V, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// Keys returns a copy of the current keys in unspecified order
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]K, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// Values returns a copy of the current values in unspecified order
func (m *Map[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := make([]V, 0, len(m.data))
	for _, v := range m.data {
		values = append(values, v)
	}
	return values
}

// DeleteFunc removes every entry for which fn returns true and returns the
// removed keys. fn runs with the lock held and must not call back into m.
func (m *Map[K, V]) DeleteFunc(fn func(key K, value V) bool) []K {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []K
	for k, v := range m.data {
		if fn(k, v) {
			delete(m.data, k)
			removed = append(removed, k)
		}
	}
	return removed
}

// Do runs fn with the exclusive lock held for its whole duration, so a
// sequence of reads and writes through tx is atomic with respect to every
// other operation on m. Inside fn use tx, never m itself: the lock is not
// reentrant and calling m would deadlock.
func (m *Map[K, V]) Do(fn func(tx *Tx[K, V])) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &Tx[K, V]{data: m.data}
	defer func() { tx.data = nil }()
	fn(tx)
}

// Tx is a view of a Map that is only valid inside Do
type Tx[K comparable, V any] struct {
	data map[K]V
}

// Get returns the value stored for key
func (tx *Tx[K, V]) Get(key K) (V, bool) {
	v, ok := tx.data[key]
	return v, ok
}

// Set stores value for key
func (tx *Tx[K, V]) Set(key K, value V) {
	tx.data[key] = value
}

// Has reports whether key is present
func (tx *Tx[K, V]) Has(key K) bool {
	_, ok := tx.data[key]
	return ok
}

// Delete removes key and reports whether it was present
func (tx *Tx[K, V]) Delete(key K) bool {
	_, ok := tx.data[key]
	delete(tx.data, key)
	return ok
}

// Len returns the number of entries
func (tx *Tx[K, V]) Len() int {
	return len(tx.data)
}

// Range calls fn for every entry until fn returns false.
// Deleting the current entry from fn is allowed.
func (tx *Tx[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range tx.data {
		if !fn(k, v) {
			return
		}
	}
}
