// Copyright 2025 The Stable Map Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stablemap

import "fmt"

// Entry is a short-lived cursor over a single key's mapping, created by
// Map.Entry. It resolves the key once and caches the resulting position so
// that chained operations on an occupied entry do not probe the index
// again. An Entry is invalidated by any mutation of the map other than
// through the Entry itself.
type Entry[K comparable, V any] struct {
	m   *Map[K, V]
	key K
	p   pos
	ok  bool
}

// Entry returns a cursor for the given key, in either the occupied or the
// vacant state.
func (m *Map[K, V]) Entry(key K) *Entry[K, V] {
	p, ok := m.keyToPos.Get(key)
	return &Entry[K, V]{m: m, key: key, p: p, ok: ok}
}

// Occupied reports whether the entry's key is present in the map.
func (e *Entry[K, V]) Occupied() bool {
	return e.ok
}

// Key returns the entry's key.
func (e *Entry[K, V]) Key() K {
	return e.key
}

// Get returns the entry's value, if occupied.
func (e *Entry[K, V]) Get() (value V, ok bool) {
	if !e.ok {
		return value, false
	}
	return *e.m.storage.getUnchecked(e.p), true
}

// Value returns a pointer to the entry's value, or nil if the entry is
// vacant.
func (e *Entry[K, V]) Value() *V {
	if !e.ok {
		return nil
	}
	return e.m.storage.getUnchecked(e.p)
}

// Insert sets the entry's value. An occupied entry has its value replaced
// in place, keeping its index, and the previous value is returned; a
// vacant entry is inserted and becomes occupied.
func (e *Entry[K, V]) Insert(value V) (prev V, replaced bool) {
	if e.ok {
		v := e.m.storage.getUnchecked(e.p)
		prev, *v = *v, value
		return prev, true
	}
	e.p = e.m.storage.insert(value)
	e.m.keyToPos.Put(e.key, e.p)
	e.ok = true
	e.m.checkInvariants()
	return prev, false
}

// Remove removes the entry from the map, returning its value. The entry
// becomes vacant and may be re-inserted.
func (e *Entry[K, V]) Remove() (value V, ok bool) {
	if !e.ok {
		return value, false
	}
	e.m.keyToPos.Delete(e.key)
	value = e.m.storage.takeUnchecked(e.p)
	e.ok = false
	e.m.checkInvariants()
	return value, true
}

// OrInsert inserts the given value if the entry is vacant and returns a
// pointer to the entry's value.
func (e *Entry[K, V]) OrInsert(value V) *V {
	if !e.ok {
		e.Insert(value)
	}
	return e.m.storage.getUnchecked(e.p)
}

// OrInsertWith inserts the value produced by f if the entry is vacant and
// returns a pointer to the entry's value. f is not called for occupied
// entries.
func (e *Entry[K, V]) OrInsertWith(f func() V) *V {
	if !e.ok {
		e.Insert(f())
	}
	return e.m.storage.getUnchecked(e.p)
}

// AndModify calls f with a pointer to the entry's value if the entry is
// occupied, then returns the entry for further chaining.
func (e *Entry[K, V]) AndModify(f func(value *V)) *Entry[K, V] {
	if e.ok {
		f(e.m.storage.getUnchecked(e.p))
	}
	return e
}

// OccupiedError is returned by TryInsert when the key is already present.
type OccupiedError[K comparable, V any] struct {
	// Key is the key that was passed to TryInsert.
	Key K
	// Value is the value that was rejected.
	Value V
	// Current points at the value currently stored under Key.
	Current *V
}

func (e *OccupiedError[K, V]) Error() string {
	return fmt.Sprintf("key %v already present in the map", e.Key)
}

// TryInsert inserts the entry if the key is not present and returns a
// pointer to the inserted value. If the key is present the map is
// unchanged and a *OccupiedError carrying the rejected value is returned.
func (m *Map[K, V]) TryInsert(key K, value V) (*V, error) {
	if p, ok := m.keyToPos.Get(key); ok {
		return nil, &OccupiedError[K, V]{
			Key:     key,
			Value:   value,
			Current: m.storage.getUnchecked(p),
		}
	}
	p := m.storage.insert(value)
	m.keyToPos.Put(key, p)
	m.checkInvariants()
	return m.storage.getUnchecked(p), nil
}
