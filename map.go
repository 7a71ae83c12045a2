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

// Package stablemap provides a hash map in which every key is associated
// with a stable numeric index. The index assigned to a key survives
// arbitrary insertions and removals of other keys and changes only when the
// caller explicitly compacts the map.
//
// # Design
//
// The map is split into two parts: a hash index mapping each key to a
// position handle, and a sparse slot array holding the values. The hash
// index is a swiss.Map (github.com/cockroachdb/swiss); the slot array is
// implemented here. A position handle is a pair of views aliasing one
// shared cell containing the slot's current index. The internal view lives
// inside the occupied slot; the external view is stored as the hash index's
// value. When compaction relocates a slot, it rewrites the cell through the
// internal view and the external view observes the new index with no
// propagation step.
//
// Removing a key turns its handle pair back into a free position which is
// pushed onto a min-ordered free queue. Inserting reuses the smallest free
// index before growing the array, so the index space fragments slowly and
// low indices are favored. Compact relocates occupied slots from the tail
// of the array into the free holes, restoring density; until then, removed
// indices simply read as absent.
//
// # Iterating under re-entrancy
//
// The motivating use case is a callback registry that is mutated while it
// is being iterated. Holding an external lock, a caller can snapshot
// IndexLen, walk indices 0..IndexLen via GetByIndex, and release/reacquire
// the lock between indices so that callbacks may themselves register or
// unregister entries:
//
//	mu.Lock()
//	for i := 0; i < registry.IndexLen(); i++ {
//		cb, ok := registry.GetByIndex(i)
//		if !ok {
//			continue // removed while we were iterating
//		}
//		mu.Unlock()
//		cb.Run() // may call back into the registry
//		mu.Lock()
//	}
//	registry.Compact()
//	mu.Unlock()
//
// Indices already visited are unaffected by later insertions; indices
// compacted away report absent. IndexLen is monotonically non-decreasing
// except across Clear, Compact, and ForceCompact.
//
// A Map is NOT goroutine-safe. It may be moved between goroutines, shared
// read-only, or shared for mutation under external synchronization.
package stablemap

import (
	"fmt"

	"github.com/cockroachdb/swiss"
)

// Map is a hash map from keys to values in which every key additionally
// owns a stable numeric index, usable with GetByIndex. By default a
// Map[K,V] hashes with the same function as Go's builtin map[K]V; a
// different function can be specified using the WithHash option.
//
// The zero value for a Map is not usable; call New.
type Map[K comparable, V any] struct {
	// keyToPos maps each key to the external view of the position holding
	// the key's value. Every position reachable from keyToPos is valid for
	// storage's current generation.
	keyToPos *swiss.Map[K, pos]
	storage  linearStorage[V]
	hash     func(key *K, seed uintptr) uintptr
}

// New constructs a new Map with the specified initial capacity. If
// initialCapacity is 0 the map will start out with zero capacity and will
// grow on the first insert.
func New[K comparable, V any](initialCapacity int, options ...option[K, V]) *Map[K, V] {
	var cfg config[K, V]
	for _, op := range options {
		op.apply(&cfg)
	}
	return &Map[K, V]{
		keyToPos: newIndex[K](initialCapacity, cfg.hash),
		storage:  newLinearStorage[V](initialCapacity),
		hash:     cfg.hash,
	}
}

func newIndex[K comparable](capacity int, hash func(key *K, seed uintptr) uintptr) *swiss.Map[K, pos] {
	if hash != nil {
		return swiss.New[K, pos](capacity, swiss.WithHash[K, pos](hash))
	}
	return swiss.New[K, pos](capacity)
}

// FromMap constructs a Map holding the entries of m. Indices are assigned
// densely in iteration order of m.
func FromMap[K comparable, V any](m map[K]V) *Map[K, V] {
	r := New[K, V](len(m))
	for k, v := range m {
		r.InsertUniqueUnchecked(k, v)
	}
	return r
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.keyToPos.Len()
}

// IsEmpty reports whether the map contains no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.Len() == 0
}

// IndexLen returns the length of the index space: one more than the
// largest index for which GetByIndex may return a value. It is at least
// Len and equals Len exactly after ForceCompact, Clear, or on a fresh map.
func (m *Map[K, V]) IndexLen() int {
	return m.storage.len()
}

// Capacity returns the number of values the slot array can hold without
// reallocating.
func (m *Map[K, V]) Capacity() int {
	return m.storage.capacity()
}

// Reserve grows the slot array so that additional more values can be
// inserted without reallocating. Free slots count toward the reserve.
func (m *Map[K, V]) Reserve(additional int) {
	m.storage.reserve(additional)
}

// ShrinkToFit reduces the slot array's capacity to its length.
func (m *Map[K, V]) ShrinkToFit() {
	m.storage.shrinkToFit()
}

// Insert inserts an entry into the map. If an entry with the same key
// already exists, its value is overwritten in place and the previous value
// is returned; the key's index is untouched.
func (m *Map[K, V]) Insert(key K, value V) (prev V, replaced bool) {
	if p, ok := m.keyToPos.Get(key); ok {
		v := m.storage.getUnchecked(p)
		prev, *v = *v, value
		return prev, true
	}
	m.keyToPos.Put(key, m.storage.insert(value))
	m.checkInvariants()
	return prev, false
}

// InsertUniqueUnchecked inserts an entry known not to be in the map,
// skipping the presence probe, and returns a pointer to the inserted
// value. If the key is in fact present, the map leaks the key's old slot
// and subsequent operations may return arbitrary results, though memory
// safety is never violated.
func (m *Map[K, V]) InsertUniqueUnchecked(key K, value V) *V {
	p := m.storage.insert(value)
	m.keyToPos.Put(key, p)
	return m.storage.getUnchecked(p)
}

// Get retrieves the value for the specified key, returning ok=false if the
// key is not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	p, ok := m.keyToPos.Get(key)
	if !ok {
		return value, false
	}
	return *m.storage.getUnchecked(p), true
}

// GetMut returns a pointer to the value for the specified key, or nil if
// the key is not present. The pointer is invalidated by any subsequent
// mutation of the map.
func (m *Map[K, V]) GetMut(key K) *V {
	p, ok := m.keyToPos.Get(key)
	if !ok {
		return nil
	}
	return m.storage.getUnchecked(p)
}

// GetKeyValue retrieves the key and value for the specified key.
func (m *Map[K, V]) GetKeyValue(key K) (K, V, bool) {
	v, ok := m.Get(key)
	return key, v, ok
}

// GetKeyValueMut retrieves the key and a pointer to the value for the
// specified key.
func (m *Map[K, V]) GetKeyValueMut(key K) (K, *V, bool) {
	v := m.GetMut(key)
	return key, v, v != nil
}

// MustGet retrieves the value for the specified key and panics if the key
// is not present.
func (m *Map[K, V]) MustGet(key K) V {
	v, ok := m.Get(key)
	if !ok {
		panic(fmt.Sprintf("stablemap: key %v not present", key))
	}
	return v
}

// ContainsKey reports whether the map contains the specified key.
func (m *Map[K, V]) ContainsKey(key K) bool {
	_, ok := m.keyToPos.Get(key)
	return ok
}

// Remove removes the entry for the specified key, returning its value and
// whether the key was present. The key's index joins the free queue and
// will be handed to the lowest-index future insert.
func (m *Map[K, V]) Remove(key K) (value V, ok bool) {
	p, ok := m.keyToPos.Get(key)
	if !ok {
		return value, false
	}
	m.keyToPos.Delete(key)
	value = m.storage.takeUnchecked(p)
	m.checkInvariants()
	return value, true
}

// RemoveEntry removes the entry for the specified key, returning the key
// and value.
func (m *Map[K, V]) RemoveEntry(key K) (K, V, bool) {
	v, ok := m.Remove(key)
	return key, v, ok
}

// GetManyMut returns pointers to the values of the given keys, nil for
// keys that are not present. The pointers reference disjoint values and
// are all usable simultaneously; GetManyMut panics if two keys resolve to
// the same entry, since that indicates duplicate keys in the argument
// list.
func (m *Map[K, V]) GetManyMut(keys ...K) []*V {
	seen := make(map[int]K, len(keys))
	out := make([]*V, len(keys))
	for i, k := range keys {
		p, ok := m.keyToPos.Get(k)
		if !ok {
			continue
		}
		if prev, dup := seen[p.index()]; dup {
			panic(fmt.Sprintf("stablemap: GetManyMut called with overlapping keys %v and %v", prev, k))
		}
		seen[p.index()] = k
		out[i] = m.storage.getUnchecked(p)
	}
	return out
}

// GetManyUncheckedMut is GetManyMut without the duplicate-key check. The
// caller must guarantee that the keys are pairwise distinct; otherwise two
// of the returned pointers alias the same value.
func (m *Map[K, V]) GetManyUncheckedMut(keys ...K) []*V {
	out := make([]*V, len(keys))
	for i, k := range keys {
		if p, ok := m.keyToPos.Get(k); ok {
			out[i] = m.storage.getUnchecked(p)
		}
	}
	return out
}

// GetManyKeyValueMut is GetManyMut returning the matched keys alongside
// the value pointers. keys[i] in the result is meaningful only where
// values[i] is non-nil.
func (m *Map[K, V]) GetManyKeyValueMut(keys ...K) ([]K, []*V) {
	return keys, m.GetManyMut(keys...)
}

// GetManyKeyValueUncheckedMut is GetManyKeyValueMut without the
// duplicate-key check.
func (m *Map[K, V]) GetManyKeyValueUncheckedMut(keys ...K) ([]K, []*V) {
	return keys, m.GetManyUncheckedMut(keys...)
}

// GetIndex returns the index that the key maps to. As long as the key is
// not removed, the index changes only across Compact, ForceCompact, and
// Clear. The index can be used with GetByIndex and GetByIndexMut.
func (m *Map[K, V]) GetIndex(key K) (int, bool) {
	p, ok := m.keyToPos.Get(key)
	if !ok {
		return 0, false
	}
	return p.index(), true
}

// GetByIndex returns the value at the given index. It returns ok=true if
// and only if some key currently maps to the index; out-of-range and freed
// indices report false.
func (m *Map[K, V]) GetByIndex(index int) (value V, ok bool) {
	v, ok := m.storage.get(index)
	if !ok {
		return value, false
	}
	return *v, true
}

// GetByIndexMut returns a pointer to the value at the given index, or nil
// if no key currently maps to it.
func (m *Map[K, V]) GetByIndexMut(index int) *V {
	v, _ := m.storage.get(index)
	return v
}

// GetByIndexUnchecked returns the value at the given index without bounds
// or occupancy checks. Some key must currently map to the index.
func (m *Map[K, V]) GetByIndexUnchecked(index int) V {
	return *m.storage.getUncheckedRaw(index)
}

// GetByIndexUncheckedMut returns a pointer to the value at the given index
// without bounds or occupancy checks. Some key must currently map to the
// index.
func (m *Map[K, V]) GetByIndexUncheckedMut(index int) *V {
	return m.storage.getUncheckedRaw(index)
}

// Compact removes indices for which GetByIndex would report absent. It
// does nothing while no more than max(IndexLen/2, 8) indices are free.
// Compacting changes the indices of relocated keys.
func (m *Map[K, V]) Compact() {
	m.storage.compact()
	m.checkInvariants()
}

// ForceCompact unconditionally removes all free indices. Afterwards
// IndexLen equals Len and the live keys occupy exactly the indices
// 0..Len.
func (m *Map[K, V]) ForceCompact() {
	m.storage.forceCompact()
	m.checkInvariants()
}

// Clear removes all entries. The index space is reset: IndexLen becomes 0
// and all previously observed indices are meaningless. Capacity is
// retained.
func (m *Map[K, V]) Clear() {
	// Index first. Clearing storage invalidates every position the index
	// still references.
	m.keyToPos.Clear()
	m.storage.clear()
	m.checkInvariants()
}

// Close releases the hash index's memory back to its allocator. It is
// invalid to use the Map after it has been closed.
func (m *Map[K, V]) Close() {
	m.keyToPos.Close()
}

func (m *Map[K, V]) checkInvariants() {
	if !invariants {
		return
	}
	if m.Len() > m.IndexLen() {
		panic(fmt.Sprintf("invariant failed: len %d exceeds index len %d", m.Len(), m.IndexLen()))
	}
	seen := make(map[int]struct{}, m.Len())
	m.keyToPos.All(func(k K, p pos) bool {
		if p.c.tag != m.storage.values.tag {
			panic(fmt.Sprintf("invariant failed: key %v holds a stale position (tag %d, current %d)",
				k, p.c.tag, m.storage.values.tag))
		}
		s := &m.storage.values.values[p.index()]
		if !s.occupied {
			panic(fmt.Sprintf("invariant failed: key %v references empty slot %d", k, p.index()))
		}
		if s.pos.c != p.c {
			panic(fmt.Sprintf("invariant failed: key %v and slot %d reference different cells", k, p.index()))
		}
		if _, dup := seen[p.index()]; dup {
			panic(fmt.Sprintf("invariant failed: slot %d referenced by multiple keys", p.index()))
		}
		seen[p.index()] = struct{}{}
		return true
	})
	m.storage.checkInvariants()
}
