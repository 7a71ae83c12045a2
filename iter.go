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

type kvPair[K comparable, V any] struct {
	key   K
	value V
}

// All calls yield sequentially for each key and value present in the map,
// in unspecified order. If yield returns false, iteration stops. The map
// must not be mutated during iteration.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	m.keyToPos.All(func(k K, p pos) bool {
		return yield(k, *m.storage.getUnchecked(p))
	})
}

// AllMut is All with a mutable pointer to each value. The pointers are
// invalidated when iteration advances past mutations of the map, so they
// must not be retained beyond the yield call.
func (m *Map[K, V]) AllMut(yield func(key K, value *V) bool) {
	m.keyToPos.All(func(k K, p pos) bool {
		return yield(k, m.storage.getUnchecked(p))
	})
}

// Keys calls yield for each key in the map, in unspecified order.
func (m *Map[K, V]) Keys(yield func(key K) bool) {
	m.keyToPos.All(func(k K, _ pos) bool {
		return yield(k)
	})
}

// Values calls yield for each value in the map, in unspecified order.
func (m *Map[K, V]) Values(yield func(value V) bool) {
	m.keyToPos.All(func(_ K, p pos) bool {
		return yield(*m.storage.getUnchecked(p))
	})
}

// ValuesMut is Values with a mutable pointer to each value.
func (m *Map[K, V]) ValuesMut(yield func(value *V) bool) {
	m.keyToPos.All(func(_ K, p pos) bool {
		return yield(m.storage.getUnchecked(p))
	})
}

// Drain removes every entry from the map, calling yield for each removed
// pair in unspecified order. The map is empty when Drain returns even if
// yield stops the iteration early.
func (m *Map[K, V]) Drain(yield func(key K, value V) bool) {
	pairs := make([]kvPair[K, V], 0, m.Len())
	m.All(func(k K, v V) bool {
		pairs = append(pairs, kvPair[K, V]{k, v})
		return true
	})
	m.Clear()
	for _, p := range pairs {
		if !yield(p.key, p.value) {
			return
		}
	}
}

// ExtractIf visits every entry, removes those for which pred returns true
// and hands each removed pair to yield. Removal happens before the yield
// call, so if yield stops the iteration early, pairs already yielded are
// gone from the map while unvisited entries are retained. pred must not
// mutate the map; yield may not re-enter it either.
func (m *Map[K, V]) ExtractIf(pred func(key K, value *V) bool, yield func(key K, value V) bool) {
	keys := make([]K, 0, m.Len())
	m.keyToPos.All(func(k K, _ pos) bool {
		keys = append(keys, k)
		return true
	})
	for _, k := range keys {
		p, ok := m.keyToPos.Get(k)
		if !ok {
			continue
		}
		if !pred(k, m.storage.getUnchecked(p)) {
			continue
		}
		m.keyToPos.Delete(k)
		v := m.storage.takeUnchecked(p)
		if !yield(k, v) {
			break
		}
	}
	m.checkInvariants()
}

// Retain removes every entry for which pred returns false. Slots are freed
// as part of the pass.
func (m *Map[K, V]) Retain(pred func(key K, value *V) bool) {
	m.ExtractIf(
		func(k K, v *V) bool { return !pred(k, v) },
		func(K, V) bool { return true },
	)
}

// ToMap returns the entries as a builtin map[K]V.
func (m *Map[K, V]) ToMap() map[K]V {
	r := make(map[K]V, m.Len())
	m.All(func(k K, v V) bool {
		r[k] = v
		return true
	})
	return r
}

// Clone returns a map with the same entries and hash function. The clone
// is built by reinserting the live pairs, so it is freshly compacted: its
// IndexLen equals its Len regardless of the receiver's index layout.
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := &Map[K, V]{
		keyToPos: newIndex[K](m.Len(), m.hash),
		storage:  newLinearStorage[V](m.Len()),
		hash:     m.hash,
	}
	m.All(func(k K, v V) bool {
		c.InsertUniqueUnchecked(k, v)
		return true
	})
	return c
}

// Equal reports whether two maps contain the same set of key/value pairs.
// The index layouts are ignored: a compacted map and a fragmented map with
// the same entries are equal.
func Equal[K, V comparable](a, b *Map[K, V]) bool {
	return EqualFunc(a, b, func(x, y V) bool { return x == y })
}

// EqualFunc is Equal with a user-supplied value comparison.
func EqualFunc[K comparable, V1, V2 any](a *Map[K, V1], b *Map[K, V2], eq func(V1, V2) bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.All(func(k K, v V1) bool {
		w, ok := b.Get(k)
		if !ok || !eq(v, w) {
			equal = false
			return false
		}
		return true
	})
	return equal
}
