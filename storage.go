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

// linearStorage wraps a posVec with a min-ordered free queue and a
// reuse-before-grow policy: insert pops the smallest free position if one
// exists and only grows the array otherwise.
type linearStorage[V any] struct {
	values posVec[V]
	free   freeList
}

func newLinearStorage[V any](capacity int) linearStorage[V] {
	return linearStorage[V]{
		values: newPosVec[V](capacity),
	}
}

// len returns the length of the slot array, including empty slots.
func (s *linearStorage[V]) len() int {
	return s.values.len()
}

func (s *linearStorage[V]) capacity() int {
	return s.values.capacity()
}

func (s *linearStorage[V]) freeCount() int {
	return s.free.len()
}

// insert stores a value, reusing the smallest free position if there is
// one, and returns the external view of the value's position.
func (s *linearStorage[V]) insert(value V) pos {
	f, ok := s.free.popMin()
	if !ok {
		f = s.values.createPos()
	}
	return s.values.store(f, value)
}

// takeUnchecked removes the value referenced by x and returns the freed
// position to the queue. x must be a valid external position issued by this
// storage.
func (s *linearStorage[V]) takeUnchecked(x pos) V {
	v, f := s.values.takeUnchecked(x)
	s.free.push(f)
	return v
}

// compact is a no-op unless more than max(len/2, 8) slots are free. The
// threshold avoids O(n) relocation churn for light fragmentation.
func (s *linearStorage[V]) compact() {
	if s.free.len() <= max(s.values.len()/2, 8) {
		return
	}
	s.forceCompact()
}

// forceCompact unconditionally drains the free queue into the compaction
// walk. Afterwards the slot array length equals the occupied count.
func (s *linearStorage[V]) forceCompact() {
	s.values.compact(s.free.popMin)
	s.free.clear()
}

// clear invalidates the whole generation: new tag, truncated array, empty
// free queue. The caller must discard every external position it holds.
func (s *linearStorage[V]) clear() {
	s.values.clear()
	s.free.clear()
}

// reserve grows the slot array for additional more values, counting free
// slots as already-available space.
func (s *linearStorage[V]) reserve(additional int) {
	s.values.reserve(max(additional-s.free.len(), 0))
}

func (s *linearStorage[V]) shrinkToFit() {
	s.values.shrinkToFit()
}

func (s *linearStorage[V]) get(idx int) (*V, bool) {
	return s.values.get(idx)
}

func (s *linearStorage[V]) getUnchecked(x pos) *V {
	return s.values.getUnchecked(x)
}

func (s *linearStorage[V]) getUncheckedRaw(idx int) *V {
	return s.values.getUncheckedRaw(idx)
}

func (s *linearStorage[V]) checkInvariants() {
	if !invariants {
		return
	}
	seen := make(map[int]struct{}, s.free.len())
	for _, f := range s.free.h {
		if f.c.tag != s.values.tag {
			panic(fmt.Sprintf("invariant failed: free position with stale tag %d", f.c.tag))
		}
		if uint(f.index()) >= uint(s.values.len()) {
			panic(fmt.Sprintf("invariant failed: free position %d out of bounds (len %d)",
				f.index(), s.values.len()))
		}
		if s.values.values[f.index()].occupied {
			panic(fmt.Sprintf("invariant failed: free position %d references an occupied slot", f.index()))
		}
		if _, ok := seen[f.index()]; ok {
			panic(fmt.Sprintf("invariant failed: duplicate free position %d", f.index()))
		}
		seen[f.index()] = struct{}{}
	}
}
