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

import (
	"fmt"
	"slices"
	"unsafe"
)

// slot is one cell of the backing array: either empty or occupied by a
// value plus the stored view of the value's position pair.
type slot[V any] struct {
	occupied bool
	pos      storedPos
	value    V
}

// posVec is a sparse, generation-stamped array of slots. A slot's array
// index is its current logical position. Positions returned by createPos
// and store can be passed back in for unchecked access; clear invalidates
// all of them at once by bumping the generation tag.
//
// The following invariants hold between calls:
//
//   - The storedPos in each occupied slot reads as the slot's index.
//   - Every valid external pos corresponds to a storedPos in some occupied
//     slot and both alias the same cell.
//   - Every valid freePos references an empty slot within bounds.
//   - Every valid position carries the current tag.
type posVec[V any] struct {
	tag    tag
	values []slot[V]
}

func newPosVec[V any](capacity int) posVec[V] {
	return posVec[V]{
		tag:    nextTag(),
		values: make([]slot[V], 0, capacity),
	}
}

func (p *posVec[V]) len() int {
	return len(p.values)
}

func (p *posVec[V]) capacity() int {
	return cap(p.values)
}

func (p *posVec[V]) reserve(additional int) {
	p.values = slices.Grow(p.values, additional)
}

func (p *posVec[V]) shrinkToFit() {
	if cap(p.values) > len(p.values) {
		p.values = append(make([]slot[V], 0, len(p.values)), p.values...)
	}
}

func (p *posVec[V]) checkTag(t tag) {
	if t != p.tag {
		panic(fmt.Sprintf("stablemap: position used across clear (tag %d, current %d)", t, p.tag))
	}
}

// createPos appends an empty slot and returns a free position referencing
// it. The new index is the array length before the append, so no live
// position of this generation can share it.
func (p *posVec[V]) createPos() freePos {
	f := freePos{&posCell{tag: p.tag, idx: len(p.values)}}
	p.values = append(p.values, slot[V]{})
	return f
}

// store writes value into the slot referenced by f, consuming f, and
// returns the external view of the now-occupied position. f must have been
// issued by this posVec in its current generation.
func (p *posVec[V]) store(f freePos, value V) pos {
	p.checkTag(f.c.tag)
	ext, stored := f.activate()
	s := &p.values[ext.index()]
	if invariants && s.occupied {
		panic(fmt.Sprintf("stablemap: storing into occupied slot %d", ext.index()))
	}
	s.occupied = true
	s.pos = stored
	s.value = value
	return ext
}

// takeUnchecked removes the value referenced by x, deactivates the pair and
// returns a fresh free position at the same index. x must be a valid
// external position issued by this posVec.
func (p *posVec[V]) takeUnchecked(x pos) (V, freePos) {
	p.checkTag(x.c.tag)
	s := makeUnsafeSlice(p.values).At(uintptr(x.index()))
	value := s.value
	f := deactivate(x, s.pos)
	*s = slot[V]{}
	return value, f
}

// get returns a pointer to the value at a numeric index, bounds-checked and
// independent of handle provenance. Unlike access through a pos, the value
// returned for a given index is affected by compact.
func (p *posVec[V]) get(idx int) (*V, bool) {
	if uint(idx) >= uint(len(p.values)) || !p.values[idx].occupied {
		return nil, false
	}
	return &p.values[idx].value, true
}

// getUnchecked dereferences through the position without a bounds check. x
// must be a valid external position issued by this posVec.
func (p *posVec[V]) getUnchecked(x pos) *V {
	p.checkTag(x.c.tag)
	return &makeUnsafeSlice(p.values).At(uintptr(x.index())).value
}

// getUncheckedRaw returns the value at a numeric index without a bounds or
// occupancy check. There must be a valid external position with this index.
func (p *posVec[V]) getUncheckedRaw(idx int) *V {
	return &makeUnsafeSlice(p.values).At(uintptr(idx)).value
}

// compact closes index gaps by moving occupied slots from the tail of the
// array into free positions, in ascending free-index order. nextFree must
// yield valid free positions issued by this posVec, smallest index first.
// Every free position becomes invalid once compact returns, whether it was
// yielded or not.
func (p *posVec[V]) compact(nextFree func() (freePos, bool)) {
outer:
	for {
		free, ok := nextFree()
		if !ok {
			break
		}
		p.checkTag(free.c.tag)
		for len(p.values) > 0 {
			last := p.values[len(p.values)-1]
			p.values = p.values[:len(p.values)-1]
			if !last.occupied {
				continue
			}
			if free.index() >= len(p.values) {
				// The hole is at or beyond the shrunk bound; the array
				// cannot shrink past this occupied slot.
				p.values = append(p.values, last)
				break outer
			}
			idx := last.pos.relocate(free)
			p.values[idx] = last
			continue outer
		}
	}
	if invariants {
		for i := range p.values {
			if !p.values[i].occupied {
				panic(fmt.Sprintf("stablemap: slot %d still empty after compaction", i))
			}
		}
	}
}

// clear bumps the generation and truncates the array. All previously issued
// positions become permanently invalid; the composing layer must discard
// every reference to them before reuse.
func (p *posVec[V]) clear() {
	p.tag = nextTag()
	clear(p.values)
	p.values = p.values[:0]
}

// unsafeSlice provides semi-ergonomic limited slice-like functionality
// without bounds checking for fixed sized slices.
type unsafeSlice[T any] struct {
	ptr unsafe.Pointer
}

func makeUnsafeSlice[T any](s []T) unsafeSlice[T] {
	return unsafeSlice[T]{ptr: unsafe.Pointer(unsafe.SliceData(s))}
}

// At returns a pointer to the element at index i.
func (s unsafeSlice[T]) At(i uintptr) *T {
	var t T
	return (*T)(unsafe.Add(s.ptr, unsafe.Sizeof(t)*i))
}
