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
	"sync/atomic"
)

// tag identifies one generation of a posVec. Every position handle carries
// the tag of the posVec generation that issued it. Clearing a posVec bumps
// its tag which invalidates all previously issued handles at once.
type tag uint64

var tagCounter atomic.Uint64

func nextTag() tag {
	return tag(tagCounter.Add(1))
}

// posCell is the mutable cell shared by the two views of an occupied
// position. Compaction rewrites idx through the stored view and every other
// view aliasing the cell observes the new index without any propagation
// step.
type posCell struct {
	tag tag
	idx int
}

// freePos references an unoccupied slot. It is produced by posVec.createPos
// or by deactivating an occupied pair, and is consumed by posVec.store. No
// occupied slot references its cell.
type freePos struct {
	c *posCell
}

// pos is the external view of an occupied slot. It is handed out as the
// hash index's value. It must not be used after the pair has been
// deactivated or after the issuing posVec has been cleared.
type pos struct {
	c *posCell
}

// storedPos is the internal view of an occupied slot. It lives inside the
// slot itself and is the only view that may rewrite the cell's index.
type storedPos struct {
	c *posCell
}

func (f freePos) index() int {
	return f.c.idx
}

// activate splits a free position into the (external, stored) pair. Both
// views alias the free position's cell.
func (f freePos) activate() (pos, storedPos) {
	return pos{f.c}, storedPos{f.c}
}

func (p pos) index() int {
	return p.c.idx
}

// deactivate recombines an occupied pair into a free position at the pair's
// current index. p and s must be the two views returned by the same
// activate call.
func deactivate(p pos, s storedPos) freePos {
	if p.c != s.c {
		panic("stablemap: deactivating position views from different pairs")
	}
	return freePos{p.c}
}

// relocate points the pair at the index of the free position f, consuming
// f. The paired external view reads the new index from then on.
func (s storedPos) relocate(f freePos) int {
	if s.c.tag != f.c.tag {
		panic(fmt.Sprintf("stablemap: relocating across generations (%d vs %d)", s.c.tag, f.c.tag))
	}
	s.c.idx = f.c.idx
	return s.c.idx
}
