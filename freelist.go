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

import "container/heap"

// Compile time check to ensure freeHeap satisfies the heap interface.
var _ heap.Interface = (*freeHeap)(nil)

// freeHeap is a min-heap of free positions ordered by index ascending.
type freeHeap []freePos

func (h freeHeap) Len() int { return len(h) }

func (h freeHeap) Less(i, j int) bool { return h[i].index() < h[j].index() }

func (h freeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *freeHeap) Push(x any) {
	*h = append(*h, x.(freePos))
}

func (h *freeHeap) Pop() any {
	old := *h
	n := len(old)
	f := old[n-1]
	old[n-1] = freePos{} // Avoid memory leak
	*h = old[:n-1]
	return f
}

// freeList is a min-ordered queue of reusable slot positions. It holds only
// valid free positions of the owning storage's current generation, without
// duplicates.
type freeList struct {
	h freeHeap
}

func (l *freeList) push(f freePos) {
	heap.Push(&l.h, f)
}

// popMin removes and returns the free position with the smallest index.
func (l *freeList) popMin() (freePos, bool) {
	if len(l.h) == 0 {
		return freePos{}, false
	}
	return heap.Pop(&l.h).(freePos), true
}

func (l *freeList) len() int {
	return len(l.h)
}

func (l *freeList) clear() {
	clear(l.h)
	l.h = l.h[:0]
}
