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
	"io"
	"strconv"
	"testing"
	"unsafe"

	"github.com/aclements/go-perfevent/perfbench"
)

func BenchmarkMapIter(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapIter[int64], genKeys[int64]))
	})
	b.Run("impl=stableMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkStableMapIter[int64], genKeys[int64]))
	})
	b.Run("impl=stableMapByIndex", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkStableMapIterByIndex[int64], genKeys[int64]))
	})
}

func BenchmarkMapGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapGetHit[int64], genKeys[int64]))
		b.Run("t=String", benchSizes(benchmarkRuntimeMapGetHit[string], genKeys[string]))
	})
	b.Run("impl=stableMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkStableMapGetHit[int64], genKeys[int64]))
		b.Run("t=String", benchSizes(benchmarkStableMapGetHit[string], genKeys[string]))
	})
}

func BenchmarkMapGetMiss(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapGetMiss[int64], genKeys[int64]))
	})
	b.Run("impl=stableMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkStableMapGetMiss[int64], genKeys[int64]))
	})
}

func BenchmarkMapGetByIndex(b *testing.B) {
	b.Run("t=Int64", benchSizes(benchmarkStableMapGetByIndex[int64], genKeys[int64]))
}

func BenchmarkMapPutGrow(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapPutGrow[int64], genKeys[int64]))
		b.Run("t=String", benchSizes(benchmarkRuntimeMapPutGrow[string], genKeys[string]))
	})
	b.Run("impl=stableMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkStableMapPutGrow[int64], genKeys[int64]))
		b.Run("t=String", benchSizes(benchmarkStableMapPutGrow[string], genKeys[string]))
	})
}

func BenchmarkMapPutDelete(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapPutDelete[int64], genKeys[int64]))
	})
	b.Run("impl=stableMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkStableMapPutDelete[int64], genKeys[int64]))
	})
}

func BenchmarkMapCompact(b *testing.B) {
	b.Run("t=Int64", benchSizes(benchmarkStableMapCompact[int64], genKeys[int64]))
}

type benchTypes interface {
	int64 | string
}

func benchSizes[T benchTypes](
	f func(b *testing.B, n int, genKeys func(start, end int) []T), genKeys func(start, end int) []T,
) func(*testing.B) {
	var cases = []int{
		6, 12, 18, 24, 30,
		64,
		128,
		256,
		512,
		1024,
		2048,
		4096,
		8192,
		1 << 16,
	}

	return func(b *testing.B) {
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n, genKeys) })
		}
	}
}

func genKeys[T benchTypes](start, end int) []T {
	var t T
	switch any(t).(type) {
	case int64:
		keys := make([]int64, end-start)
		for i := range keys {
			keys[i] = int64(start + i)
		}
		return unsafeConvertSlice[T](keys)
	case string:
		keys := make([]string, end-start)
		for i := range keys {
			keys[i] = strconv.Itoa(start + i)
		}
		return unsafeConvertSlice[T](keys)
	default:
		panic("not reached")
	}
}

func unsafeConvertSlice[Dest any, Src any](src []Src) []Dest {
	return *(*[]Dest)(unsafe.Pointer(&src))
}

func benchmarkRuntimeMapIter[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	m := make(map[T]int, n)
	keys := genKeys(0, n)
	for i, k := range keys {
		m[k] = i
	}
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		for _, v := range m {
			tmp += v
		}
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, tmp)
}

func benchmarkStableMapIter[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	m := New[T, int](n)
	keys := genKeys(0, n)
	for i, k := range keys {
		m.Insert(k, i)
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		m.All(func(k T, v int) bool {
			tmp += v
			return true
		})
	}
	b.StopTimer()
	cs.Stop()
	fmt.Fprint(io.Discard, tmp)
}

func benchmarkStableMapIterByIndex[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := New[T, int](n)
	keys := genKeys(0, n)
	for i, k := range keys {
		m.Insert(k, i)
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		for j, l := 0, m.IndexLen(); j < l; j++ {
			if v, ok := m.GetByIndex(j); ok {
				tmp += v
			}
		}
	}
	b.StopTimer()
	cs.Stop()
	fmt.Fprint(io.Discard, tmp)
}

func benchmarkRuntimeMapGetHit[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := make(map[T]T, n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m[k] = k
	}

	// Go's builtin map has an optimization to avoid string comparisons if
	// there is pointer equality. Defeat this optimization to get a better
	// apples-to-apples comparison. This is reasonable to do because looking
	// up a value by a string key which shares the underlying string data with
	// the element in the map is a rare pattern.
	keys = genKeys(0, n)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[keys[i&(n-1)]]
	}
}

func benchmarkStableMapGetHit[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := New[T, T](n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m.Insert(k, k)
	}
	keys = genKeys(0, n)

	cs := perfbench.Open(b)
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m.Get(keys[i&(n-1)])
	}
	b.StopTimer()
	cs.Stop()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkRuntimeMapGetMiss[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := make(map[T]T)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[miss[i%len(miss)]]
	}
}

func benchmarkStableMapGetMiss[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := New[T, T](0)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for _, k := range keys {
		m.Insert(k, k)
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m.Get(miss[i%len(miss)])
	}
	b.StopTimer()
	cs.Stop()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkStableMapGetByIndex[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := New[T, int](n)
	keys := genKeys(0, n)
	for i, k := range keys {
		m.Insert(k, i)
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	var tmp int
	for i := 0; i < b.N; i++ {
		tmp += m.GetByIndexUnchecked(i & (n - 1))
	}
	b.StopTimer()
	cs.Stop()
	fmt.Fprint(io.Discard, tmp)
}

func benchmarkRuntimeMapPutGrow[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := make(map[T]T)
		for _, k := range keys {
			m[k] = k
		}
	}
}

func benchmarkStableMapPutGrow[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	keys := genKeys(0, n)
	cs := perfbench.Open(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := New[T, T](0)
		for _, k := range keys {
			m.Insert(k, k)
		}
	}
	b.StopTimer()
	cs.Stop()
}

func benchmarkRuntimeMapPutDelete[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := make(map[T]T, n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i&(n-1)]
		delete(m, k)
		m[k] = k
	}
}

func benchmarkStableMapPutDelete[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := New[T, T](n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m.Insert(k, k)
	}
	cs := perfbench.Open(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i&(n-1)]
		m.Remove(k)
		m.Insert(k, k)
	}
	b.StopTimer()
	cs.Stop()
}

func benchmarkStableMapCompact[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	keys := genKeys(0, n)
	cs := perfbench.Open(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		m := New[T, T](n)
		for _, k := range keys {
			m.Insert(k, k)
		}
		for j := 0; j < len(keys); j += 2 {
			m.Remove(keys[j])
		}
		b.StartTimer()
		m.ForceCompact()
	}
	b.StopTimer()
	cs.Stop()
}
