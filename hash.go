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

import "github.com/cespare/xxhash/v2"

// HashString hashes a string key with xxhash, mixing in the per-map seed.
// It has the signature expected by WithHash for maps with string keys:
//
//	m := stablemap.New[string, int](0, stablemap.WithHash[string, int](stablemap.HashString))
func HashString(key *string, seed uintptr) uintptr {
	var d xxhash.Digest
	d.ResetWithSeed(uint64(seed))
	_, _ = d.WriteString(*key)
	return uintptr(d.Sum64())
}
