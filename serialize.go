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

import "encoding/json"

// MarshalJSON encodes the map as an ordinary key-to-value JSON object. The
// index layout is not part of the representation.
func (m *Map[K, V]) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToMap())
}

// UnmarshalJSON replaces the map's entries with those of a JSON object.
// Entries are rebuilt through ordinary inserts, so indices are assigned
// densely and do not reflect the layout the source map had when it was
// encoded. Unmarshaling into a zero Map is supported.
func (m *Map[K, V]) UnmarshalJSON(data []byte) error {
	var entries map[K]V
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	if m.keyToPos == nil {
		m.keyToPos = newIndex[K](len(entries), nil)
		m.storage = newLinearStorage[V](len(entries))
	} else {
		m.Clear()
	}
	for k, v := range entries {
		m.InsertUniqueUnchecked(k, v)
	}
	m.checkInvariants()
	return nil
}
