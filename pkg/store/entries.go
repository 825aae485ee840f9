// Copyright 2026 Dolex Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package store

import "time"

// QueryResult is one cached query result. Rows are held verbatim;
// callers outside the store see only the qr- handle.
type QueryResult struct {
	Rows      []map[string]interface{} `json:"rows"`
	Columns   []string                 `json:"columns"`
	TotalRows int                      `json:"totalRows"`
	Truncated bool                     `json:"truncated"`
	CreatedAt time.Time                `json:"createdAt"`
}

// SpecEntry is one stored visualization spec plus its ranked alternatives.
// The payloads are opaque to the store.
type SpecEntry struct {
	Spec         interface{}   `json:"spec"`
	Alternatives []interface{} `json:"alternatives,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// NewResultCache creates the qr- result cache.
func NewResultCache() *Store[*QueryResult] {
	return New[*QueryResult]("qr-", DefaultCapacity)
}

// NewSpecStore creates the spec- spec store.
func NewSpecStore() *Store[*SpecEntry] {
	return New[*SpecEntry]("spec-", DefaultCapacity)
}
