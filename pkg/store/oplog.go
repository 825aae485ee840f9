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

import (
	"sync"
	"time"
)

// opLogCapacity bounds the ring buffer of recent operations.
const opLogCapacity = 10

// Op is one sanitized operation record for bug reports: nothing in it may
// carry data values, filesystem paths, or connection strings.
type Op struct {
	Tool       string    `json:"tool"`
	Outcome    string    `json:"outcome"` // "ok" or an error code
	DurationMs int64     `json:"durationMs"`
	At         time.Time `json:"at"`
}

// OpLog is a fixed-size ring of recent operations.
type OpLog struct {
	mu      sync.Mutex
	entries []Op
	next    int
	full    bool
}

// NewOpLog creates an empty operation log.
func NewOpLog() *OpLog {
	return &OpLog{
		entries: make([]Op, opLogCapacity),
	}
}

// Record appends an operation, overwriting the oldest when full.
func (l *OpLog) Record(op Op) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = op
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// Recent returns the logged operations, oldest first.
func (l *OpLog) Recent() []Op {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		out := make([]Op, l.next)
		copy(out, l.entries[:l.next])
		return out
	}

	out := make([]Op, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	out = append(out, l.entries[:l.next]...)
	return out
}

// Clear empties the log.
func (l *OpLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make([]Op, opLogCapacity)
	l.next = 0
	l.full = false
}
