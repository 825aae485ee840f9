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
package transform

import (
	"fmt"
	"strings"
)

// ParseError reports invalid expression syntax with the character offset
// where it was detected.
type ParseError struct {
	Position int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}

// CycleError reports a circular column dependency. Path starts and ends at
// the same column.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " → "))
}

// EvalError reports a problem detected while preparing or running an
// evaluation, such as a bad argument count or a non-column argument to a
// column-wise function. Per-row domain errors never raise; they produce
// nulls.
type EvalError struct {
	Message string
}

func (e *EvalError) Error() string {
	return e.Message
}

// UnknownColumnError reports a reference to a column that does not exist,
// with a nearest-name suggestion when one is close enough.
type UnknownColumnError struct {
	Column     string
	Suggestion string
	Available  []string
}

func (e *UnknownColumnError) Error() string {
	msg := fmt.Sprintf("unknown column %q", e.Column)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	if len(e.Available) > 0 {
		msg += fmt.Sprintf("; available columns: %s", strings.Join(e.Available, ", "))
	}
	return msg
}
