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
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/dolex-labs/dolex/internal/log"
)

var columnNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Spec describes one requested transform.
type Spec struct {
	Create      string  `json:"create"`
	Expr        string  `json:"expr"`
	PartitionBy string  `json:"partitionBy,omitempty"`
	Filter      *Filter `json:"filter,omitempty"`
}

// Outcome reports one applied transform.
type Outcome struct {
	Column   string    `json:"column"`
	Type     string    `json:"type"`
	Layer    Layer     `json:"layer"`
	Shadowed bool      `json:"shadowed,omitempty"` // a derived column of the same name is masked
	Stats    EvalStats `json:"stats"`
	Warnings []string  `json:"warnings,omitempty"`
}

// DropOutcome reports the result of a drop request.
type DropOutcome struct {
	Dropped  []string `json:"dropped"`
	Restored []string `json:"restored,omitempty"` // derived columns whose values came back
}

// Pipeline orchestrates transforms for one table: parse, validate, cycle
// check, evaluate, write, record. A failing batch rolls back every change it
// made, in reverse order, and surfaces the first error.
type Pipeline struct {
	cols         *ColumnManager
	meta         *Metadata
	manifestPath string // "" disables persistence
	sourceCols   map[string]bool
}

// NewPipeline creates a pipeline over a table. sourceColumns is the table's
// column set before any transform ran; those names can never be created,
// overwritten, or dropped.
func NewPipeline(cols *ColumnManager, meta *Metadata, manifestPath string, sourceColumns []string) *Pipeline {
	src := make(map[string]bool, len(sourceColumns))
	for _, c := range sourceColumns {
		src[strings.ToLower(c)] = true
	}
	return &Pipeline{
		cols:         cols,
		meta:         meta,
		manifestPath: manifestPath,
		sourceCols:   src,
	}
}

// Metadata returns the pipeline's record store.
func (p *Pipeline) Metadata() *Metadata { return p.meta }

// IsSourceColumn reports whether name was present before any transform.
func (p *Pipeline) IsSourceColumn(name string) bool {
	return p.sourceCols[strings.ToLower(name)]
}

// rollback is one undo action. Actions run in reverse order, best effort:
// a failing undo is logged and the rest still run.
type rollback struct {
	desc string
	undo func(ctx context.Context) error
}

func runRollbacks(ctx context.Context, actions []rollback) {
	for i := len(actions) - 1; i >= 0; i-- {
		if err := actions[i].undo(ctx); err != nil {
			log.Warn("rollback action failed", zap.String("action", actions[i].desc), zap.Error(err))
		}
	}
}

// Apply runs a batch of transforms. On any failure every change already made
// by the batch is undone and the first error is returned.
func (p *Pipeline) Apply(ctx context.Context, specs []Spec) ([]*Outcome, error) {
	var actions []rollback
	outcomes := make([]*Outcome, 0, len(specs))

	for _, spec := range specs {
		out, acts, err := p.applyOne(ctx, spec)
		actions = append(actions, acts...)
		if err != nil {
			runRollbacks(ctx, actions)
			return nil, fmt.Errorf("transform %q: %w", spec.Create, err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// applyOne performs one transform and returns the rollback actions it
// accumulated, including those for partial work before a failure.
func (p *Pipeline) applyOne(ctx context.Context, spec Spec) (*Outcome, []rollback, error) {
	if err := ValidateColumnName(spec.Create); err != nil {
		return nil, nil, err
	}
	if p.IsSourceColumn(spec.Create) {
		return nil, nil, fmt.Errorf("column %q is a source column and cannot be redefined", spec.Create)
	}

	node, err := Parse(spec.Expr)
	if err != nil {
		return nil, nil, err
	}

	refs := ColumnRefs(node)
	if cycleErr := p.meta.CheckCycle(p.cols.Table(), spec.Create, refs); cycleErr != nil {
		return nil, nil, cycleErr
	}

	columns, rows, err := p.cols.ReadRows(ctx)
	if err != nil {
		return nil, nil, err
	}
	result, err := Evaluate(ctx, node, rows, columns, EvalOptions{
		PartitionBy: spec.PartitionBy,
		Filter:      spec.Filter,
	})
	if err != nil {
		return nil, nil, err
	}

	table := p.cols.Table()
	working, hasWorking := p.meta.Get(table, spec.Create, LayerWorking)
	_, hasDerived := p.meta.Get(table, spec.Create, LayerDerived)

	rec := &Record{
		Column:      spec.Create,
		Expression:  spec.Expr,
		Type:        result.Type,
		Layer:       LayerWorking,
		PartitionBy: spec.PartitionBy,
		Filter:      spec.Filter,
	}

	var actions []rollback
	switch {
	case !hasWorking && !hasDerived:
		if err := p.cols.AddColumn(ctx, spec.Create, result.Type, result.Values); err != nil {
			return nil, nil, err
		}
		actions = append(actions, rollback{
			desc: "drop added column " + spec.Create,
			undo: func(ctx context.Context) error { return p.cols.DropColumn(ctx, spec.Create) },
		})
		p.meta.Add(table, rec)
		actions = append(actions, rollback{
			desc: "remove working record " + spec.Create,
			undo: func(context.Context) error { p.meta.Remove(table, spec.Create, LayerWorking); return nil },
		})

	default:
		// Overwriting a working column, or shadowing a derived one: keep the
		// old values and record so a failure later in the batch restores them.
		oldValues, err := p.cols.ReadColumn(ctx, spec.Create)
		if err != nil {
			return nil, nil, err
		}
		if err := p.cols.OverwriteColumn(ctx, spec.Create, result.Values); err != nil {
			return nil, nil, err
		}
		actions = append(actions, rollback{
			desc: "restore values of column " + spec.Create,
			undo: func(ctx context.Context) error { return p.cols.OverwriteColumn(ctx, spec.Create, oldValues) },
		})
		oldWorking := working
		p.meta.Add(table, rec)
		actions = append(actions, rollback{
			desc: "restore working record " + spec.Create,
			undo: func(context.Context) error {
				p.meta.Remove(table, spec.Create, LayerWorking)
				if hasWorking {
					p.meta.Add(table, oldWorking)
				}
				return nil
			},
		})
	}

	return &Outcome{
		Column:   spec.Create,
		Type:     result.Type,
		Layer:    LayerWorking,
		Shadowed: hasDerived,
		Stats:    result.Stats,
		Warnings: result.Warnings,
	}, actions, nil
}

// Promote moves working records to the derived layer, overwriting any
// derived record of the same name, then rewrites the manifest. Returns the
// promoted names.
func (p *Pipeline) Promote(ctx context.Context, columns []string) ([]string, error) {
	table := p.cols.Table()

	if len(columns) == 1 && columns[0] == "*" {
		columns = nil
		for _, rec := range p.meta.List(table, LayerWorking) {
			columns = append(columns, rec.Column)
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no working columns to promote")
	}

	var promoted []string
	for _, name := range columns {
		rec, ok := p.meta.Get(table, name, LayerWorking)
		if !ok {
			return nil, fmt.Errorf("column %q has no working transform to promote", name)
		}
		derivedRec := *rec
		derivedRec.Layer = LayerDerived
		derivedRec.Order = 0 // Add assigns a fresh slot unless one exists
		p.meta.Add(table, &derivedRec)
		p.meta.Remove(table, name, LayerWorking)
		promoted = append(promoted, rec.Column)
	}

	if err := p.writeManifest(); err != nil {
		return nil, err
	}
	return promoted, nil
}

// Drop removes columns from one layer. Source columns are always rejected.
// A derived column with remaining dependents is rejected. Dropping a working
// column that shadows a derived one restores the derived values by
// re-evaluating its expression and removes only the working record.
func (p *Pipeline) Drop(ctx context.Context, columns []string, layer Layer) (*DropOutcome, error) {
	if layer != LayerWorking && layer != LayerDerived {
		return nil, fmt.Errorf("unknown layer %q", layer)
	}
	table := p.cols.Table()

	if len(columns) == 1 && columns[0] == "*" {
		columns = nil
		for _, rec := range p.meta.List(table, layer) {
			columns = append(columns, rec.Column)
		}
		if len(columns) == 0 {
			return &DropOutcome{}, nil
		}
	}

	out := &DropOutcome{}
	for _, name := range columns {
		if p.IsSourceColumn(name) {
			return nil, fmt.Errorf("column %q is a source column and cannot be dropped", name)
		}
		rec, ok := p.meta.Get(table, name, layer)
		if !ok {
			return nil, fmt.Errorf("no %s transform for column %q", layer, name)
		}

		switch layer {
		case LayerDerived:
			if deps := p.remainingDependents(name, columns); len(deps) > 0 {
				return nil, fmt.Errorf("column %q still has dependent columns: %s", name, strings.Join(deps, ", "))
			}
			_, shadowed := p.meta.Get(table, name, LayerWorking)
			if !shadowed {
				if err := p.cols.DropColumn(ctx, name); err != nil {
					return nil, err
				}
			}
			p.meta.Remove(table, name, LayerDerived)

		case LayerWorking:
			if derived, shadow := p.meta.Get(table, name, LayerDerived); shadow {
				if err := p.restoreDerived(ctx, derived); err != nil {
					return nil, fmt.Errorf("restoring derived column %q: %w", name, err)
				}
				out.Restored = append(out.Restored, rec.Column)
			} else {
				if err := p.cols.DropColumn(ctx, name); err != nil {
					return nil, err
				}
			}
			p.meta.Remove(table, name, LayerWorking)
		}
		out.Dropped = append(out.Dropped, rec.Column)
	}

	if layer == LayerDerived {
		if err := p.writeManifest(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// remainingDependents lists the columns depending on name that are not part
// of the same drop request.
func (p *Pipeline) remainingDependents(name string, dropping []string) []string {
	droppingSet := make(map[string]bool, len(dropping))
	for _, d := range dropping {
		droppingSet[strings.ToLower(d)] = true
	}
	var out []string
	for _, dep := range p.meta.Dependents(p.cols.Table(), name) {
		if !droppingSet[strings.ToLower(dep)] {
			out = append(out, dep)
		}
	}
	return out
}

// restoreDerived re-evaluates a derived record and writes its values back
// over the shadowing working column.
func (p *Pipeline) restoreDerived(ctx context.Context, rec *Record) error {
	node, err := Parse(rec.Expression)
	if err != nil {
		return err
	}
	columns, rows, err := p.cols.ReadRows(ctx)
	if err != nil {
		return err
	}
	result, err := Evaluate(ctx, node, rows, columns, EvalOptions{
		PartitionBy: rec.PartitionBy,
		Filter:      rec.Filter,
	})
	if err != nil {
		return err
	}
	return p.cols.OverwriteColumn(ctx, rec.Column, result.Values)
}

// Replay re-evaluates the manifest's derived columns in dependency order
// after a source reopens. Failures never block opening: the offending column
// and its dependents are skipped and reported as warnings.
func (p *Pipeline) Replay(ctx context.Context) []string {
	if p.manifestPath == "" {
		return nil
	}
	m, err := ReadManifest(p.manifestPath)
	if err != nil {
		return []string{err.Error()}
	}
	records := m.Records(p.cols.Table())
	if len(records) == 0 {
		return nil
	}

	ordered, err := p.meta.TopologicalSort(records)
	if err != nil {
		return []string{fmt.Sprintf("manifest replay skipped: %v", err)}
	}

	var warnings []string
	skipped := make(map[string]bool)
	for _, rec := range ordered {
		lower := strings.ToLower(rec.Column)
		blocked := ""
		for _, ref := range rec.refs() {
			if skipped[strings.ToLower(ref)] {
				blocked = ref
				break
			}
		}
		if blocked != "" {
			skipped[lower] = true
			warnings = append(warnings, fmt.Sprintf("column %q skipped: depends on skipped column %q", rec.Column, blocked))
			continue
		}
		if err := p.replayOne(ctx, rec); err != nil {
			skipped[lower] = true
			warnings = append(warnings, fmt.Sprintf("column %q failed to replay: %v", rec.Column, err))
			continue
		}
		p.meta.Add(p.cols.Table(), rec)
	}
	return warnings
}

func (p *Pipeline) replayOne(ctx context.Context, rec *Record) error {
	node, err := Parse(rec.Expression)
	if err != nil {
		return err
	}
	columns, rows, err := p.cols.ReadRows(ctx)
	if err != nil {
		return err
	}
	result, err := Evaluate(ctx, node, rows, columns, EvalOptions{
		PartitionBy: rec.PartitionBy,
		Filter:      rec.Filter,
	})
	if err != nil {
		return err
	}

	exists, err := p.cols.HasColumn(ctx, rec.Column)
	if err != nil {
		return err
	}
	if exists {
		return p.cols.OverwriteColumn(ctx, rec.Column, result.Values)
	}
	return p.cols.AddColumn(ctx, rec.Column, rec.Type, result.Values)
}

func (p *Pipeline) writeManifest() error {
	if p.manifestPath == "" {
		return nil
	}
	return WriteManifest(p.manifestPath, p.cols.Table(), p.meta.List(p.cols.Table(), LayerDerived))
}

// ValidateColumnName checks a proposed column name: identifier characters
// only, no leading digit, no spaces or dots.
func ValidateColumnName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("column name is required")
	}
	if !columnNamePattern.MatchString(name) {
		return fmt.Errorf("invalid column name %q: use letters, digits, and underscores, not starting with a digit", name)
	}
	return nil
}
