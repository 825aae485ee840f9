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
package viz

import (
	"fmt"
	"sort"

	"github.com/dolex-labs/dolex/pkg/source"
)

// ColorPrefs adjusts how a generated spec is colored. All fields are
// optional.
type ColorPrefs struct {
	Palette    string `json:"palette,omitempty"`
	Highlight  string `json:"highlight,omitempty"`
	ColorField string `json:"colorField,omitempty"`
}

// maxColorCardinality is the most distinct values a column may have and
// still be auto-picked as the color field.
const maxColorCardinality = 10

var palettes = map[string][]string{
	"default":    {"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F", "#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC"},
	"vibrant":    {"#E63946", "#F77F00", "#FCBF49", "#2A9D8F", "#264653", "#7209B7", "#3A86FF", "#FB5607"},
	"pastel":     {"#A8DADC", "#FFD6A5", "#FDFFB6", "#CAFFBF", "#BDB2FF", "#FFC6FF", "#FFADAD", "#9BF6FF"},
	"sequential": {"#F7FBFF", "#DEEBF7", "#C6DBEF", "#9ECAE1", "#6BAED6", "#4292C6", "#2171B5", "#084594"},
	"diverging":  {"#B2182B", "#D6604D", "#F4A582", "#FDDBC7", "#D1E5F0", "#92C5DE", "#4393C3", "#2166AC"},
}

// ColorSystem describes the available palettes for tool discovery.
func ColorSystem() map[string]interface{} {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	info := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		info = append(info, map[string]interface{}{
			"name":   name,
			"colors": palettes[name],
		})
	}
	return map[string]interface{}{
		"palettes":       info,
		"defaultPalette": "default",
	}
}

// ApplyColorPrefs returns a copy of the spec with the preferences applied,
// plus notes about any preference that could not be honored. The input
// spec is never modified.
func ApplyColorPrefs(spec *Spec, prefs ColorPrefs, columns []source.DataColumn) (*Spec, []string) {
	out := cloneSpec(spec)
	var notes []string

	palette := prefs.Palette
	if palette == "" {
		palette = "default"
	}
	colors, ok := palettes[palette]
	if !ok {
		notes = append(notes, fmt.Sprintf("unknown palette %q, using default", prefs.Palette))
		palette = "default"
		colors = palettes[palette]
	}
	out.Options["palette"] = palette
	out.Options["colors"] = colors

	colorField := resolveColorField(out, prefs.ColorField, columns, &notes)
	if colorField != "" {
		out.Encoding["color"] = Field{Field: colorField, Type: "nominal"}
	}

	if prefs.Highlight != "" {
		applyHighlight(out, colorField, prefs.Highlight, &notes)
	}
	return out, notes
}

// resolveColorField honors an explicit request when the column exists,
// keeps an existing color encoding otherwise, and finally falls back to a
// low-cardinality categorical column.
func resolveColorField(spec *Spec, requested string, columns []source.DataColumn, notes *[]string) string {
	if requested != "" {
		for _, col := range columns {
			if col.Name == requested {
				return requested
			}
		}
		*notes = append(*notes, fmt.Sprintf("color field %q not found in the data", requested))
	}
	if f, ok := spec.Encoding["color"]; ok {
		return f.Field
	}
	if f, ok := spec.Encoding["x"]; ok && f.Type == "nominal" {
		return f.Field
	}
	for _, col := range columns {
		if col.Type == source.TypeCategorical && col.UniqueCount > 0 && col.UniqueCount <= maxColorCardinality {
			return col.Name
		}
	}
	return ""
}

func applyHighlight(spec *Spec, colorField, highlight string, notes *[]string) {
	if colorField == "" {
		*notes = append(*notes, fmt.Sprintf("no color field to highlight %q in", highlight))
		return
	}
	found := false
	for _, row := range spec.Data {
		if fmt.Sprint(row[colorField]) == highlight {
			found = true
			break
		}
	}
	if !found {
		*notes = append(*notes, fmt.Sprintf("highlight value %q not present in %s", highlight, colorField))
		return
	}
	spec.Options["highlight"] = highlight
}

// cloneSpec copies the spec one level deep, enough that encoding and
// option writes stay local. Row maps are shared, never written.
func cloneSpec(spec *Spec) *Spec {
	out := &Spec{
		Pattern: spec.Pattern,
		Title:   spec.Title,
		Data:    spec.Data,
	}
	out.Encoding = make(Encoding, len(spec.Encoding))
	for k, v := range spec.Encoding {
		out.Encoding[k] = v
	}
	out.Options = make(map[string]interface{}, len(spec.Options)+3)
	for k, v := range spec.Options {
		out.Options[k] = v
	}
	return out
}
