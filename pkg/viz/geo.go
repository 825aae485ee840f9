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
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed assets/*.yaml
var assetFS embed.FS

// Scope values for geographic data.
const (
	ScopeUSStates  = "us-states"
	ScopeCountries = "countries"
)

var (
	stateAbbrevs map[string]string // lowercased full name -> abbreviation
	stateNames   map[string]string // abbreviation -> full name
	countrySet   map[string]string // lowercased name -> canonical name
)

func init() {
	if err := loadGeoAssets(); err != nil {
		panic(fmt.Sprintf("viz: loading embedded geo assets: %v", err))
	}
}

func loadGeoAssets() error {
	var states struct {
		States map[string]string `yaml:"states"`
	}
	raw, err := assetFS.ReadFile("assets/us_states.yaml")
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, &states); err != nil {
		return fmt.Errorf("us_states.yaml: %w", err)
	}
	stateAbbrevs = make(map[string]string, len(states.States))
	stateNames = make(map[string]string, len(states.States))
	for name, abbr := range states.States {
		stateAbbrevs[strings.ToLower(name)] = abbr
		stateNames[abbr] = name
	}

	var countries struct {
		Countries []string          `yaml:"countries"`
		Aliases   map[string]string `yaml:"aliases"`
	}
	raw, err = assetFS.ReadFile("assets/countries.yaml")
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, &countries); err != nil {
		return fmt.Errorf("countries.yaml: %w", err)
	}
	countrySet = make(map[string]string, len(countries.Countries)+len(countries.Aliases))
	for _, name := range countries.Countries {
		countrySet[strings.ToLower(name)] = name
	}
	for alias, canonical := range countries.Aliases {
		countrySet[strings.ToLower(alias)] = canonical
	}
	return nil
}

// IsUSState recognizes a full state name or postal abbreviation.
func IsUSState(v string) bool {
	v = strings.TrimSpace(v)
	if _, ok := stateNames[strings.ToUpper(v)]; ok && len(v) == 2 {
		return true
	}
	_, ok := stateAbbrevs[strings.ToLower(v)]
	return ok
}

// IsCountry recognizes a country name or a known alias.
func IsCountry(v string) bool {
	_, ok := countrySet[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// NormalizeRegion expands state abbreviations and country aliases to their
// canonical names. Unrecognized values pass through unchanged.
func NormalizeRegion(v, scope string) string {
	trimmed := strings.TrimSpace(v)
	switch scope {
	case ScopeUSStates:
		if len(trimmed) == 2 {
			if name, ok := stateNames[strings.ToUpper(trimmed)]; ok {
				return name
			}
		}
	case ScopeCountries:
		if canonical, ok := countrySet[strings.ToLower(trimmed)]; ok {
			return canonical
		}
	}
	return v
}

// GeoScope classifies sample values as US states or countries when a clear
// majority is recognized.
func GeoScope(samples []string) string {
	if len(samples) == 0 {
		return ""
	}
	states, countries := 0, 0
	for _, s := range samples {
		if IsUSState(s) {
			states++
		}
		if IsCountry(s) {
			countries++
		}
	}
	threshold := (len(samples)*3 + 4) / 5 // 60%, rounded up
	if states >= threshold && states >= countries {
		return ScopeUSStates
	}
	if countries >= threshold {
		return ScopeCountries
	}
	return ""
}
