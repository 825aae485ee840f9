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
	"strings"

	"github.com/dolex-labs/dolex/pkg/source"
)

func geoPatterns() []*Pattern {
	return []*Pattern{
		{
			ID:          "choropleth",
			Name:        "Choropleth Map",
			Category:    "geo",
			Description: "Regions shaded by value.",
			BestFor:     []string{"values per state or country"},
			Requirements: Requirements{
				MinRows: 2, MaxRows: 300,
				MinNumeric: 1, MinCategorical: 1,
			},
			SelectionRules: []Rule{
				{Condition: "region-name column", Weight: 4, Matches: func(mc *MatchContext) bool {
					_, scope := geoColumn(mc)
					return scope != ""
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
				region, scope := geoColumn(mc)
				num := mc.FirstNumeric()
				if region == "" || num == "" {
					return nil, fmt.Errorf("choropleth requires a column of state or country names and a numeric column")
				}
				// Copy rows so abbreviation expansion never touches the input.
				normalized := make([]map[string]interface{}, len(data))
				for i, row := range data {
					out := make(map[string]interface{}, len(row))
					for k, v := range row {
						out[k] = v
					}
					if s, ok := out[region].(string); ok {
						out[region] = NormalizeRegion(s, scope)
					}
					normalized[i] = out
				}
				return &Spec{
					Pattern: "choropleth",
					Title:   byTitle(num, region),
					Data:    normalized,
					Encoding: Encoding{
						"geo":   {Field: region, Type: "nominal"},
						"color": {Field: num, Type: "quantitative"},
					},
					Options: map[string]interface{}{"scope": scope},
				}, nil
			},
		},
		{
			ID:          "symbol_map",
			Name:        "Symbol Map",
			Category:    "geo",
			Description: "Sized symbols at coordinates.",
			BestFor:     []string{"point locations with magnitudes"},
			Requirements: Requirements{
				MinRows: 2, MaxRows: 1000,
				MinNumeric: 2,
			},
			SelectionRules: []Rule{
				{Condition: "latitude and longitude columns", Weight: 4, Matches: func(mc *MatchContext) bool {
					lat, lon := coordinateColumns(mc)
					return lat != "" && lon != ""
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
				lat, lon := coordinateColumns(mc)
				if lat == "" || lon == "" {
					return nil, fmt.Errorf("symbol_map requires latitude and longitude columns")
				}
				enc := Encoding{
					"lat": {Field: lat, Type: "quantitative"},
					"lon": {Field: lon, Type: "quantitative"},
				}
				for _, name := range mc.NumericCols {
					if name != lat && name != lon {
						enc["size"] = Field{Field: name, Type: "quantitative"}
						break
					}
				}
				return &Spec{Pattern: "symbol_map", Title: "Locations", Data: data, Encoding: enc}, nil
			},
		},
	}
}

// geoColumn finds the first categorical column whose values look like US
// states or countries, with the detected scope.
func geoColumn(mc *MatchContext) (string, string) {
	for _, col := range mc.Columns {
		if col.Type != source.TypeCategorical {
			continue
		}
		if scope := GeoScope(col.Samples); scope != "" {
			return col.Name, scope
		}
	}
	return "", ""
}

// coordinateColumns picks lat/lon columns by name.
func coordinateColumns(mc *MatchContext) (string, string) {
	var lat, lon string
	for _, name := range mc.NumericCols {
		lower := strings.ToLower(name)
		switch {
		case lat == "" && (lower == "lat" || strings.Contains(lower, "latitude")):
			lat = name
		case lon == "" && (lower == "lon" || lower == "lng" || strings.Contains(lower, "longitude")):
			lon = name
		}
	}
	return lat, lon
}
