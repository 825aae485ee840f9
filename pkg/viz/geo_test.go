package viz

import "testing"

func TestGeoScope(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    string
	}{
		{"state names", []string{"California", "Texas", "New York"}, ScopeUSStates},
		{"state abbreviations", []string{"CA", "TX", "NY", "WA"}, ScopeUSStates},
		{"countries", []string{"France", "Germany", "Japan"}, ScopeCountries},
		{"country aliases", []string{"USA", "UK", "Brazil"}, ScopeCountries},
		{"mostly states", []string{"CA", "TX", "NY", "NV", "Gotham"}, ScopeUSStates},
		{"below threshold", []string{"CA", "Gotham", "Metropolis", "Springfield", "Shelbyville"}, ""},
		{"plain categories", []string{"north", "south", "east"}, ""},
		{"empty", nil, ""},
		{"georgia the state", []string{"Georgia", "Texas", "Florida"}, ScopeUSStates},
	}
	for _, tt := range tests {
		if got := GeoScope(tt.samples); got != tt.want {
			t.Errorf("%s: GeoScope = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNormalizeRegion(t *testing.T) {
	tests := []struct {
		in    string
		scope string
		want  string
	}{
		{"CA", ScopeUSStates, "California"},
		{"ny", ScopeUSStates, "New York"},
		{" TX ", ScopeUSStates, "Texas"},
		{"California", ScopeUSStates, "California"},
		{"ZZ", ScopeUSStates, "ZZ"},
		{"USA", ScopeCountries, "United States"},
		{"uk", ScopeCountries, "United Kingdom"},
		{"Czech Republic", ScopeCountries, "Czechia"},
		{"france", ScopeCountries, "France"},
		{"Atlantis", ScopeCountries, "Atlantis"},
		{"CA", "", "CA"},
	}
	for _, tt := range tests {
		if got := NormalizeRegion(tt.in, tt.scope); got != tt.want {
			t.Errorf("NormalizeRegion(%q, %q) = %q, want %q", tt.in, tt.scope, got, tt.want)
		}
	}
}

func TestIsUSState(t *testing.T) {
	for _, v := range []string{"CA", "wa", "California", "district of columbia"} {
		if !IsUSState(v) {
			t.Errorf("IsUSState(%q) = false", v)
		}
	}
	for _, v := range []string{"ZZ", "Gotham", ""} {
		if IsUSState(v) {
			t.Errorf("IsUSState(%q) = true", v)
		}
	}
}

func TestIsCountry(t *testing.T) {
	for _, v := range []string{"France", "japan", "USA", "south korea"} {
		if !IsCountry(v) {
			t.Errorf("IsCountry(%q) = false", v)
		}
	}
	if IsCountry("Atlantis") {
		t.Error(`IsCountry("Atlantis") = true`)
	}
}
