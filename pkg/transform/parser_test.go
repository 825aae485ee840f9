package transform

import (
	"errors"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"score + 1", "(score + 1)"},
		{"a + b * c", "(a + (b * c))"},
		{"(a + b) * c", "((a + b) * c)"},
		{"-x ** 2", "-(x ** 2)"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"not a and b", "(not a and b)"},
		{"a = 1 or b != 2", "((a = 1) or (b != 2))"},
		{"`unit price` * qty", "(`unit price` * qty)"},
		{"if_else(x > 0, 'pos', 'neg')", "if_else((x > 0), 'pos', 'neg')"},
		{"cut(age, [0, 18, 65, 120], ['minor', 'adult', 'senior'])",
			"cut(age, [0, 18, 65, 120], ['minor', 'adult', 'senior'])"},
		{"ROUND(x, 2)", "round(x, 2)"},
		{"\"double quoted\"", "'double quoted'"},
		{"null", "null"},
		{"true and false", "(true and false)"},
		{"x % 3", "(x % 3)"},
		{"concat(a, '-', b)", "concat(a, '-', b)"},
	}
	for _, tt := range tests {
		node, err := Parse(tt.input)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got := node.String(); got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
	}{
		{""},
		{"   "},
		{"1 +"},
		{"(a + b"},
		{"foo(a,"},
		{"[1, 2"},
		{"'unterminated"},
		{"`unterminated"},
		{"a @ b"},
		{"a b"},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		if err == nil {
			t.Errorf("Parse(%q): expected error, got none", tt.input)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q): error %v is not a *ParseError", tt.input, err)
		}
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("a + + b")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Position != 4 {
		t.Errorf("Position = %d, want 4", pe.Position)
	}
}

func TestColumnRefs(t *testing.T) {
	node, err := Parse("a + b * a + `spaced col` + zscore(c)")
	if err != nil {
		t.Fatal(err)
	}
	got := ColumnRefs(node)
	want := []string{"a", "b", "spaced col", "c"}
	if len(got) != len(want) {
		t.Fatalf("ColumnRefs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ColumnRefs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFunctionCallVersusColumn(t *testing.T) {
	node, err := Parse("len(name)")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := node.(*CallExpr); !ok {
		t.Fatalf("len(name) parsed as %T, want *CallExpr", node)
	}

	node, err = Parse("`len`")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := node.(*ColumnRef); !ok {
		t.Fatalf("`len` parsed as %T, want *ColumnRef", node)
	}
}
