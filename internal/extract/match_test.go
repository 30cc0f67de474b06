package extract

import "testing"

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Sodium Hypochlorite", "sodium hypochlorite"},
		{"  Enzyme-A (recombinant) ", "enzyme a recombinant"},
		{"<b>Enzyme A</b>", "enzyme a"},
		{"<div><span>Reactor&nbsp;2</span></div>", "reactor 2"},
		{"", ""},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := normalizeKey(tc.in); got != tc.want {
			t.Errorf("normalizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"alpha", "alpha", 1.0},
		{"alpha", "", 0.0},
		{"", "", 1.0},
		{"kinase", "kinases", 1.0 - 1.0/7.0},
		{"abcd", "wxyz", 0.0},
	}
	for _, tc := range cases {
		got := similarity(tc.a, tc.b)
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("similarity(%q, %q) = %f, want %f", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"sodium hypochlorite", "sodium chloride"},
		{"enzyme a", "enzyme b"},
		{"alpha", "alphas"},
	}
	for _, p := range pairs {
		if similarity(p[0], p[1]) != similarity(p[1], p[0]) {
			t.Errorf("similarity not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestRelationToken(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"inhibit", "INHIBIT"},
		{"must not be combined with", "MUST_NOT_BE_COMBINED_WITH"},
		{"  reacts-with ", "REACTS_WITH"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := RelationToken(tc.in); got != tc.want {
			t.Errorf("RelationToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
