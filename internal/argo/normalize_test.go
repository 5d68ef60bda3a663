package argo

import "testing"

func TestNormalizeClass(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"3A", "3A"},
		{"3a", "3A"},
		{"3AB", "3A"},
		{"3 A", "3A"},
		{"3^ A", "3A"},
		{"3A INFORMATICA", "3A"},
		{"CLASSE 3 SEZ. A", "3A"},
		{"3 SEZIONE B", "3B"},
		{"2 sez. c", "2C"},
		{"5F", "5F"},
		{"1 b", "1B"},
		{"terza A", ""},
		{"", ""},
		{"  ", ""},
		{"N/D", ""},
		{"6A", ""},
		{"0Z", ""},
	}
	for _, tc := range cases {
		if got := NormalizeClass(tc.raw); got != tc.want {
			t.Errorf("NormalizeClass(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestIsCanonicalClass(t *testing.T) {
	if !IsCanonicalClass("3A") {
		t.Fatalf("expected 3A to be canonical")
	}
	for _, label := range []string{"3AB", "3 A", "", "a3", "33"} {
		if IsCanonicalClass(label) {
			t.Errorf("expected %q not to be canonical", label)
		}
	}
}
