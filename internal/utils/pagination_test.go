package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestOffset(t *testing.T) {
	cases := []struct{ page, size, want int }{
		{1, 10, 0},
		{3, 10, 20},
		{0, 10, 0},
		{2, 0, 0},
	}
	for _, tc := range cases {
		if got := Offset(tc.page, tc.size); got != tc.want {
			t.Fatalf("Offset(%d, %d) = %d; want %d", tc.page, tc.size, got, tc.want)
		}
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 0, 0},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.size); got != tc.want {
			t.Fatalf("TotalPages(%d, %d) = %d; want %d", tc.total, tc.size, got, tc.want)
		}
	}
}
