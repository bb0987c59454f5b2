package pagerange

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec  string
		total int
		want  []int
	}{
		{"all", 5, []int{0, 1, 2, 3, 4}},
		{"", 3, []int{0, 1, 2}},
		{"first", 5, []int{0}},
		{"last", 5, []int{4}},
		{"1,3", 5, []int{0, 2}},
		{"2-4", 5, []int{1, 2, 3}},
		{"4-2", 5, []int{1, 2, 3}}, // reversed bounds normalize
		{"1,2-3,3", 5, []int{0, 1, 2}},
		{"3-10", 5, []int{2, 3, 4}}, // out-of-range tail dropped
		{"9", 5, nil},
		{" 2 , 4 ", 5, []int{1, 3}},
		{"ALL", 4, []int{0, 1, 2, 3}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.spec, tt.total)
		if err != nil {
			t.Errorf("Parse(%q, %d) error: %v", tt.spec, tt.total, err)
			continue
		}
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q, %d) = %v, want %v", tt.spec, tt.total, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, spec := range []string{"x", "1-x", "one,two"} {
		if _, err := Parse(spec, 5); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", spec)
		}
	}
}

func TestParseEmptyDocument(t *testing.T) {
	got, err := Parse("all", 0)
	if err != nil || got != nil {
		t.Fatalf("Parse(all, 0) = %v, %v", got, err)
	}
}
