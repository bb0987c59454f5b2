// Package pagerange parses user-facing page selections like "1,3-5" into
// zero-based page indices.
package pagerange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Parse turns a selection string into a sorted set of unique zero-based
// indices against a document of total pages. Accepted forms: "all",
// "first", "last", comma-separated one-based singles and inclusive "a-b"
// ranges. Values outside 1..total are dropped silently.
func Parse(spec string, total int) ([]int, error) {
	if total <= 0 {
		return nil, nil
	}
	spec = strings.TrimSpace(strings.ToLower(spec))
	switch spec {
	case "", "all":
		return sequence(0, total), nil
	case "first":
		return []int{0}, nil
	case "last":
		return []int{total - 1}, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, err := parsePart(part)
		if err != nil {
			return nil, err
		}
		for p := lo; p <= hi; p++ {
			if p >= 1 && p <= total {
				seen[p-1] = true
			}
		}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}

func parsePart(part string) (int, int, error) {
	if lo, hi, ok := strings.Cut(part, "-"); ok {
		a, err1 := strconv.Atoi(strings.TrimSpace(lo))
		b, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil {
			return 0, 0, fmt.Errorf("pagerange: invalid range %q", part)
		}
		if a > b {
			a, b = b, a
		}
		return a, b, nil
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, 0, fmt.Errorf("pagerange: invalid page %q", part)
	}
	return n, n, nil
}

func sequence(start, end int) []int {
	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out
}
