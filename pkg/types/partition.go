package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParseYear parses a raw year request parameter.
// Blank input yields ErrYearMissing; anything that is not an integer yields ErrYearInvalid.
func ParseYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrYearMissing
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrYearInvalid, raw)
	}
	return year, nil
}

// UniqueYears returns the distinct years in ascending order.
func UniqueYears(years []int) []int {
	seen := make(map[int]struct{}, len(years))
	out := make([]int, 0, len(years))
	for _, y := range years {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
