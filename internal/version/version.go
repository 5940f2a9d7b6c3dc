// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted numeric version. Missing trailing components compare
// as zero, so "1.2" equals "1.2.0".
type Version []int

// Parse converts a dotted numeric string (e.g. "4.12.92.0") into a Version.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	v := make(Version, 0, len(parts))

	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version string (%s)", s)
		}
		v = append(v, n)
	}

	return v, nil
}

func (v Version) Cmp(other Version) int {
	count := max(len(v), len(other))

	for i := 0; i < count; i++ {
		c1 := 0
		if i < len(v) {
			c1 = v[i]
		}

		c2 := 0
		if i < len(other) {
			c2 = other[i]
		}

		if c1 != c2 {
			if c1 > c2 {
				return 1
			}
			return -1
		}
	}

	return 0
}

func (v Version) Ge(other Version) bool {
	return v.Cmp(other) >= 0
}

func (v Version) Lt(other Version) bool {
	return v.Cmp(other) < 0
}

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, p := range v {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}
