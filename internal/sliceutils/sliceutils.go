// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package sliceutils

// ContainsValue reports whether the slice contains the given value.
func ContainsValue[T comparable](slice []T, value T) bool {
	for _, entry := range slice {
		if entry == value {
			return true
		}
	}

	return false
}

// MapToSlice returns the keys of the map, in unspecified order.
func MapToSlice[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	return keys
}
