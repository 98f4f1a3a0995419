// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package ptr

// Value returns the value p points to, or the zero value when p is nil.
func Value[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Values dereferences every non-nil element of s.
func Values[T any](s []*T) []T {
	if len(s) == 0 {
		return nil
	}
	result := make([]T, 0, len(s))
	for _, p := range s {
		if p != nil {
			result = append(result, *p)
		}
	}
	return result
}
