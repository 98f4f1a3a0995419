// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package utils

import "fmt"

// GetStringProperty safely extracts a required, non-empty value from the
// additional properties of a list request
func GetStringProperty(properties map[string]string, key string) (string, error) {
	val, ok := properties[key]
	if !ok {
		return "", fmt.Errorf("required property %s not found", key)
	}
	if val == "" {
		return "", fmt.Errorf("property %s is empty", key)
	}
	return val, nil
}
