// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package props

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// Tag is the formae representation of a resource tag.
type Tag struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

// Match reports whether every property in desired is present with an equal
// value in actual. Properties only present in actual are ignored.
func Match(desired json.RawMessage, actual string) (bool, error) {
	var propsDesired map[string]any
	if err := json.Unmarshal(desired, &propsDesired); err != nil {
		return false, fmt.Errorf("failed to unmarshal desired properties: %w", err)
	}
	var propsActual map[string]any
	if err := json.Unmarshal([]byte(actual), &propsActual); err != nil {
		return false, fmt.Errorf("failed to unmarshal actual properties: %w", err)
	}
	for key, valDesired := range propsDesired {
		valActual, exists := propsActual[key]
		if !exists || !reflect.DeepEqual(valDesired, valActual) {
			return false, nil
		}
	}
	return true, nil
}

// Decode unmarshals resource properties into the typed model of a resource.
func Decode[T any](properties json.RawMessage) (*T, error) {
	if len(properties) == 0 {
		return nil, fmt.Errorf("properties are required")
	}
	var result T
	if err := json.Unmarshal(properties, &result); err != nil {
		return nil, fmt.Errorf("failed to parse properties: %w", err)
	}
	return &result, nil
}

// Encode marshals a typed resource model into the string form used by read results.
func Encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal properties: %w", err)
	}
	return string(data), nil
}

// TagsToMap transforms array tags to the map format ARM expects
func TagsToMap(tags []Tag) map[string]*string {
	if len(tags) == 0 {
		return nil
	}

	tagsMap := make(map[string]*string, len(tags))
	for _, tag := range tags {
		tagsMap[tag.Key] = to.Ptr(tag.Value)
	}
	return tagsMap
}

// TagsToArray transforms ARM map tags back to array format, ordered by key
func TagsToArray(tagsMap map[string]*string) []Tag {
	if len(tagsMap) == 0 {
		return nil
	}

	tags := make([]Tag, 0, len(tagsMap))
	for _, key := range slices.Sorted(maps.Keys(tagsMap)) {
		value := tagsMap[key]
		if value == nil {
			continue
		}
		tags = append(tags, Tag{Key: key, Value: *value})
	}
	return tags
}
