// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package props

import (
	"encoding/json"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	desired := json.RawMessage(`{"Name": "rule-1", "VirtualNetworkSubnetId": "/subnets/a"}`)
	actual := `{"Id": "/rules/rule-1", "Name": "rule-1", "VirtualNetworkSubnetId": "/subnets/a", "State": "Ready"}`

	match, err := Match(desired, actual)
	assert.NoError(t, err)
	assert.True(t, match)

	// Test non-matching properties
	match, err = Match(desired, `{"Name": "rule-1", "VirtualNetworkSubnetId": "/subnets/b"}`)
	assert.NoError(t, err)
	assert.False(t, match)

	_, err = Match(desired, `not-json`)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	type model struct {
		Name string `json:"Name"`
	}

	t.Run("decodes properties", func(t *testing.T) {
		m, err := Decode[model](json.RawMessage(`{"Name":"x"}`))
		require.NoError(t, err)
		assert.Equal(t, "x", m.Name)
	})

	t.Run("empty properties are rejected", func(t *testing.T) {
		_, err := Decode[model](nil)
		assert.ErrorContains(t, err, "properties are required")
	})

	t.Run("malformed properties are rejected", func(t *testing.T) {
		_, err := Decode[model](json.RawMessage(`{`))
		assert.ErrorContains(t, err, "failed to parse properties")
	})
}

func TestTags(t *testing.T) {
	tags := []Tag{{Key: "env", Value: "dev"}, {Key: "app", Value: "sql"}}

	tagsMap := TagsToMap(tags)
	assert.Equal(t, map[string]*string{"env": to.Ptr("dev"), "app": to.Ptr("sql")}, tagsMap)

	// Round trip comes back sorted by key
	assert.Equal(t, []Tag{{Key: "app", Value: "sql"}, {Key: "env", Value: "dev"}}, TagsToArray(tagsMap))

	assert.Nil(t, TagsToMap(nil))
	assert.Nil(t, TagsToArray(nil))
	assert.Empty(t, TagsToArray(map[string]*string{"nil": nil}))
}
