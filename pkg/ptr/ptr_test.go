// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package ptr

import (
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	assert.Equal(t, "eastus", Value(to.Ptr("eastus")))
	assert.Equal(t, "", Value[string](nil))
	assert.False(t, Value[bool](nil))
}

func TestValues(t *testing.T) {
	assert.Equal(t, []string{"10.0.0.0/16", "10.1.0.0/16"}, Values([]*string{to.Ptr("10.0.0.0/16"), nil, to.Ptr("10.1.0.0/16")}))
	assert.Nil(t, Values[string](nil))
}
