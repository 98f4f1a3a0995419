// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetStringProperty(t *testing.T) {
	val, err := GetStringProperty(map[string]string{"ServerId": "/subscriptions/s"}, "ServerId")
	assert.NoError(t, err)
	assert.Equal(t, "/subscriptions/s", val)

	_, err = GetStringProperty(nil, "ServerId")
	assert.EqualError(t, err, "required property ServerId not found")

	_, err = GetStringProperty(map[string]string{"ServerId": ""}, "ServerId")
	assert.EqualError(t, err, "property ServerId is empty")
}
