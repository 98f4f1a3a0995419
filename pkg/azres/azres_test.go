// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package azres

import (
	"testing"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/assert"
)

var allOperations = []resource.Operation{
	resource.OperationCreate,
	resource.OperationRead,
	resource.OperationUpdate,
	resource.OperationDelete,
	resource.OperationCheckStatus,
	resource.OperationList,
}

func TestResourceTypes(t *testing.T) {
	assert.Equal(t, []string{
		"Azure::Network::Subnet",
		"Azure::Network::VirtualNetwork",
		"Azure::Resources::ResourceGroup",
		"Azure::Sql::Server",
		"Azure::Sql::VirtualNetworkRule",
	}, ResourceTypes())
}

func TestFullyManagedRegistrations(t *testing.T) {
	for _, resourceType := range []string{
		"Azure::Resources::ResourceGroup",
		"Azure::Network::VirtualNetwork",
		"Azure::Sql::Server",
		"Azure::Sql::VirtualNetworkRule",
	} {
		for _, operation := range allOperations {
			assert.NotNil(t, GetProvisionerForOperation(resourceType, operation, nil), "%s %s", resourceType, operation)
		}
	}
}

func TestSubnetRegistration(t *testing.T) {
	assert.NotNil(t, GetProvisionerForOperation("Azure::Network::Subnet", resource.OperationRead, nil))
	assert.NotNil(t, GetProvisionerForOperation("Azure::Network::Subnet", resource.OperationCheckStatus, nil))
	assert.NotNil(t, GetProvisionerForOperation("Azure::Network::Subnet", resource.OperationList, nil))
	assert.Nil(t, GetProvisionerForOperation("Azure::Network::Subnet", resource.OperationCreate, nil))
	assert.Nil(t, GetProvisionerForOperation("Azure::Network::Subnet", resource.OperationDelete, nil))
}

func TestUnknownType(t *testing.T) {
	assert.Nil(t, GetProvisionerForOperation("AWS::S3::Bucket", resource.OperationRead, nil))
}
