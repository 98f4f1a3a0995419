// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package network

import (
	"context"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/resid"
)

func TestSubnet_Read(t *testing.T) {
	fake := newFake(t)
	createVNet(t, &VirtualNetwork{client: fake})
	s := &Subnet{client: fake}

	result, err := s.Read(context.Background(), &resource.ReadRequest{NativeID: resid.Subnet(testVNetID, "subnet2")})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Id": "`+resid.Subnet(testVNetID, "subnet2")+`",
		"ResourceGroupName": "rg",
		"VirtualNetworkName": "vnet",
		"Name": "subnet2",
		"AddressPrefix": "192.168.2.0/24",
		"ServiceEndpoints": ["Microsoft.Sql"],
		"ProvisioningState": "Succeeded"
	}`, result.Properties)

	result, err = s.Read(context.Background(), &resource.ReadRequest{NativeID: resid.Subnet(testVNetID, "subnet3")})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationErrorCodeNotFound, result.ErrorCode)
}

func TestSubnet_List(t *testing.T) {
	fake := newFake(t)
	createVNet(t, &VirtualNetwork{client: fake})
	s := &Subnet{client: fake}

	result, err := s.List(context.Background(), &resource.ListRequest{
		AdditionalProperties: map[string]string{"VirtualNetworkId": testVNetID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{resid.Subnet(testVNetID, "subnet1"), resid.Subnet(testVNetID, "subnet2")}, result.NativeIDs)

	_, err = s.List(context.Background(), &resource.ListRequest{
		AdditionalProperties: map[string]string{"VirtualNetworkId": resid.Subnet(testVNetID, "subnet1")},
	})
	assert.ErrorContains(t, err, "expected Microsoft.Network/virtualNetworks")
}

func TestSubnet_MutationsNotSupported(t *testing.T) {
	s := &Subnet{}

	_, err := s.Create(context.Background(), &resource.CreateRequest{})
	assert.Error(t, err)
	_, err = s.Update(context.Background(), &resource.UpdateRequest{})
	assert.Error(t, err)
	_, err = s.Delete(context.Background(), &resource.DeleteRequest{})
	assert.Error(t, err)
}

func TestSubnetProperties_ToAzure(t *testing.T) {
	subnet := SubnetProperties{Name: "subnet1", AddressPrefix: "10.0.1.0/24", ServiceEndpoints: []string{"Microsoft.Sql", "Microsoft.Storage"}}.toAzure()

	assert.Equal(t, "subnet1", *subnet.Name)
	assert.Equal(t, "10.0.1.0/24", *subnet.Properties.AddressPrefix)
	require.Len(t, subnet.Properties.ServiceEndpoints, 2)
	assert.Equal(t, "Microsoft.Storage", *subnet.Properties.ServiceEndpoints[1].Service)

	roundTrip := subnetProperties("rg", "vnet", subnet)
	assert.Equal(t, []string{"Microsoft.Sql", "Microsoft.Storage"}, roundTrip.ServiceEndpoints)
	assert.Empty(t, roundTrip.ProvisioningState)
	assert.IsType(t, &armnetwork.Subnet{}, subnet)
}
