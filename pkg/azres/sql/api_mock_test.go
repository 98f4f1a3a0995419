// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package sql

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"
	"github.com/stretchr/testify/mock"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azx"
)

const (
	testSubscription = "00000000-0000-0000-0000-000000000000"
	testServerID     = "/subscriptions/" + testSubscription + "/resourceGroups/rg/providers/Microsoft.Sql/servers/server1"
	testSubnet1ID    = "/subscriptions/" + testSubscription + "/resourceGroups/rg/providers/Microsoft.Network/virtualNetworks/vnet/subnets/subnet1"
	testSubnet2ID    = "/subscriptions/" + testSubscription + "/resourceGroups/rg/providers/Microsoft.Network/virtualNetworks/vnet/subnets/subnet2"
	testRuleID       = testServerID + "/virtualNetworkRules/rule1"
)

// mockAPI mocks the SQL part of the ARM client. Calling any other method
// panics on the nil embedded interface.
type mockAPI struct {
	azx.API
	mock.Mock
}

func (m *mockAPI) SubscriptionID() string {
	return testSubscription
}

func (m *mockAPI) CreateServer(ctx context.Context, resourceGroup, name string, server armsql.Server) (*armsql.Server, error) {
	args := m.Called(ctx, resourceGroup, name, server)
	return args.Get(0).(*armsql.Server), args.Error(1)
}

func (m *mockAPI) GetServer(ctx context.Context, resourceGroup, name string) (*armsql.Server, error) {
	args := m.Called(ctx, resourceGroup, name)
	return args.Get(0).(*armsql.Server), args.Error(1)
}

func (m *mockAPI) DeleteServer(ctx context.Context, resourceGroup, name string) error {
	args := m.Called(ctx, resourceGroup, name)
	return args.Error(0)
}

func (m *mockAPI) ListServers(ctx context.Context, resourceGroup string) ([]*armsql.Server, error) {
	args := m.Called(ctx, resourceGroup)
	return args.Get(0).([]*armsql.Server), args.Error(1)
}

func (m *mockAPI) CreateVirtualNetworkRule(ctx context.Context, resourceGroup, serverName, name string, rule armsql.VirtualNetworkRule) (*armsql.VirtualNetworkRule, error) {
	args := m.Called(ctx, resourceGroup, serverName, name, rule)
	return args.Get(0).(*armsql.VirtualNetworkRule), args.Error(1)
}

func (m *mockAPI) GetVirtualNetworkRule(ctx context.Context, resourceGroup, serverName, name string) (*armsql.VirtualNetworkRule, error) {
	args := m.Called(ctx, resourceGroup, serverName, name)
	return args.Get(0).(*armsql.VirtualNetworkRule), args.Error(1)
}

func (m *mockAPI) DeleteVirtualNetworkRule(ctx context.Context, resourceGroup, serverName, name string) error {
	args := m.Called(ctx, resourceGroup, serverName, name)
	return args.Error(0)
}

func (m *mockAPI) ListVirtualNetworkRules(ctx context.Context, resourceGroup, serverName string) ([]*armsql.VirtualNetworkRule, error) {
	args := m.Called(ctx, resourceGroup, serverName)
	return args.Get(0).([]*armsql.VirtualNetworkRule), args.Error(1)
}

func matchSubnet(subnetID string) any {
	return mock.MatchedBy(func(rule armsql.VirtualNetworkRule) bool {
		return rule.Properties != nil && rule.Properties.VirtualNetworkSubnetID != nil &&
			*rule.Properties.VirtualNetworkSubnetID == subnetID
	})
}
