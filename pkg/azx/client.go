// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package azx

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/config"
)

// API is the subset of Azure Resource Manager the provisioners need. Every
// mutating call blocks until the remote long-running operation completes.
type API interface {
	SubscriptionID() string

	CreateResourceGroup(ctx context.Context, name string, group armresources.ResourceGroup) (*armresources.ResourceGroup, error)
	GetResourceGroup(ctx context.Context, name string) (*armresources.ResourceGroup, error)
	DeleteResourceGroup(ctx context.Context, name string) error
	ListResourceGroups(ctx context.Context) ([]*armresources.ResourceGroup, error)

	CreateVirtualNetwork(ctx context.Context, resourceGroup, name string, vnet armnetwork.VirtualNetwork) (*armnetwork.VirtualNetwork, error)
	GetVirtualNetwork(ctx context.Context, resourceGroup, name string) (*armnetwork.VirtualNetwork, error)
	DeleteVirtualNetwork(ctx context.Context, resourceGroup, name string) error
	ListVirtualNetworks(ctx context.Context, resourceGroup string) ([]*armnetwork.VirtualNetwork, error)

	GetSubnet(ctx context.Context, resourceGroup, vnetName, name string) (*armnetwork.Subnet, error)
	ListSubnets(ctx context.Context, resourceGroup, vnetName string) ([]*armnetwork.Subnet, error)

	CreateServer(ctx context.Context, resourceGroup, name string, server armsql.Server) (*armsql.Server, error)
	GetServer(ctx context.Context, resourceGroup, name string) (*armsql.Server, error)
	DeleteServer(ctx context.Context, resourceGroup, name string) error
	ListServers(ctx context.Context, resourceGroup string) ([]*armsql.Server, error)

	CreateVirtualNetworkRule(ctx context.Context, resourceGroup, serverName, name string, rule armsql.VirtualNetworkRule) (*armsql.VirtualNetworkRule, error)
	GetVirtualNetworkRule(ctx context.Context, resourceGroup, serverName, name string) (*armsql.VirtualNetworkRule, error)
	DeleteVirtualNetworkRule(ctx context.Context, resourceGroup, serverName, name string) error
	ListVirtualNetworkRules(ctx context.Context, resourceGroup, serverName string) ([]*armsql.VirtualNetworkRule, error)
}

type Client struct {
	subscriptionID string

	groups   *armresources.ResourceGroupsClient
	vnets    *armnetwork.VirtualNetworksClient
	subnets  *armnetwork.SubnetsClient
	servers  *armsql.ServersClient
	vnetRule *armsql.VirtualNetworkRulesClient
}

var _ API = &Client{}

// NewClient builds the ARM clients for the configured subscription. When no
// subscription is configured the first enabled subscription visible to the
// credential is used.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	cred, err := cfg.ToCredential()
	if err != nil {
		return nil, fmt.Errorf("creating Azure credential: %w", err)
	}
	opts := cfg.ClientOptions()

	subscriptionID := cfg.SubscriptionID
	if subscriptionID == "" {
		subscriptionID, err = defaultSubscription(ctx, cred, opts)
		if err != nil {
			return nil, err
		}
	}

	return newClient(subscriptionID, cred, opts)
}

func newClient(subscriptionID string, cred azcore.TokenCredential, opts *arm.ClientOptions) (*Client, error) {
	var err error
	c := &Client{subscriptionID: subscriptionID}
	if c.groups, err = armresources.NewResourceGroupsClient(subscriptionID, cred, opts); err != nil {
		return nil, fmt.Errorf("creating resource groups client: %w", err)
	}
	if c.vnets, err = armnetwork.NewVirtualNetworksClient(subscriptionID, cred, opts); err != nil {
		return nil, fmt.Errorf("creating virtual networks client: %w", err)
	}
	if c.subnets, err = armnetwork.NewSubnetsClient(subscriptionID, cred, opts); err != nil {
		return nil, fmt.Errorf("creating subnets client: %w", err)
	}
	if c.servers, err = armsql.NewServersClient(subscriptionID, cred, opts); err != nil {
		return nil, fmt.Errorf("creating sql servers client: %w", err)
	}
	if c.vnetRule, err = armsql.NewVirtualNetworkRulesClient(subscriptionID, cred, opts); err != nil {
		return nil, fmt.Errorf("creating sql virtual network rules client: %w", err)
	}
	return c, nil
}

var errNoSubscription = errors.New("no enabled subscription available to the credential")

func defaultSubscription(ctx context.Context, cred azcore.TokenCredential, opts *arm.ClientOptions) (string, error) {
	subs, err := armsubscriptions.NewClient(cred, opts)
	if err != nil {
		return "", fmt.Errorf("creating subscriptions client: %w", err)
	}
	pager := subs.NewListPager(nil)
	for pager.More() {
		next, err := pager.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("listing subscriptions: %w", err)
		}
		for _, sub := range next.Value {
			if sub.SubscriptionID == nil || sub.State == nil {
				continue
			}
			if *sub.State == armsubscriptions.SubscriptionStateEnabled {
				return *sub.SubscriptionID, nil
			}
		}
	}
	return "", errNoSubscription
}

func (c *Client) SubscriptionID() string {
	return c.subscriptionID
}

func (c *Client) CreateResourceGroup(ctx context.Context, name string, group armresources.ResourceGroup) (*armresources.ResourceGroup, error) {
	result, err := c.groups.CreateOrUpdate(ctx, name, group, nil)
	if err != nil {
		return nil, err
	}
	return &result.ResourceGroup, nil
}

func (c *Client) GetResourceGroup(ctx context.Context, name string) (*armresources.ResourceGroup, error) {
	result, err := c.groups.Get(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	return &result.ResourceGroup, nil
}

func (c *Client) DeleteResourceGroup(ctx context.Context, name string) error {
	poller, err := c.groups.BeginDelete(ctx, name, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	return err
}

func (c *Client) ListResourceGroups(ctx context.Context) ([]*armresources.ResourceGroup, error) {
	var result []*armresources.ResourceGroup
	pager := c.groups.NewListPager(nil)
	for pager.More() {
		next, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		result = append(result, next.Value...)
	}
	return result, nil
}

func (c *Client) CreateVirtualNetwork(ctx context.Context, resourceGroup, name string, vnet armnetwork.VirtualNetwork) (*armnetwork.VirtualNetwork, error) {
	poller, err := c.vnets.BeginCreateOrUpdate(ctx, resourceGroup, name, vnet, nil)
	if err != nil {
		return nil, err
	}
	result, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &result.VirtualNetwork, nil
}

func (c *Client) GetVirtualNetwork(ctx context.Context, resourceGroup, name string) (*armnetwork.VirtualNetwork, error) {
	result, err := c.vnets.Get(ctx, resourceGroup, name, nil)
	if err != nil {
		return nil, err
	}
	return &result.VirtualNetwork, nil
}

func (c *Client) DeleteVirtualNetwork(ctx context.Context, resourceGroup, name string) error {
	poller, err := c.vnets.BeginDelete(ctx, resourceGroup, name, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	return err
}

func (c *Client) ListVirtualNetworks(ctx context.Context, resourceGroup string) ([]*armnetwork.VirtualNetwork, error) {
	var result []*armnetwork.VirtualNetwork
	pager := c.vnets.NewListPager(resourceGroup, nil)
	for pager.More() {
		next, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		result = append(result, next.Value...)
	}
	return result, nil
}

func (c *Client) GetSubnet(ctx context.Context, resourceGroup, vnetName, name string) (*armnetwork.Subnet, error) {
	result, err := c.subnets.Get(ctx, resourceGroup, vnetName, name, nil)
	if err != nil {
		return nil, err
	}
	return &result.Subnet, nil
}

func (c *Client) ListSubnets(ctx context.Context, resourceGroup, vnetName string) ([]*armnetwork.Subnet, error) {
	var result []*armnetwork.Subnet
	pager := c.subnets.NewListPager(resourceGroup, vnetName, nil)
	for pager.More() {
		next, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		result = append(result, next.Value...)
	}
	return result, nil
}

func (c *Client) CreateServer(ctx context.Context, resourceGroup, name string, server armsql.Server) (*armsql.Server, error) {
	poller, err := c.servers.BeginCreateOrUpdate(ctx, resourceGroup, name, server, nil)
	if err != nil {
		return nil, err
	}
	result, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &result.Server, nil
}

func (c *Client) GetServer(ctx context.Context, resourceGroup, name string) (*armsql.Server, error) {
	result, err := c.servers.Get(ctx, resourceGroup, name, nil)
	if err != nil {
		return nil, err
	}
	return &result.Server, nil
}

func (c *Client) DeleteServer(ctx context.Context, resourceGroup, name string) error {
	poller, err := c.servers.BeginDelete(ctx, resourceGroup, name, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	return err
}

func (c *Client) ListServers(ctx context.Context, resourceGroup string) ([]*armsql.Server, error) {
	var result []*armsql.Server
	pager := c.servers.NewListByResourceGroupPager(resourceGroup, nil)
	for pager.More() {
		next, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		result = append(result, next.Value...)
	}
	return result, nil
}

func (c *Client) CreateVirtualNetworkRule(ctx context.Context, resourceGroup, serverName, name string, rule armsql.VirtualNetworkRule) (*armsql.VirtualNetworkRule, error) {
	poller, err := c.vnetRule.BeginCreateOrUpdate(ctx, resourceGroup, serverName, name, rule, nil)
	if err != nil {
		return nil, err
	}
	result, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &result.VirtualNetworkRule, nil
}

func (c *Client) GetVirtualNetworkRule(ctx context.Context, resourceGroup, serverName, name string) (*armsql.VirtualNetworkRule, error) {
	result, err := c.vnetRule.Get(ctx, resourceGroup, serverName, name, nil)
	if err != nil {
		return nil, err
	}
	return &result.VirtualNetworkRule, nil
}

func (c *Client) DeleteVirtualNetworkRule(ctx context.Context, resourceGroup, serverName, name string) error {
	poller, err := c.vnetRule.BeginDelete(ctx, resourceGroup, serverName, name, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	return err
}

func (c *Client) ListVirtualNetworkRules(ctx context.Context, resourceGroup, serverName string) ([]*armsql.VirtualNetworkRule, error) {
	var result []*armsql.VirtualNetworkRule
	pager := c.vnetRule.NewListByServerPager(resourceGroup, serverName, nil)
	for pager.More() {
		next, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		result = append(result, next.Value...)
	}
	return result, nil
}
