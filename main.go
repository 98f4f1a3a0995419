// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/network"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/resources"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/sql"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/config"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/naming"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/props"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/resid"
)

const (
	groupLocation   = "eastus"
	regionLocation  = "southeastasia"
	addressSpace    = "192.168.0.0/16"
	subnet1Prefix   = "192.168.1.0/24"
	subnet2Prefix   = "192.168.2.0/24"
	sqlEndpoint     = "Microsoft.Sql"
	sqlAdminLogin   = "sqladmin1234"
	rule1Name       = "virtualNetworkRule1"
	rule2Name       = "virtualNetworkRule2"
	ruleServerIDKey = "ServerId"
)

// Manages SQL virtual network rules:
//   - create a virtual network with two subnets
//   - create a SQL server with one virtual network rule
//   - add a second rule, then get and update the rules
//   - list and delete all rules, then the server
func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(context.Background(), &Plugin{}, config.FromEnv()); err != nil {
		slog.Error("Managing SQL virtual network rules failed", "error", err)
	}
}

// session drives the plugin against one target.
type session struct {
	plugin *Plugin
	target json.RawMessage
}

func run(ctx context.Context, p *Plugin, cfg *config.Config) error {
	target, err := cfg.TargetConfig()
	if err != nil {
		return err
	}
	s := &session{plugin: p, target: target}

	var groupID string
	defer func() {
		if groupID == "" {
			return
		}
		slog.Info("Deleting resource group...")
		if err := s.delete(ctx, resources.ResourceGroupType, groupID); err != nil {
			slog.Error("Failed to delete resource group", "id", groupID, "error", err)
			return
		}
		slog.Info("Deleted resource group", "name", resid.NameFrom(groupID))
	}()

	// Resource group
	slog.Info("Creating resource group...")
	group, err := create[resources.ResourceGroupProperties](ctx, s, resources.ResourceGroupType, resources.ResourceGroupProperties{
		Name:     naming.RandomName("rgSQLServer"),
		Location: groupLocation,
	})
	if err != nil {
		return err
	}
	groupID = group.ID
	slog.Info("Created a resource group", "name", group.Name)

	// Virtual network with two subnets
	slog.Info("Creating a virtual network with two subnets")
	subnet1Name := naming.RandomName("testSubnet1-")
	subnet2Name := naming.RandomName("testSubnet2-")
	vnet, err := create[network.VirtualNetworkProperties](ctx, s, network.VirtualNetworkType, network.VirtualNetworkProperties{
		ResourceGroupName: group.Name,
		Name:              naming.RandomName("vnetsql"),
		Location:          regionLocation,
		AddressPrefixes:   []string{addressSpace},
		Subnets: []network.SubnetProperties{
			{Name: subnet1Name, AddressPrefix: subnet1Prefix, ServiceEndpoints: []string{sqlEndpoint}},
			{Name: subnet2Name, AddressPrefix: subnet2Prefix, ServiceEndpoints: []string{sqlEndpoint}},
		},
	})
	if err != nil {
		return err
	}
	slog.Info("Created a virtual network", "name", vnet.Name)
	if len(vnet.AddressPrefixes) > 0 {
		slog.Info("Virtual network address space", "prefix", vnet.AddressPrefixes[0])
	}
	for _, subnet := range vnet.Subnets {
		slog.Info("Virtual network subnet", "name", subnet.Name)
	}

	// SQL server
	slog.Info("Creating a SQL server...")
	server, err := create[sql.ServerProperties](ctx, s, sql.ServerType, sql.ServerProperties{
		ResourceGroupName:          group.Name,
		Name:                       naming.RandomName("sqlserver-vntest"),
		Location:                   regionLocation,
		AdministratorLogin:         sqlAdminLogin,
		AdministratorLoginPassword: naming.Password(),
	})
	if err != nil {
		return err
	}
	slog.Info("Created a SQL server", "name", server.Name)

	// First rule
	slog.Info("Creating one virtual network rule in SQL server...")
	subnet1ID, err := s.subnetID(ctx, vnet.ID, subnet1Name)
	if err != nil {
		return err
	}
	rule, err := create[sql.VirtualNetworkRuleProperties](ctx, s, sql.VirtualNetworkRuleType, sql.VirtualNetworkRuleProperties{
		ServerID:                         server.ID,
		Name:                             rule1Name,
		VirtualNetworkSubnetID:           subnet1ID,
		IgnoreMissingVnetServiceEndpoint: to.Ptr(false),
	})
	if err != nil {
		return err
	}
	slog.Info("Created one virtual network rule in SQL server", "name", rule.Name)

	rule, err = read[sql.VirtualNetworkRuleProperties](ctx, s, sql.VirtualNetworkRuleType, rule.ID)
	if err != nil {
		return err
	}
	slog.Info("Got the virtual network rule created above", "name", rule.Name)

	// Second rule
	slog.Info("Adding another virtual network rule in existing SQL server...")
	subnet2ID, err := s.subnetID(ctx, vnet.ID, subnet2Name)
	if err != nil {
		return err
	}
	rule, err = create[sql.VirtualNetworkRuleProperties](ctx, s, sql.VirtualNetworkRuleType, sql.VirtualNetworkRuleProperties{
		ServerID:                         server.ID,
		Name:                             rule2Name,
		VirtualNetworkSubnetID:           subnet2ID,
		IgnoreMissingVnetServiceEndpoint: to.Ptr(true),
	})
	if err != nil {
		return err
	}
	slog.Info("Added another virtual network rule in existing SQL server", "name", rule.Name)

	// Rebind the second rule to the first subnet
	slog.Info("Updating an existing virtual network rule in SQL server...")
	rule, err = update[sql.VirtualNetworkRuleProperties](ctx, s, sql.VirtualNetworkRuleType, rule.ID, rule, sql.VirtualNetworkRuleProperties{
		VirtualNetworkSubnetID: subnet1ID,
	})
	if err != nil {
		return err
	}
	slog.Info("Updated an existing virtual network rule", "subnetId", rule.VirtualNetworkSubnetID)

	// List and delete all rules
	slog.Info("Listing all virtual network rules in SQL server...")
	ruleIDs, err := s.list(ctx, sql.VirtualNetworkRuleType, map[string]string{ruleServerIDKey: server.ID})
	if err != nil {
		return err
	}
	for _, ruleID := range ruleIDs {
		slog.Info("Deleting a virtual network rule", "name", resid.NameFrom(ruleID))
		if err := s.delete(ctx, sql.VirtualNetworkRuleType, ruleID); err != nil {
			return err
		}
	}

	slog.Info("Deleting a SQL server...")
	return s.delete(ctx, sql.ServerType, server.ID)
}

func (s *session) subnetID(ctx context.Context, vnetID, name string) (string, error) {
	subnet, err := read[network.SubnetProperties](ctx, s, network.SubnetType, resid.Subnet(vnetID, name))
	if err != nil {
		return "", err
	}
	return subnet.ID, nil
}

func create[T any](ctx context.Context, s *session, resourceType string, desired any) (*T, error) {
	properties, err := json.Marshal(desired)
	if err != nil {
		return nil, err
	}
	result, err := s.plugin.Create(ctx, &resource.CreateRequest{
		ResourceType: resourceType,
		Properties:   properties,
		TargetConfig: s.target,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", resourceType, err)
	}
	if err := checkProgress(resourceType, result.ProgressResult); err != nil {
		return nil, err
	}
	return props.Decode[T](result.ProgressResult.ResourceProperties)
}

func read[T any](ctx context.Context, s *session, resourceType, nativeID string) (*T, error) {
	result, err := s.plugin.Read(ctx, &resource.ReadRequest{
		NativeID:     nativeID,
		ResourceType: resourceType,
		TargetConfig: s.target,
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", resourceType, nativeID, err)
	}
	if result.ErrorCode != "" {
		return nil, fmt.Errorf("reading %s %s: %s", resourceType, nativeID, result.ErrorCode)
	}
	return props.Decode[T](json.RawMessage(result.Properties))
}

func update[T any](ctx context.Context, s *session, resourceType, nativeID string, prior, desired any) (*T, error) {
	priorProperties, err := json.Marshal(prior)
	if err != nil {
		return nil, err
	}
	desiredProperties, err := json.Marshal(desired)
	if err != nil {
		return nil, err
	}
	result, err := s.plugin.Update(ctx, &resource.UpdateRequest{
		NativeID:          nativeID,
		ResourceType:      resourceType,
		PriorProperties:   priorProperties,
		DesiredProperties: desiredProperties,
		TargetConfig:      s.target,
	})
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", resourceType, nativeID, err)
	}
	if err := checkProgress(resourceType, result.ProgressResult); err != nil {
		return nil, err
	}
	return props.Decode[T](result.ProgressResult.ResourceProperties)
}

func (s *session) list(ctx context.Context, resourceType string, parent map[string]string) ([]string, error) {
	result, err := s.plugin.List(ctx, &resource.ListRequest{
		ResourceType:         resourceType,
		AdditionalProperties: parent,
		TargetConfig:         s.target,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", resourceType, err)
	}
	return result.NativeIDs, nil
}

func (s *session) delete(ctx context.Context, resourceType, nativeID string) error {
	result, err := s.plugin.Delete(ctx, &resource.DeleteRequest{
		NativeID:     nativeID,
		ResourceType: resourceType,
		TargetConfig: s.target,
	})
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", resourceType, nativeID, err)
	}
	return checkProgress(resourceType, result.ProgressResult)
}

func checkProgress(resourceType string, progress *resource.ProgressResult) error {
	if progress == nil {
		return fmt.Errorf("%s: no progress reported", resourceType)
	}
	if progress.OperationStatus != resource.OperationStatusSuccess {
		return fmt.Errorf("%s %s: %s %s %s", progress.Operation, resourceType, progress.OperationStatus, progress.ErrorCode, progress.StatusMessage)
	}
	return nil
}
