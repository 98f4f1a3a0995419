// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package sql

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/prov"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/registry"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/utils"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azx"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/helper"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/props"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/ptr"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/resid"
)

const VirtualNetworkRuleType = "Azure::Sql::VirtualNetworkRule"

// VirtualNetworkRule admits traffic from one subnet to a SQL server.
type VirtualNetworkRule struct {
	client azx.API
}

type VirtualNetworkRuleProperties struct {
	ID                               string `json:"Id,omitempty"`
	ServerID                         string `json:"ServerId"`
	Name                             string `json:"Name"`
	VirtualNetworkSubnetID           string `json:"VirtualNetworkSubnetId"`
	IgnoreMissingVnetServiceEndpoint *bool  `json:"IgnoreMissingVnetServiceEndpoint,omitempty"`
	ProvisioningState                string `json:"ProvisioningState,omitempty"`
}

var _ prov.Provisioner = &VirtualNetworkRule{}

func init() {
	registry.Register(VirtualNetworkRuleType,
		[]resource.Operation{
			resource.OperationRead,
			resource.OperationCreate,
			resource.OperationUpdate,
			resource.OperationCheckStatus,
			resource.OperationDelete,
			resource.OperationList},
		func(client azx.API) prov.Provisioner {
			return &VirtualNetworkRule{client: client}
		})
}

func (v *VirtualNetworkRule) Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error) {
	desired, err := props.Decode[VirtualNetworkRuleProperties](request.Properties)
	if err != nil {
		return nil, err
	}
	if desired.ServerID == "" || desired.Name == "" {
		return nil, fmt.Errorf("virtual network rule requires ServerId and Name")
	}
	server, err := resid.Parse(desired.ServerID, resid.TypeServer)
	if err != nil {
		return nil, err
	}

	properties, err := v.createOrUpdate(ctx, server.ResourceGroupName, server.Name, desired)
	if err != nil {
		if progress := prov.Failed(resource.OperationCreate, "", err); progress != nil {
			return &resource.CreateResult{ProgressResult: progress}, nil
		}
		return nil, err
	}

	return &resource.CreateResult{
		ProgressResult: prov.Success(resource.OperationCreate, properties.ID, properties),
	}, nil
}

// Update rebinds the rule, usually to another subnet.
func (v *VirtualNetworkRule) Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeVirtualNetworkRule)
	if err != nil {
		return nil, err
	}
	desired, err := props.Decode[VirtualNetworkRuleProperties](request.DesiredProperties)
	if err != nil {
		return nil, err
	}
	if desired.Name != "" && desired.Name != id.Name {
		return nil, fmt.Errorf("cannot rename virtual network rule %s to %s", id.Name, desired.Name)
	}
	desired.Name = id.Name
	desired.ServerID = id.Parent.String()

	properties, err := v.createOrUpdate(ctx, id.ResourceGroupName, id.Parent.Name, desired)
	if err != nil {
		if progress := prov.Failed(resource.OperationUpdate, request.NativeID, err); progress != nil {
			return &resource.UpdateResult{ProgressResult: progress}, nil
		}
		return nil, err
	}

	return &resource.UpdateResult{
		ProgressResult: prov.Success(resource.OperationUpdate, properties.ID, properties),
	}, nil
}

func (v *VirtualNetworkRule) createOrUpdate(ctx context.Context, resourceGroup, serverName string, desired *VirtualNetworkRuleProperties) (*VirtualNetworkRuleProperties, error) {
	if desired.VirtualNetworkSubnetID == "" {
		return nil, fmt.Errorf("virtual network rule %s requires VirtualNetworkSubnetId", desired.Name)
	}
	if _, err := resid.Parse(desired.VirtualNetworkSubnetID, resid.TypeSubnet); err != nil {
		return nil, err
	}

	rule, err := v.client.CreateVirtualNetworkRule(ctx, resourceGroup, serverName, desired.Name, armsql.VirtualNetworkRule{
		Properties: &armsql.VirtualNetworkRuleProperties{
			VirtualNetworkSubnetID:           to.Ptr(desired.VirtualNetworkSubnetID),
			IgnoreMissingVnetServiceEndpoint: desired.IgnoreMissingVnetServiceEndpoint,
		},
	})
	if err != nil {
		slog.Error("VirtualNetworkRule: CreateOrUpdate failed", "name", desired.Name, "server", serverName, "error", err)
		return nil, fmt.Errorf("failed to create virtual network rule %s: %w", desired.Name, err)
	}

	properties := virtualNetworkRuleProperties(desired.ServerID, rule)
	if properties.ID == "" {
		properties.ID = resid.VirtualNetworkRule(desired.ServerID, desired.Name)
	}
	return properties, nil
}

func (v *VirtualNetworkRule) Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeVirtualNetworkRule)
	if err != nil {
		return nil, err
	}

	rule, err := v.client.GetVirtualNetworkRule(ctx, id.ResourceGroupName, id.Parent.Name, id.Name)
	if err != nil {
		if result := prov.ReadFailed(VirtualNetworkRuleType, err); result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read virtual network rule %s: %w", id.Name, err)
	}

	properties := virtualNetworkRuleProperties(id.Parent.String(), rule)
	if properties.ID == "" {
		properties.ID = request.NativeID
	}
	encoded, err := props.Encode(properties)
	if err != nil {
		return nil, err
	}

	return &resource.ReadResult{
		ResourceType: VirtualNetworkRuleType,
		Properties:   encoded,
	}, nil
}

func (v *VirtualNetworkRule) Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeVirtualNetworkRule)
	if err != nil {
		return nil, err
	}

	if err := v.client.DeleteVirtualNetworkRule(ctx, id.ResourceGroupName, id.Parent.Name, id.Name); err != nil && !helper.IsNotFound(err) {
		slog.Error("VirtualNetworkRule: Delete failed", "name", id.Name, "server", id.Parent.Name, "error", err)
		if progress := prov.Failed(resource.OperationDelete, request.NativeID, err); progress != nil {
			return &resource.DeleteResult{ProgressResult: progress}, nil
		}
		return nil, fmt.Errorf("failed to delete virtual network rule %s: %w", id.Name, err)
	}

	return &resource.DeleteResult{
		ProgressResult: prov.Success(resource.OperationDelete, request.NativeID, nil),
	}, nil
}

func (v *VirtualNetworkRule) Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error) {
	return prov.StatusFromRead(ctx, request, v.Read)
}

func (v *VirtualNetworkRule) List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error) {
	serverID, err := utils.GetStringProperty(request.AdditionalProperties, "ServerId")
	if err != nil {
		return nil, fmt.Errorf("listing virtual network rules: %w", err)
	}
	server, err := resid.Parse(serverID, resid.TypeServer)
	if err != nil {
		return nil, err
	}

	rules, err := v.client.ListVirtualNetworkRules(ctx, server.ResourceGroupName, server.Name)
	if err != nil {
		// A deleted server has no rules left
		if helper.IsNotFound(err) {
			return &resource.ListResult{NativeIDs: []string{}}, nil
		}
		return nil, fmt.Errorf("failed to list virtual network rules of %s: %w", server.Name, err)
	}

	nativeIDs := []string{}
	for _, rule := range rules {
		if rule.ID != nil {
			nativeIDs = append(nativeIDs, *rule.ID)
		} else if rule.Name != nil {
			nativeIDs = append(nativeIDs, resid.VirtualNetworkRule(serverID, *rule.Name))
		}
	}

	return &resource.ListResult{
		NativeIDs: nativeIDs,
	}, nil
}

func virtualNetworkRuleProperties(serverID string, rule *armsql.VirtualNetworkRule) *VirtualNetworkRuleProperties {
	properties := &VirtualNetworkRuleProperties{
		ID:       ptr.Value(rule.ID),
		ServerID: serverID,
		Name:     ptr.Value(rule.Name),
	}
	if rule.Properties == nil {
		return properties
	}
	properties.VirtualNetworkSubnetID = ptr.Value(rule.Properties.VirtualNetworkSubnetID)
	properties.IgnoreMissingVnetServiceEndpoint = rule.Properties.IgnoreMissingVnetServiceEndpoint
	properties.ProvisioningState = string(ptr.Value(rule.Properties.State))
	return properties
}
