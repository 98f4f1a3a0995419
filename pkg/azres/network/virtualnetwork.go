// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package network

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
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

const VirtualNetworkType = "Azure::Network::VirtualNetwork"

type VirtualNetwork struct {
	client azx.API
}

type VirtualNetworkProperties struct {
	ID                string             `json:"Id,omitempty"`
	ResourceGroupName string             `json:"ResourceGroupName"`
	Name              string             `json:"Name"`
	Location          string             `json:"Location"`
	AddressPrefixes   []string           `json:"AddressPrefixes"`
	Subnets           []SubnetProperties `json:"Subnets,omitempty"`
	Tags              []props.Tag        `json:"Tags,omitempty"`
	ProvisioningState string             `json:"ProvisioningState,omitempty"`
}

var _ prov.Provisioner = &VirtualNetwork{}

func init() {
	registry.Register(VirtualNetworkType,
		[]resource.Operation{
			resource.OperationRead,
			resource.OperationCreate,
			resource.OperationUpdate,
			resource.OperationCheckStatus,
			resource.OperationDelete,
			resource.OperationList},
		func(client azx.API) prov.Provisioner {
			return &VirtualNetwork{client: client}
		})
}

func (v *VirtualNetwork) Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error) {
	desired, err := props.Decode[VirtualNetworkProperties](request.Properties)
	if err != nil {
		return nil, err
	}
	if desired.ResourceGroupName == "" || desired.Name == "" || desired.Location == "" {
		return nil, fmt.Errorf("virtual network requires ResourceGroupName, Name and Location")
	}
	if len(desired.AddressPrefixes) == 0 {
		return nil, fmt.Errorf("virtual network %s requires at least one address prefix", desired.Name)
	}

	properties, err := v.createOrUpdate(ctx, desired)
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

func (v *VirtualNetwork) Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeVirtualNetwork)
	if err != nil {
		return nil, err
	}
	desired, err := props.Decode[VirtualNetworkProperties](request.DesiredProperties)
	if err != nil {
		return nil, err
	}
	if desired.Name != "" && desired.Name != id.Name {
		return nil, fmt.Errorf("cannot rename virtual network %s to %s", id.Name, desired.Name)
	}
	desired.Name = id.Name
	desired.ResourceGroupName = id.ResourceGroupName

	properties, err := v.createOrUpdate(ctx, desired)
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

func (v *VirtualNetwork) createOrUpdate(ctx context.Context, desired *VirtualNetworkProperties) (*VirtualNetworkProperties, error) {
	subnets := make([]*armnetwork.Subnet, 0, len(desired.Subnets))
	for _, subnet := range desired.Subnets {
		subnets = append(subnets, subnet.toAzure())
	}

	vnet, err := v.client.CreateVirtualNetwork(ctx, desired.ResourceGroupName, desired.Name, armnetwork.VirtualNetwork{
		Location: to.Ptr(desired.Location),
		Tags:     props.TagsToMap(desired.Tags),
		Properties: &armnetwork.VirtualNetworkPropertiesFormat{
			AddressSpace: &armnetwork.AddressSpace{
				AddressPrefixes: to.SliceOfPtrs(desired.AddressPrefixes...),
			},
			Subnets: subnets,
		},
	})
	if err != nil {
		slog.Error("VirtualNetwork: CreateOrUpdate failed", "name", desired.Name, "error", err)
		return nil, fmt.Errorf("failed to create virtual network %s: %w", desired.Name, err)
	}

	properties := virtualNetworkProperties(desired.ResourceGroupName, vnet)
	if properties.ID == "" {
		properties.ID = resid.VirtualNetwork(v.client.SubscriptionID(), desired.ResourceGroupName, desired.Name)
	}
	return properties, nil
}

func (v *VirtualNetwork) Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeVirtualNetwork)
	if err != nil {
		return nil, err
	}

	vnet, err := v.client.GetVirtualNetwork(ctx, id.ResourceGroupName, id.Name)
	if err != nil {
		if result := prov.ReadFailed(VirtualNetworkType, err); result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read virtual network %s: %w", id.Name, err)
	}

	properties := virtualNetworkProperties(id.ResourceGroupName, vnet)
	if properties.ID == "" {
		properties.ID = request.NativeID
	}
	encoded, err := props.Encode(properties)
	if err != nil {
		return nil, err
	}

	return &resource.ReadResult{
		ResourceType: VirtualNetworkType,
		Properties:   encoded,
	}, nil
}

func (v *VirtualNetwork) Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeVirtualNetwork)
	if err != nil {
		return nil, err
	}

	if err := v.client.DeleteVirtualNetwork(ctx, id.ResourceGroupName, id.Name); err != nil && !helper.IsNotFound(err) {
		slog.Error("VirtualNetwork: Delete failed", "name", id.Name, "error", err)
		if progress := prov.Failed(resource.OperationDelete, request.NativeID, err); progress != nil {
			return &resource.DeleteResult{ProgressResult: progress}, nil
		}
		return nil, fmt.Errorf("failed to delete virtual network %s: %w", id.Name, err)
	}

	return &resource.DeleteResult{
		ProgressResult: prov.Success(resource.OperationDelete, request.NativeID, nil),
	}, nil
}

func (v *VirtualNetwork) Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error) {
	return prov.StatusFromRead(ctx, request, v.Read)
}

func (v *VirtualNetwork) List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error) {
	resourceGroup, err := utils.GetStringProperty(request.AdditionalProperties, "ResourceGroupName")
	if err != nil {
		return nil, fmt.Errorf("listing virtual networks: %w", err)
	}

	vnets, err := v.client.ListVirtualNetworks(ctx, resourceGroup)
	if err != nil {
		// If the resource group doesn't exist, return an empty list
		if helper.IsNotFound(err) {
			return &resource.ListResult{NativeIDs: []string{}}, nil
		}
		return nil, fmt.Errorf("failed to list virtual networks in %s: %w", resourceGroup, err)
	}

	nativeIDs := []string{}
	for _, vnet := range vnets {
		if vnet.ID != nil {
			nativeIDs = append(nativeIDs, *vnet.ID)
		}
	}

	return &resource.ListResult{
		NativeIDs: nativeIDs,
	}, nil
}

func virtualNetworkProperties(resourceGroup string, vnet *armnetwork.VirtualNetwork) *VirtualNetworkProperties {
	properties := &VirtualNetworkProperties{
		ID:                ptr.Value(vnet.ID),
		ResourceGroupName: resourceGroup,
		Name:              ptr.Value(vnet.Name),
		Location:          ptr.Value(vnet.Location),
		Tags:              props.TagsToArray(vnet.Tags),
	}
	if vnet.Properties == nil {
		return properties
	}
	if vnet.Properties.AddressSpace != nil {
		properties.AddressPrefixes = ptr.Values(vnet.Properties.AddressSpace.AddressPrefixes)
	}
	for _, subnet := range vnet.Properties.Subnets {
		if subnet != nil {
			properties.Subnets = append(properties.Subnets, *subnetProperties(resourceGroup, properties.Name, subnet))
		}
	}
	properties.ProvisioningState = string(ptr.Value(vnet.Properties.ProvisioningState))
	return properties
}
