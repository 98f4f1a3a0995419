// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package network

import (
	"context"
	"fmt"

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

const SubnetType = "Azure::Network::Subnet"

// Subnet exposes the subnets of a virtual network. Subnets are declared
// inline on the virtual network, so only read, status and list are served.
type Subnet struct {
	client azx.API
}

type SubnetProperties struct {
	ID                 string   `json:"Id,omitempty"`
	ResourceGroupName  string   `json:"ResourceGroupName,omitempty"`
	VirtualNetworkName string   `json:"VirtualNetworkName,omitempty"`
	Name               string   `json:"Name"`
	AddressPrefix      string   `json:"AddressPrefix"`
	ServiceEndpoints   []string `json:"ServiceEndpoints,omitempty"`
	ProvisioningState  string   `json:"ProvisioningState,omitempty"`
}

var _ prov.Provisioner = &Subnet{}

func init() {
	registry.Register(SubnetType,
		[]resource.Operation{
			resource.OperationRead,
			resource.OperationCheckStatus,
			resource.OperationList},
		func(client azx.API) prov.Provisioner {
			return &Subnet{client: client}
		})
}

func (s SubnetProperties) toAzure() *armnetwork.Subnet {
	endpoints := make([]*armnetwork.ServiceEndpointPropertiesFormat, 0, len(s.ServiceEndpoints))
	for _, service := range s.ServiceEndpoints {
		endpoints = append(endpoints, &armnetwork.ServiceEndpointPropertiesFormat{
			Service: to.Ptr(service),
		})
	}
	return &armnetwork.Subnet{
		Name: to.Ptr(s.Name),
		Properties: &armnetwork.SubnetPropertiesFormat{
			AddressPrefix:    to.Ptr(s.AddressPrefix),
			ServiceEndpoints: endpoints,
		},
	}
}

func (s *Subnet) Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeSubnet)
	if err != nil {
		return nil, err
	}

	subnet, err := s.client.GetSubnet(ctx, id.ResourceGroupName, id.Parent.Name, id.Name)
	if err != nil {
		if result := prov.ReadFailed(SubnetType, err); result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read subnet %s: %w", id.Name, err)
	}

	properties := subnetProperties(id.ResourceGroupName, id.Parent.Name, subnet)
	if properties.ID == "" {
		properties.ID = request.NativeID
	}
	encoded, err := props.Encode(properties)
	if err != nil {
		return nil, err
	}

	return &resource.ReadResult{
		ResourceType: SubnetType,
		Properties:   encoded,
	}, nil
}

func (s *Subnet) Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error) {
	return prov.StatusFromRead(ctx, request, s.Read)
}

func (s *Subnet) List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error) {
	vnetID, err := utils.GetStringProperty(request.AdditionalProperties, "VirtualNetworkId")
	if err != nil {
		return nil, fmt.Errorf("listing subnets: %w", err)
	}
	id, err := resid.Parse(vnetID, resid.TypeVirtualNetwork)
	if err != nil {
		return nil, err
	}

	subnets, err := s.client.ListSubnets(ctx, id.ResourceGroupName, id.Name)
	if err != nil {
		if helper.IsNotFound(err) {
			return &resource.ListResult{NativeIDs: []string{}}, nil
		}
		return nil, fmt.Errorf("failed to list subnets of %s: %w", id.Name, err)
	}

	nativeIDs := []string{}
	for _, subnet := range subnets {
		if subnet.ID != nil {
			nativeIDs = append(nativeIDs, *subnet.ID)
		} else if subnet.Name != nil {
			nativeIDs = append(nativeIDs, resid.Subnet(vnetID, *subnet.Name))
		}
	}

	return &resource.ListResult{
		NativeIDs: nativeIDs,
	}, nil
}

func (s *Subnet) Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error) {
	return nil, fmt.Errorf("create not implemented - subnets are declared on %s", VirtualNetworkType)
}

func (s *Subnet) Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error) {
	return nil, fmt.Errorf("update not implemented - subnets are declared on %s", VirtualNetworkType)
}

func (s *Subnet) Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error) {
	return nil, fmt.Errorf("delete not implemented - subnets are declared on %s", VirtualNetworkType)
}

func subnetProperties(resourceGroup, vnetName string, subnet *armnetwork.Subnet) *SubnetProperties {
	properties := &SubnetProperties{
		ID:                 ptr.Value(subnet.ID),
		ResourceGroupName:  resourceGroup,
		VirtualNetworkName: vnetName,
		Name:               ptr.Value(subnet.Name),
	}
	if subnet.Properties == nil {
		return properties
	}
	properties.AddressPrefix = ptr.Value(subnet.Properties.AddressPrefix)
	for _, endpoint := range subnet.Properties.ServiceEndpoints {
		if endpoint != nil && endpoint.Service != nil {
			properties.ServiceEndpoints = append(properties.ServiceEndpoints, *endpoint.Service)
		}
	}
	properties.ProvisioningState = string(ptr.Value(subnet.Properties.ProvisioningState))
	return properties
}
