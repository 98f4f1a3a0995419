// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/prov"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/registry"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azx"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/helper"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/props"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/ptr"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/resid"
)

const ResourceGroupType = "Azure::Resources::ResourceGroup"

type ResourceGroup struct {
	client azx.API
}

// ResourceGroupProperties is the formae shape of a resource group.
type ResourceGroupProperties struct {
	ID                string      `json:"Id,omitempty"`
	Name              string      `json:"Name"`
	Location          string      `json:"Location"`
	Tags              []props.Tag `json:"Tags,omitempty"`
	ProvisioningState string      `json:"ProvisioningState,omitempty"`
}

var _ prov.Provisioner = &ResourceGroup{}

func init() {
	registry.Register(ResourceGroupType,
		[]resource.Operation{
			resource.OperationRead,
			resource.OperationCreate,
			resource.OperationUpdate,
			resource.OperationCheckStatus,
			resource.OperationDelete,
			resource.OperationList},
		func(client azx.API) prov.Provisioner {
			return &ResourceGroup{client: client}
		})
}

func (r *ResourceGroup) Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error) {
	desired, err := props.Decode[ResourceGroupProperties](request.Properties)
	if err != nil {
		return nil, err
	}
	if desired.Name == "" || desired.Location == "" {
		return nil, fmt.Errorf("resource group requires Name and Location")
	}

	properties, err := r.createOrUpdate(ctx, desired)
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

func (r *ResourceGroup) Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeResourceGroup)
	if err != nil {
		return nil, err
	}
	desired, err := props.Decode[ResourceGroupProperties](request.DesiredProperties)
	if err != nil {
		return nil, err
	}
	if desired.Name != "" && desired.Name != id.Name {
		return nil, fmt.Errorf("cannot rename resource group %s to %s", id.Name, desired.Name)
	}
	desired.Name = id.Name

	properties, err := r.createOrUpdate(ctx, desired)
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

func (r *ResourceGroup) createOrUpdate(ctx context.Context, desired *ResourceGroupProperties) (*ResourceGroupProperties, error) {
	group, err := r.client.CreateResourceGroup(ctx, desired.Name, armresources.ResourceGroup{
		Location: to.Ptr(desired.Location),
		Tags:     props.TagsToMap(desired.Tags),
	})
	if err != nil {
		slog.Error("ResourceGroup: CreateOrUpdate failed", "name", desired.Name, "error", err)
		return nil, fmt.Errorf("failed to create resource group %s: %w", desired.Name, err)
	}

	properties := resourceGroupProperties(group)
	if properties.ID == "" {
		properties.ID = resid.ResourceGroup(r.client.SubscriptionID(), desired.Name)
	}
	return properties, nil
}

func (r *ResourceGroup) Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeResourceGroup)
	if err != nil {
		return nil, err
	}

	group, err := r.client.GetResourceGroup(ctx, id.Name)
	if err != nil {
		if result := prov.ReadFailed(ResourceGroupType, err); result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read resource group %s: %w", id.Name, err)
	}

	properties := resourceGroupProperties(group)
	if properties.ID == "" {
		properties.ID = request.NativeID
	}
	encoded, err := props.Encode(properties)
	if err != nil {
		return nil, err
	}

	return &resource.ReadResult{
		ResourceType: ResourceGroupType,
		Properties:   encoded,
	}, nil
}

// Delete removes the group and, with it, every resource it contains.
func (r *ResourceGroup) Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeResourceGroup)
	if err != nil {
		return nil, err
	}

	if err := r.client.DeleteResourceGroup(ctx, id.Name); err != nil && !helper.IsNotFound(err) {
		slog.Error("ResourceGroup: Delete failed", "name", id.Name, "error", err)
		if progress := prov.Failed(resource.OperationDelete, request.NativeID, err); progress != nil {
			return &resource.DeleteResult{ProgressResult: progress}, nil
		}
		return nil, fmt.Errorf("failed to delete resource group %s: %w", id.Name, err)
	}

	return &resource.DeleteResult{
		ProgressResult: prov.Success(resource.OperationDelete, request.NativeID, nil),
	}, nil
}

func (r *ResourceGroup) Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error) {
	return prov.StatusFromRead(ctx, request, r.Read)
}

func (r *ResourceGroup) List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error) {
	groups, err := r.client.ListResourceGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list resource groups: %w", err)
	}

	nativeIDs := []string{}
	for _, group := range groups {
		if group.ID != nil {
			nativeIDs = append(nativeIDs, *group.ID)
		}
	}

	return &resource.ListResult{
		NativeIDs: nativeIDs,
	}, nil
}

func resourceGroupProperties(group *armresources.ResourceGroup) *ResourceGroupProperties {
	properties := &ResourceGroupProperties{
		ID:       ptr.Value(group.ID),
		Name:     ptr.Value(group.Name),
		Location: ptr.Value(group.Location),
		Tags:     props.TagsToArray(group.Tags),
	}
	if group.Properties != nil {
		properties.ProvisioningState = ptr.Value(group.Properties.ProvisioningState)
	}
	return properties
}
