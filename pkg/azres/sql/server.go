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

const ServerType = "Azure::Sql::Server"

type Server struct {
	client azx.API
}

// ServerProperties is the formae shape of an Azure SQL logical server. The
// administrator password is write-only and never returned by a read.
type ServerProperties struct {
	ID                         string      `json:"Id,omitempty"`
	ResourceGroupName          string      `json:"ResourceGroupName"`
	Name                       string      `json:"Name"`
	Location                   string      `json:"Location"`
	AdministratorLogin         string      `json:"AdministratorLogin,omitempty"`
	AdministratorLoginPassword string      `json:"AdministratorLoginPassword,omitempty"`
	Version                    string      `json:"Version,omitempty"`
	Tags                       []props.Tag `json:"Tags,omitempty"`
	FullyQualifiedDomainName   string      `json:"FullyQualifiedDomainName,omitempty"`
	ProvisioningState          string      `json:"ProvisioningState,omitempty"`
}

var _ prov.Provisioner = &Server{}

func init() {
	registry.Register(ServerType,
		[]resource.Operation{
			resource.OperationRead,
			resource.OperationCreate,
			resource.OperationUpdate,
			resource.OperationCheckStatus,
			resource.OperationDelete,
			resource.OperationList},
		func(client azx.API) prov.Provisioner {
			return &Server{client: client}
		})
}

func (s *Server) Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error) {
	desired, err := props.Decode[ServerProperties](request.Properties)
	if err != nil {
		return nil, err
	}
	if desired.ResourceGroupName == "" || desired.Name == "" || desired.Location == "" {
		return nil, fmt.Errorf("sql server requires ResourceGroupName, Name and Location")
	}
	if desired.AdministratorLogin == "" || desired.AdministratorLoginPassword == "" {
		return nil, fmt.Errorf("sql server %s requires AdministratorLogin and AdministratorLoginPassword", desired.Name)
	}

	properties, err := s.createOrUpdate(ctx, desired)
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

func (s *Server) Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeServer)
	if err != nil {
		return nil, err
	}
	desired, err := props.Decode[ServerProperties](request.DesiredProperties)
	if err != nil {
		return nil, err
	}
	if desired.Name != "" && desired.Name != id.Name {
		return nil, fmt.Errorf("cannot rename sql server %s to %s", id.Name, desired.Name)
	}
	desired.Name = id.Name
	desired.ResourceGroupName = id.ResourceGroupName

	properties, err := s.createOrUpdate(ctx, desired)
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

func (s *Server) createOrUpdate(ctx context.Context, desired *ServerProperties) (*ServerProperties, error) {
	server := armsql.Server{
		Location:   to.Ptr(desired.Location),
		Tags:       props.TagsToMap(desired.Tags),
		Properties: &armsql.ServerProperties{},
	}
	if desired.AdministratorLogin != "" {
		server.Properties.AdministratorLogin = to.Ptr(desired.AdministratorLogin)
	}
	if desired.AdministratorLoginPassword != "" {
		server.Properties.AdministratorLoginPassword = to.Ptr(desired.AdministratorLoginPassword)
	}
	if desired.Version != "" {
		server.Properties.Version = to.Ptr(desired.Version)
	}

	created, err := s.client.CreateServer(ctx, desired.ResourceGroupName, desired.Name, server)
	if err != nil {
		slog.Error("Server: CreateOrUpdate failed", "name", desired.Name, "error", err)
		return nil, fmt.Errorf("failed to create sql server %s: %w", desired.Name, err)
	}

	properties := serverProperties(desired.ResourceGroupName, created)
	if properties.ID == "" {
		properties.ID = resid.Server(s.client.SubscriptionID(), desired.ResourceGroupName, desired.Name)
	}
	return properties, nil
}

func (s *Server) Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeServer)
	if err != nil {
		return nil, err
	}

	server, err := s.client.GetServer(ctx, id.ResourceGroupName, id.Name)
	if err != nil {
		if result := prov.ReadFailed(ServerType, err); result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read sql server %s: %w", id.Name, err)
	}

	properties := serverProperties(id.ResourceGroupName, server)
	if properties.ID == "" {
		properties.ID = request.NativeID
	}
	encoded, err := props.Encode(properties)
	if err != nil {
		return nil, err
	}

	return &resource.ReadResult{
		ResourceType: ServerType,
		Properties:   encoded,
	}, nil
}

func (s *Server) Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error) {
	id, err := resid.Parse(request.NativeID, resid.TypeServer)
	if err != nil {
		return nil, err
	}

	if err := s.client.DeleteServer(ctx, id.ResourceGroupName, id.Name); err != nil && !helper.IsNotFound(err) {
		slog.Error("Server: Delete failed", "name", id.Name, "error", err)
		if progress := prov.Failed(resource.OperationDelete, request.NativeID, err); progress != nil {
			return &resource.DeleteResult{ProgressResult: progress}, nil
		}
		return nil, fmt.Errorf("failed to delete sql server %s: %w", id.Name, err)
	}

	return &resource.DeleteResult{
		ProgressResult: prov.Success(resource.OperationDelete, request.NativeID, nil),
	}, nil
}

func (s *Server) Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error) {
	return prov.StatusFromRead(ctx, request, s.Read)
}

func (s *Server) List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error) {
	resourceGroup, err := utils.GetStringProperty(request.AdditionalProperties, "ResourceGroupName")
	if err != nil {
		return nil, fmt.Errorf("listing sql servers: %w", err)
	}

	servers, err := s.client.ListServers(ctx, resourceGroup)
	if err != nil {
		if helper.IsNotFound(err) {
			return &resource.ListResult{NativeIDs: []string{}}, nil
		}
		return nil, fmt.Errorf("failed to list sql servers in %s: %w", resourceGroup, err)
	}

	nativeIDs := []string{}
	for _, server := range servers {
		if server.ID != nil {
			nativeIDs = append(nativeIDs, *server.ID)
		}
	}

	return &resource.ListResult{
		NativeIDs: nativeIDs,
	}, nil
}

func serverProperties(resourceGroup string, server *armsql.Server) *ServerProperties {
	properties := &ServerProperties{
		ID:                ptr.Value(server.ID),
		ResourceGroupName: resourceGroup,
		Name:              ptr.Value(server.Name),
		Location:          ptr.Value(server.Location),
		Tags:              props.TagsToArray(server.Tags),
	}
	if server.Properties == nil {
		return properties
	}
	properties.AdministratorLogin = ptr.Value(server.Properties.AdministratorLogin)
	properties.Version = ptr.Value(server.Properties.Version)
	properties.FullyQualifiedDomainName = ptr.Value(server.Properties.FullyQualifiedDomainName)
	properties.ProvisioningState = ptr.Value(server.Properties.State)
	return properties
}
