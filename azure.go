// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/platform-engineering-labs/formae/pkg/plugin"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/prov"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/registry"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azx"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/config"
)

// Plugin implements the Formae ResourcePlugin interface.
// The SDK automatically provides identity methods (Name, Version, Namespace)
// and schema methods (SupportedResources, SchemaForResourceType) by reading
// formae-plugin.pkl and schema/pkl/ at startup.
type Plugin struct {
	// newClient builds the ARM client for a target; nil uses the Azure SDK.
	newClient func(ctx context.Context, cfg *config.Config) (azx.API, error)

	mu      sync.Mutex
	clients map[config.Config]azx.API
}

// Compile-time check: Plugin must satisfy ResourcePlugin interface.
var _ plugin.ResourcePlugin = &Plugin{}

// AKSManagedResourceTypes lists the resource types AKS creates in its node
// resource group. These resources carry an "aks-managed-*" tag.
var AKSManagedResourceTypes = []string{
	"Azure::Resources::ResourceGroup",
	"Azure::Network::VirtualNetwork",
	"Azure::Network::Subnet",
}

// RateLimit returns the rate limit configuration for this plugin
func (p *Plugin) RateLimit() plugin.RateLimitConfig {
	return plugin.RateLimitConfig{
		Scope:                            plugin.RateLimitScopeNamespace,
		MaxRequestsPerSecondForNamespace: 5,
	}
}

// DiscoveryFilters returns declarative filters for excluding resources from discovery.
// Uses RFC 9535 JSONPath with match() regex function to filter AKS-managed resources.
func (p *Plugin) DiscoveryFilters() []plugin.MatchFilter {
	return []plugin.MatchFilter{
		{
			ResourceTypes: AKSManagedResourceTypes,
			Conditions: []plugin.FilterCondition{
				{
					PropertyPath:  `$.Tags[?match(@.Key, "aks-managed-.*")].Key`,
					PropertyValue: "aks-managed-cluster-name",
				},
			},
		},
	}
}

// LabelConfig returns the label extraction configuration for discovered Azure resources.
// Every supported ARM resource is named, so the name is the label.
func (p *Plugin) LabelConfig() plugin.LabelConfig {
	return plugin.LabelConfig{
		DefaultQuery: "$.Name",
	}
}

func (p *Plugin) provisioner(ctx context.Context, resourceType string, operation resource.Operation, targetConfig json.RawMessage) (prov.Provisioner, error) {
	if !registry.HasProvisioner(resourceType, operation) {
		return nil, fmt.Errorf("resource type %s does not support %s", resourceType, operation)
	}

	client, err := p.client(ctx, targetConfig)
	if err != nil {
		return nil, err
	}

	return azres.GetProvisionerForOperation(resourceType, operation, client), nil
}

// client returns the ARM client for a target, building it on first use.
func (p *Plugin) client(ctx context.Context, targetConfig json.RawMessage) (azx.API, error) {
	cfg := config.FromTargetConfig(targetConfig)

	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[*cfg]; ok {
		return client, nil
	}

	newClient := p.newClient
	if newClient == nil {
		newClient = func(ctx context.Context, cfg *config.Config) (azx.API, error) {
			return azx.NewClient(ctx, cfg)
		}
	}
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Azure client: %w", err)
	}
	if p.clients == nil {
		p.clients = make(map[config.Config]azx.API)
	}
	p.clients[*cfg] = client
	return client, nil
}

func (p *Plugin) Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, resource.OperationCreate, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.Create(ctx, request)
}

func (p *Plugin) Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, resource.OperationUpdate, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.Update(ctx, request)
}

func (p *Plugin) Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, resource.OperationCheckStatus, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.Status(ctx, request)
}

func (p *Plugin) Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, resource.OperationDelete, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.Delete(ctx, request)
}

func (p *Plugin) Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, resource.OperationRead, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.Read(ctx, request)
}

func (p *Plugin) List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, resource.OperationList, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.List(ctx, request)
}
