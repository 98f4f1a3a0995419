// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package registry

import (
	"log/slog"
	"slices"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/prov"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azx"
)

type Factory func(client azx.API) prov.Provisioner

var registry = make(map[string]map[resource.Operation]Factory)

func Register(name string, operations []resource.Operation, f Factory) {
	if _, exists := registry[name]; !exists {
		registry[name] = make(map[resource.Operation]Factory)
	}
	for _, operation := range operations {
		registry[name][operation] = f
	}
}

func Get(name string, operation resource.Operation, client azx.API) prov.Provisioner {
	if !HasProvisioner(name, operation) {
		slog.Error("Provisioner not found in registry", "name", name, "operation", operation, "registry_keys", ResourceTypes())
		return nil
	}

	provisioner := registry[name][operation](client)
	return provisioner
}

// ResourceTypes returns the registered resource types in sorted order.
func ResourceTypes() []string {
	var keys []string
	for k := range registry {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func HasProvisioner(name string, operation resource.Operation) bool {
	_, exists := registry[name][operation]
	return exists
}
