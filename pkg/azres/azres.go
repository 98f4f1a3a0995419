// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package azres

import (
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/prov"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/registry"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azx"

	_ "github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/network"
	_ "github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/resources"
	_ "github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azres/sql"
)

func GetProvisionerForOperation(resourceType string, operation resource.Operation, client azx.API) prov.Provisioner {
	return registry.Get(resourceType, operation, client)
}

// ResourceTypes lists every resource type with at least one registered
// operation.
func ResourceTypes() []string {
	return registry.ResourceTypes()
}
