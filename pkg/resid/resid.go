// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resid

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
)

const (
	TypeResourceGroup      = "Microsoft.Resources/resourceGroups"
	TypeVirtualNetwork     = "Microsoft.Network/virtualNetworks"
	TypeSubnet             = "Microsoft.Network/virtualNetworks/subnets"
	TypeServer             = "Microsoft.Sql/servers"
	TypeVirtualNetworkRule = "Microsoft.Sql/servers/virtualNetworkRules"
)

// Parse parses an ARM resource ID and checks it names a resource of the
// expected type.
func Parse(id, resourceType string) (*arm.ResourceID, error) {
	parsed, err := arm.ParseResourceID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid resource id %q: %w", id, err)
	}
	if !strings.EqualFold(parsed.ResourceType.String(), resourceType) {
		return nil, fmt.Errorf("resource id %q is a %s, expected %s", id, parsed.ResourceType.String(), resourceType)
	}
	return parsed, nil
}

func ResourceGroup(subscriptionID, name string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s", subscriptionID, name)
}

func VirtualNetwork(subscriptionID, resourceGroup, name string) string {
	return fmt.Sprintf("%s/providers/Microsoft.Network/virtualNetworks/%s", ResourceGroup(subscriptionID, resourceGroup), name)
}

func Subnet(vnetID, name string) string {
	return fmt.Sprintf("%s/subnets/%s", strings.TrimSuffix(vnetID, "/"), name)
}

func Server(subscriptionID, resourceGroup, name string) string {
	return fmt.Sprintf("%s/providers/Microsoft.Sql/servers/%s", ResourceGroup(subscriptionID, resourceGroup), name)
}

func VirtualNetworkRule(serverID, name string) string {
	return fmt.Sprintf("%s/virtualNetworkRules/%s", strings.TrimSuffix(serverID, "/"), name)
}

// NameFrom returns the last segment of a resource ID.
func NameFrom(id string) string {
	frags := strings.Split(strings.TrimSuffix(id, "/"), "/")
	return frags[len(frags)-1]
}
