// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package status

import (
	"strings"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
)

// FromProvisioningState maps the provisioningState of ARM resources, and the
// state of SQL servers and virtual network rules, to an operation status.
func FromProvisioningState(state string) resource.OperationStatus {
	var result resource.OperationStatus

	switch strings.ToLower(state) {
	case "succeeded", "ready":
		result = resource.OperationStatusSuccess
	case "failed", "canceled", "unknown":
		result = resource.OperationStatusFailure
	case "creating", "updating", "deleting", "accepted", "inprogress", "initializing", "provisioning":
		result = resource.OperationStatusInProgress
	default:
		result = resource.OperationStatusPending
	}

	return result
}
