// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package prov

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/helper"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/status"
)

// Provisioner is the interface that all Azure resource provisioners must implement.
type Provisioner interface {
	Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error)
	Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error)
	Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error)
	Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error)
	Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error)
	List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error)
}

// Success builds the progress of an operation that ran to completion.
// ARM long-running operations are polled until done, so no operation is
// ever reported in progress.
func Success(operation resource.Operation, nativeID string, properties any) *resource.ProgressResult {
	result := &resource.ProgressResult{
		Operation:       operation,
		OperationStatus: resource.OperationStatusSuccess,
		RequestID:       uuid.NewString(),
		NativeID:        nativeID,
	}
	if properties != nil {
		encoded, err := json.Marshal(properties)
		if err != nil {
			slog.Warn("Failed to encode resource properties", "nativeID", nativeID, "error", err)
		} else {
			result.ResourceProperties = encoded
		}
	}
	return result
}

// Failed reports an ARM error as a failed operation carrying its formae
// error code. It returns nil for errors ARM did not answer with, which the
// caller returns as plain errors.
func Failed(operation resource.Operation, nativeID string, err error) *resource.ProgressResult {
	code, ok := helper.HandleAzureError(err)
	if !ok {
		return nil
	}
	return &resource.ProgressResult{
		Operation:       operation,
		OperationStatus: resource.OperationStatusFailure,
		RequestID:       uuid.NewString(),
		NativeID:        nativeID,
		StatusMessage:   err.Error(),
		ErrorCode:       code,
	}
}

// ReadFailed is the read counterpart of Failed.
func ReadFailed(resourceType string, err error) *resource.ReadResult {
	code, ok := helper.HandleAzureError(err)
	if !ok {
		return nil
	}
	return &resource.ReadResult{
		ResourceType: resourceType,
		ErrorCode:    code,
	}
}


// StatusFromRead reads the resource and reports its provisioning state.
// A resource that is gone reports success, which is what a finished
// delete looks like.
func StatusFromRead(ctx context.Context, request *resource.StatusRequest, read func(context.Context, *resource.ReadRequest) (*resource.ReadResult, error)) (*resource.StatusResult, error) {
	readResult, err := read(ctx, &resource.ReadRequest{
		NativeID:     request.NativeID,
		ResourceType: request.ResourceType,
		TargetConfig: request.TargetConfig,
	})
	if err != nil {
		return nil, err
	}

	if readResult.ErrorCode == resource.OperationErrorCodeNotFound {
		return &resource.StatusResult{
			ProgressResult: &resource.ProgressResult{
				Operation:       resource.OperationCheckStatus,
				OperationStatus: resource.OperationStatusSuccess,
				RequestID:       request.RequestID,
				NativeID:        request.NativeID,
				ErrorCode:       readResult.ErrorCode,
			},
		}, nil
	}
	if readResult.ErrorCode != "" {
		return &resource.StatusResult{
			ProgressResult: &resource.ProgressResult{
				Operation:       resource.OperationCheckStatus,
				OperationStatus: resource.OperationStatusFailure,
				RequestID:       request.RequestID,
				NativeID:        request.NativeID,
				ErrorCode:       readResult.ErrorCode,
			},
		}, nil
	}

	var state struct {
		ProvisioningState string `json:"ProvisioningState"`
	}
	if err := json.Unmarshal([]byte(readResult.Properties), &state); err != nil {
		return nil, fmt.Errorf("decoding properties of %s: %w", request.NativeID, err)
	}
	operationStatus := resource.OperationStatusSuccess
	if state.ProvisioningState != "" {
		operationStatus = status.FromProvisioningState(state.ProvisioningState)
	}

	return &resource.StatusResult{
		ProgressResult: &resource.ProgressResult{
			Operation:          resource.OperationCheckStatus,
			OperationStatus:    operationStatus,
			RequestID:          request.RequestID,
			NativeID:           request.NativeID,
			ResourceProperties: json.RawMessage(readResult.Properties),
		},
	}, nil
}
