// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package helper

import (
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
)

const (
	ErrorCodeAlreadyExists        resource.OperationErrorCode = "AlreadyExists"
	ErrorCodeResourceConflict     resource.OperationErrorCode = "ResourceConflict"
	ErrorCodeThrottling           resource.OperationErrorCode = "Throttling"
	ErrorCodeAccessDenied         resource.OperationErrorCode = "AccessDenied"
	ErrorCodeInvalidCredentials   resource.OperationErrorCode = "InvalidCredentials"
	ErrorCodeInvalidRequest       resource.OperationErrorCode = "InvalidRequest"
	ErrorCodeServiceInternalError resource.OperationErrorCode = "ServiceInternalError"
)

// HandleAzureError checks if the provided error is an ARM response error and
// returns the corresponding formae error code and whether it was identified.
// E.g. a 404 or a ResourceGroupNotFound error code is mapped to NotFound.
func HandleAzureError(err error) (resource.OperationErrorCode, bool) {
	if err == nil {
		return "", false
	}

	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		// Not an ARM response
		return "", false
	}

	// Some services answer with a generic status and a specific code
	switch respErr.ErrorCode {
	case "ResourceNotFound", "ResourceGroupNotFound", "ParentResourceNotFound", "NotFound":
		return resource.OperationErrorCodeNotFound, true
	case "ResourceGroupBeingDeleted", "AnotherOperationInProgress", "Conflict":
		return ErrorCodeResourceConflict, true
	case "InvalidAuthenticationToken", "InvalidAuthenticationTokenTenant", "ExpiredAuthenticationToken":
		return ErrorCodeInvalidCredentials, true
	}

	switch {
	case respErr.StatusCode == http.StatusNotFound:
		return resource.OperationErrorCodeNotFound, true
	case respErr.StatusCode == http.StatusConflict:
		return ErrorCodeAlreadyExists, true
	case respErr.StatusCode == http.StatusTooManyRequests:
		return ErrorCodeThrottling, true
	case respErr.StatusCode == http.StatusUnauthorized:
		return ErrorCodeInvalidCredentials, true
	case respErr.StatusCode == http.StatusForbidden:
		return ErrorCodeAccessDenied, true
	case respErr.StatusCode == http.StatusBadRequest:
		return ErrorCodeInvalidRequest, true
	case respErr.StatusCode >= http.StatusInternalServerError:
		return ErrorCodeServiceInternalError, true
	default:
		return "", false
	}
}

// IsNotFound reports whether err is an ARM not-found response.
func IsNotFound(err error) bool {
	code, ok := HandleAzureError(err)
	return ok && code == resource.OperationErrorCodeNotFound
}
