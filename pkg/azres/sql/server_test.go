// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package sql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azx/azxtest"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/helper"
)

func armServer() *armsql.Server {
	return &armsql.Server{
		ID:       to.Ptr(testServerID),
		Name:     to.Ptr("server1"),
		Location: to.Ptr("southeastasia"),
		Tags:     map[string]*string{"env": to.Ptr("test")},
		Properties: &armsql.ServerProperties{
			AdministratorLogin:       to.Ptr("sqladmin1234"),
			Version:                  to.Ptr("12.0"),
			FullyQualifiedDomainName: to.Ptr("server1.database.windows.net"),
			State:                    to.Ptr("Ready"),
		},
	}
}

func TestServer_Create(t *testing.T) {
	ctx := context.Background()
	client := &mockAPI{}
	client.On("CreateServer", ctx, "rg", "server1", mock.MatchedBy(func(server armsql.Server) bool {
		return *server.Location == "southeastasia" &&
			*server.Properties.AdministratorLogin == "sqladmin1234" &&
			*server.Properties.AdministratorLoginPassword == "Pa5$secret" &&
			*server.Tags["env"] == "test"
	})).Return(armServer(), nil)

	properties := json.RawMessage(`{
		"ResourceGroupName": "rg",
		"Name": "server1",
		"Location": "southeastasia",
		"AdministratorLogin": "sqladmin1234",
		"AdministratorLoginPassword": "Pa5$secret",
		"Tags": [{"Key": "env", "Value": "test"}]
	}`)
	s := &Server{client: client}
	result, err := s.Create(ctx, &resource.CreateRequest{ResourceType: ServerType, Properties: properties})
	require.NoError(t, err)

	assert.Equal(t, testServerID, result.ProgressResult.NativeID)
	var created ServerProperties
	require.NoError(t, json.Unmarshal(result.ProgressResult.ResourceProperties, &created))
	assert.Empty(t, created.AdministratorLoginPassword)
	assert.Equal(t, "server1.database.windows.net", created.FullyQualifiedDomainName)
	assert.Equal(t, "Ready", created.ProvisioningState)
	client.AssertExpectations(t)
}

func TestServer_Create_RequiresAdministrator(t *testing.T) {
	s := &Server{client: &mockAPI{}}

	_, err := s.Create(context.Background(), &resource.CreateRequest{
		Properties: json.RawMessage(`{"ResourceGroupName":"rg","Name":"server1","Location":"southeastasia"}`),
	})
	assert.ErrorContains(t, err, "AdministratorLogin")
}

func TestServer_Read(t *testing.T) {
	ctx := context.Background()
	client := &mockAPI{}
	client.On("GetServer", ctx, "rg", "server1").Return(armServer(), nil)

	s := &Server{client: client}
	result, err := s.Read(ctx, &resource.ReadRequest{NativeID: testServerID, ResourceType: ServerType})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"Id": "`+testServerID+`",
		"ResourceGroupName": "rg",
		"Name": "server1",
		"Location": "southeastasia",
		"AdministratorLogin": "sqladmin1234",
		"Version": "12.0",
		"Tags": [{"Key": "env", "Value": "test"}],
		"FullyQualifiedDomainName": "server1.database.windows.net",
		"ProvisioningState": "Ready"
	}`, result.Properties)
}

func TestServer_Read_WrongType(t *testing.T) {
	s := &Server{client: &mockAPI{}}

	_, err := s.Read(context.Background(), &resource.ReadRequest{NativeID: testRuleID})
	assert.ErrorContains(t, err, "expected Microsoft.Sql/servers")
}

func TestServer_Delete(t *testing.T) {
	ctx := context.Background()
	client := &mockAPI{}
	client.On("DeleteServer", ctx, "rg", "server1").Return(nil)

	s := &Server{client: client}
	result, err := s.Delete(ctx, &resource.DeleteRequest{NativeID: testServerID})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationStatusSuccess, result.ProgressResult.OperationStatus)
	client.AssertExpectations(t)
}

func TestServer_Delete_Failure(t *testing.T) {
	ctx := context.Background()
	client := &mockAPI{}
	client.On("DeleteServer", ctx, "rg", "server1").Return(azxtest.ResponseError(http.StatusConflict, "Conflict", ""))

	s := &Server{client: client}
	result, err := s.Delete(ctx, &resource.DeleteRequest{NativeID: testServerID})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationStatusFailure, result.ProgressResult.OperationStatus)
	assert.Equal(t, resource.OperationDelete, result.ProgressResult.Operation)
	assert.Equal(t, helper.ErrorCodeResourceConflict, result.ProgressResult.ErrorCode)
	assert.Equal(t, testServerID, result.ProgressResult.NativeID)
	assert.NotEmpty(t, result.ProgressResult.StatusMessage)
}

func TestServer_Delete_UnclassifiedError(t *testing.T) {
	ctx := context.Background()
	client := &mockAPI{}
	client.On("DeleteServer", ctx, "rg", "server1").Return(errors.New("connection reset"))

	s := &Server{client: client}
	_, err := s.Delete(ctx, &resource.DeleteRequest{NativeID: testServerID})
	assert.ErrorContains(t, err, "failed to delete sql server server1")
}

func TestServer_Read_AccessDenied(t *testing.T) {
	ctx := context.Background()
	client := &mockAPI{}
	client.On("GetServer", ctx, "rg", "server1").
		Return((*armsql.Server)(nil), azxtest.ResponseError(http.StatusForbidden, "AuthorizationFailed", testServerID))

	s := &Server{client: client}
	result, err := s.Read(ctx, &resource.ReadRequest{NativeID: testServerID})
	require.NoError(t, err)
	assert.Equal(t, ServerType, result.ResourceType)
	assert.Equal(t, helper.ErrorCodeAccessDenied, result.ErrorCode)
	assert.Empty(t, result.Properties)
}

func TestServer_List(t *testing.T) {
	ctx := context.Background()
	client := &mockAPI{}
	client.On("ListServers", ctx, "rg").Return([]*armsql.Server{armServer()}, nil)

	s := &Server{client: client}
	result, err := s.List(ctx, &resource.ListRequest{AdditionalProperties: map[string]string{"ResourceGroupName": "rg"}})
	require.NoError(t, err)
	assert.Equal(t, []string{testServerID}, result.NativeIDs)
}
