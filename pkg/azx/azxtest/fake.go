// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

// Package azxtest provides an in-memory Azure Resource Manager for tests.
package azxtest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"

	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/azx"
	"github.com/platform-engineering-labs/formae-plugin-azure-sql/pkg/resid"
)

const SubscriptionID = "00000000-0000-0000-0000-000000000000"

// Fake keeps resources in memory and mimics the ARM rules the provisioners
// depend on: children require their parent, and deleting a resource group
// deletes everything inside it.
type Fake struct {
	mu sync.Mutex

	groups  map[string]*armresources.ResourceGroup
	vnets   map[string]*armnetwork.VirtualNetwork
	servers map[string]*armsql.Server
	rules   map[string]*armsql.VirtualNetworkRule

	failures map[string]error
	calls    []string
}

var _ azx.API = &Fake{}

func NewFake() *Fake {
	return &Fake{
		groups:   make(map[string]*armresources.ResourceGroup),
		vnets:    make(map[string]*armnetwork.VirtualNetwork),
		servers:  make(map[string]*armsql.Server),
		rules:    make(map[string]*armsql.VirtualNetworkRule),
		failures: make(map[string]error),
	}
}

// FailOn makes every later call of the named API method return err.
func (f *Fake) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

// Calls returns the API methods invoked so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Counts reports how many resources of each kind exist.
func (f *Fake) Counts() (groups, vnets, servers, rules int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.groups), len(f.vnets), len(f.servers), len(f.rules)
}

// NotFound builds the response error ARM returns for a missing resource.
func NotFound(id string) error {
	return ResponseError(http.StatusNotFound, "ResourceNotFound", id)
}

// ResponseError builds an ARM error response for a request on id.
func ResponseError(statusCode int, errorCode, id string) error {
	req, _ := http.NewRequest(http.MethodGet, "https://management.azure.com"+id, nil)
	return &azcore.ResponseError{
		ErrorCode:  errorCode,
		StatusCode: statusCode,
		RawResponse: &http.Response{
			Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
			StatusCode: statusCode,
			Request:    req,
		},
	}
}

func key(parts ...string) string {
	return strings.ToLower(strings.Join(parts, "/"))
}

// enter locks the fake, records the call and returns the injected failure.
// The caller unlocks.
func (f *Fake) enter(method string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	return f.failures[method]
}

func (f *Fake) SubscriptionID() string {
	return SubscriptionID
}

func (f *Fake) CreateResourceGroup(_ context.Context, name string, group armresources.ResourceGroup) (*armresources.ResourceGroup, error) {
	err := f.enter("CreateResourceGroup")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	group.ID = to.Ptr(resid.ResourceGroup(SubscriptionID, name))
	group.Name = to.Ptr(name)
	group.Type = to.Ptr(resid.TypeResourceGroup)
	group.Properties = &armresources.ResourceGroupProperties{ProvisioningState: to.Ptr("Succeeded")}
	f.groups[key(name)] = &group
	return clone(&group), nil
}

func (f *Fake) GetResourceGroup(_ context.Context, name string) (*armresources.ResourceGroup, error) {
	err := f.enter("GetResourceGroup")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	group, ok := f.groups[key(name)]
	if !ok {
		return nil, NotFound(resid.ResourceGroup(SubscriptionID, name))
	}
	return clone(group), nil
}

func (f *Fake) DeleteResourceGroup(_ context.Context, name string) error {
	err := f.enter("DeleteResourceGroup")
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := f.groups[key(name)]; !ok {
		return NotFound(resid.ResourceGroup(SubscriptionID, name))
	}
	delete(f.groups, key(name))
	prefix := key(name) + "/"
	for k := range f.vnets {
		if strings.HasPrefix(k, prefix) {
			delete(f.vnets, k)
		}
	}
	for k := range f.servers {
		if strings.HasPrefix(k, prefix) {
			delete(f.servers, k)
		}
	}
	for k := range f.rules {
		if strings.HasPrefix(k, prefix) {
			delete(f.rules, k)
		}
	}
	return nil
}

func (f *Fake) ListResourceGroups(_ context.Context) ([]*armresources.ResourceGroup, error) {
	err := f.enter("ListResourceGroups")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return values(f.groups), nil
}

func (f *Fake) CreateVirtualNetwork(_ context.Context, resourceGroup, name string, vnet armnetwork.VirtualNetwork) (*armnetwork.VirtualNetwork, error) {
	err := f.enter("CreateVirtualNetwork")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, ok := f.groups[key(resourceGroup)]; !ok {
		return nil, NotFound(resid.ResourceGroup(SubscriptionID, resourceGroup))
	}
	id := resid.VirtualNetwork(SubscriptionID, resourceGroup, name)
	vnet.ID = to.Ptr(id)
	vnet.Name = to.Ptr(name)
	if vnet.Properties == nil {
		vnet.Properties = &armnetwork.VirtualNetworkPropertiesFormat{}
	}
	vnet.Properties.ProvisioningState = to.Ptr(armnetwork.ProvisioningStateSucceeded)
	for _, subnet := range vnet.Properties.Subnets {
		subnet.ID = to.Ptr(resid.Subnet(id, *subnet.Name))
		if subnet.Properties == nil {
			subnet.Properties = &armnetwork.SubnetPropertiesFormat{}
		}
		subnet.Properties.ProvisioningState = to.Ptr(armnetwork.ProvisioningStateSucceeded)
	}
	f.vnets[key(resourceGroup, name)] = &vnet
	return clone(&vnet), nil
}

func (f *Fake) GetVirtualNetwork(_ context.Context, resourceGroup, name string) (*armnetwork.VirtualNetwork, error) {
	err := f.enter("GetVirtualNetwork")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	vnet, ok := f.vnets[key(resourceGroup, name)]
	if !ok {
		return nil, NotFound(resid.VirtualNetwork(SubscriptionID, resourceGroup, name))
	}
	return clone(vnet), nil
}

func (f *Fake) DeleteVirtualNetwork(_ context.Context, resourceGroup, name string) error {
	err := f.enter("DeleteVirtualNetwork")
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := f.vnets[key(resourceGroup, name)]; !ok {
		return NotFound(resid.VirtualNetwork(SubscriptionID, resourceGroup, name))
	}
	delete(f.vnets, key(resourceGroup, name))
	return nil
}

func (f *Fake) ListVirtualNetworks(_ context.Context, resourceGroup string) ([]*armnetwork.VirtualNetwork, error) {
	err := f.enter("ListVirtualNetworks")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, ok := f.groups[key(resourceGroup)]; !ok {
		return nil, NotFound(resid.ResourceGroup(SubscriptionID, resourceGroup))
	}
	return values(within(f.vnets, key(resourceGroup))), nil
}

func (f *Fake) GetSubnet(_ context.Context, resourceGroup, vnetName, name string) (*armnetwork.Subnet, error) {
	err := f.enter("GetSubnet")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	vnet, ok := f.vnets[key(resourceGroup, vnetName)]
	if !ok {
		return nil, NotFound(resid.VirtualNetwork(SubscriptionID, resourceGroup, vnetName))
	}
	for _, subnet := range vnet.Properties.Subnets {
		if strings.EqualFold(*subnet.Name, name) {
			return clone(subnet), nil
		}
	}
	return nil, NotFound(resid.Subnet(*vnet.ID, name))
}

func (f *Fake) ListSubnets(_ context.Context, resourceGroup, vnetName string) ([]*armnetwork.Subnet, error) {
	err := f.enter("ListSubnets")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	vnet, ok := f.vnets[key(resourceGroup, vnetName)]
	if !ok {
		return nil, NotFound(resid.VirtualNetwork(SubscriptionID, resourceGroup, vnetName))
	}
	result := make([]*armnetwork.Subnet, 0, len(vnet.Properties.Subnets))
	for _, subnet := range vnet.Properties.Subnets {
		result = append(result, clone(subnet))
	}
	return result, nil
}

func (f *Fake) CreateServer(_ context.Context, resourceGroup, name string, server armsql.Server) (*armsql.Server, error) {
	err := f.enter("CreateServer")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, ok := f.groups[key(resourceGroup)]; !ok {
		return nil, NotFound(resid.ResourceGroup(SubscriptionID, resourceGroup))
	}
	server.ID = to.Ptr(resid.Server(SubscriptionID, resourceGroup, name))
	server.Name = to.Ptr(name)
	if server.Properties == nil {
		server.Properties = &armsql.ServerProperties{}
	}
	server.Properties.FullyQualifiedDomainName = to.Ptr(name + ".database.windows.net")
	server.Properties.State = to.Ptr("Ready")
	if server.Properties.Version == nil {
		server.Properties.Version = to.Ptr("12.0")
	}
	stored := server
	storedProperties := *server.Properties
	storedProperties.AdministratorLoginPassword = nil
	stored.Properties = &storedProperties
	f.servers[key(resourceGroup, name)] = &stored
	return clone(&stored), nil
}

func (f *Fake) GetServer(_ context.Context, resourceGroup, name string) (*armsql.Server, error) {
	err := f.enter("GetServer")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	server, ok := f.servers[key(resourceGroup, name)]
	if !ok {
		return nil, NotFound(resid.Server(SubscriptionID, resourceGroup, name))
	}
	return clone(server), nil
}

func (f *Fake) DeleteServer(_ context.Context, resourceGroup, name string) error {
	err := f.enter("DeleteServer")
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := f.servers[key(resourceGroup, name)]; !ok {
		return NotFound(resid.Server(SubscriptionID, resourceGroup, name))
	}
	delete(f.servers, key(resourceGroup, name))
	for k := range within(f.rules, key(resourceGroup, name)) {
		delete(f.rules, k)
	}
	return nil
}

func (f *Fake) ListServers(_ context.Context, resourceGroup string) ([]*armsql.Server, error) {
	err := f.enter("ListServers")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, ok := f.groups[key(resourceGroup)]; !ok {
		return nil, NotFound(resid.ResourceGroup(SubscriptionID, resourceGroup))
	}
	return values(within(f.servers, key(resourceGroup))), nil
}

func (f *Fake) CreateVirtualNetworkRule(_ context.Context, resourceGroup, serverName, name string, rule armsql.VirtualNetworkRule) (*armsql.VirtualNetworkRule, error) {
	err := f.enter("CreateVirtualNetworkRule")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	server, ok := f.servers[key(resourceGroup, serverName)]
	if !ok {
		return nil, NotFound(resid.Server(SubscriptionID, resourceGroup, serverName))
	}
	if rule.Properties == nil || rule.Properties.VirtualNetworkSubnetID == nil {
		return nil, ResponseError(http.StatusBadRequest, "InvalidRequest", *server.ID)
	}
	rule.ID = to.Ptr(resid.VirtualNetworkRule(*server.ID, name))
	rule.Name = to.Ptr(name)
	rule.Properties.State = to.Ptr(armsql.VirtualNetworkRuleStateReady)
	if rule.Properties.IgnoreMissingVnetServiceEndpoint == nil {
		rule.Properties.IgnoreMissingVnetServiceEndpoint = to.Ptr(false)
	}
	f.rules[key(resourceGroup, serverName, name)] = &rule
	return clone(&rule), nil
}

func (f *Fake) GetVirtualNetworkRule(_ context.Context, resourceGroup, serverName, name string) (*armsql.VirtualNetworkRule, error) {
	err := f.enter("GetVirtualNetworkRule")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	rule, ok := f.rules[key(resourceGroup, serverName, name)]
	if !ok {
		return nil, NotFound(resid.VirtualNetworkRule(resid.Server(SubscriptionID, resourceGroup, serverName), name))
	}
	return clone(rule), nil
}

func (f *Fake) DeleteVirtualNetworkRule(_ context.Context, resourceGroup, serverName, name string) error {
	err := f.enter("DeleteVirtualNetworkRule")
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := f.rules[key(resourceGroup, serverName, name)]; !ok {
		return NotFound(resid.VirtualNetworkRule(resid.Server(SubscriptionID, resourceGroup, serverName), name))
	}
	delete(f.rules, key(resourceGroup, serverName, name))
	return nil
}

func (f *Fake) ListVirtualNetworkRules(_ context.Context, resourceGroup, serverName string) ([]*armsql.VirtualNetworkRule, error) {
	err := f.enter("ListVirtualNetworkRules")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, ok := f.servers[key(resourceGroup, serverName)]; !ok {
		return nil, NotFound(resid.Server(SubscriptionID, resourceGroup, serverName))
	}
	return values(within(f.rules, key(resourceGroup, serverName))), nil
}

// within returns the entries whose key is nested under parent.
func within[T any](m map[string]*T, parent string) map[string]*T {
	result := make(map[string]*T)
	for k, v := range m {
		rest, ok := strings.CutPrefix(k, parent+"/")
		if ok && !strings.Contains(rest, "/") {
			result[k] = v
		}
	}
	return result
}

// values returns copies of the map values ordered by key.
func values[T any](m map[string]*T) []*T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	result := make([]*T, 0, len(keys))
	for _, k := range keys {
		result = append(result, clone(m[k]))
	}
	return result
}

// clone copies the top-level struct so callers cannot rename stored
// resources. Nested pointers are shared.
func clone[T any](v *T) *T {
	c := *v
	return &c
}

// String summarises the stored resources, for test failure messages.
func (f *Fake) String() string {
	groups, vnets, servers, rules := f.Counts()
	return fmt.Sprintf("groups=%d vnets=%d servers=%d rules=%d", groups, vnets, servers, rules)
}
