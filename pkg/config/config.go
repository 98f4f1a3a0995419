// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const (
	EnvTenantID       = "TENANT_ID"
	EnvClientID       = "CLIENT_ID"
	EnvClientSecret   = "CLIENT_SECRET"
	EnvSubscriptionID = "SUBSCRIPTION_ID"
)

type Config struct {
	TenantID       string `json:"TenantId"`
	ClientID       string `json:"ClientId"`
	SubscriptionID string `json:"SubscriptionId"`

	// ClientSecret never leaves the process; target configs are persisted.
	ClientSecret string `json:"-"`
}

// FromEnv reads the service principal and subscription from the process environment.
func FromEnv() *Config {
	return &Config{
		TenantID:       os.Getenv(EnvTenantID),
		ClientID:       os.Getenv(EnvClientID),
		ClientSecret:   os.Getenv(EnvClientSecret),
		SubscriptionID: os.Getenv(EnvSubscriptionID),
	}
}

// FromTargetConfig parses the target configuration JSON into a Config struct
func FromTargetConfig(targetConfig json.RawMessage) *Config {
	if targetConfig == nil {
		return &Config{}
	}
	config := &Config{}
	_ = json.Unmarshal(targetConfig, config)

	return config
}

// TargetConfig is the inverse of FromTargetConfig.
func (c *Config) TargetConfig() (json.RawMessage, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling target config: %w", err)
	}
	return data, nil
}

// ToCredential returns a client secret credential when a service principal
// is configured, and the default credential chain otherwise. A config parsed
// from a target config carries no secret, so it is read from CLIENT_SECRET.
func (c *Config) ToCredential() (azcore.TokenCredential, error) {
	secret := c.ClientSecret
	if secret == "" {
		secret = os.Getenv(EnvClientSecret)
	}
	if secret != "" && c.TenantID != "" && c.ClientID != "" {
		return azidentity.NewClientSecretCredential(c.TenantID, c.ClientID, secret, nil)
	}

	var opts *azidentity.DefaultAzureCredentialOptions
	if c.TenantID != "" {
		opts = &azidentity.DefaultAzureCredentialOptions{TenantID: c.TenantID}
	}
	return azidentity.NewDefaultAzureCredential(opts)
}

// ClientOptions returns the ARM client options shared by every resource client.
func (c *Config) ClientOptions() *arm.ClientOptions {
	// Keep retries low: callers drive each operation to completion and
	// surface failures instead of waiting out long throttling windows.
	return &arm.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    2,
				MaxRetryDelay: 30 * time.Second,
			},
		},
	}
}
