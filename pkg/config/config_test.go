// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package config

import (
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvTenantID, "tenant")
	t.Setenv(EnvClientID, "client")
	t.Setenv(EnvClientSecret, "secret")
	t.Setenv(EnvSubscriptionID, "sub")

	cfg := FromEnv()

	assert.Equal(t, &Config{TenantID: "tenant", ClientID: "client", ClientSecret: "secret", SubscriptionID: "sub"}, cfg)
}

func TestTargetConfigRoundTrip(t *testing.T) {
	cfg := &Config{TenantID: "tenant", ClientID: "client", ClientSecret: "s3cret", SubscriptionID: "sub"}

	raw, err := cfg.TargetConfig()
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "s3cret")
	assert.NotContains(t, string(raw), "ClientSecret")
	assert.Equal(t, &Config{TenantID: "tenant", ClientID: "client", SubscriptionID: "sub"}, FromTargetConfig(raw))
}

func TestFromTargetConfig_IgnoresSecret(t *testing.T) {
	cfg := FromTargetConfig([]byte(`{"ClientId":"client","ClientSecret":"s3cret"}`))
	assert.Empty(t, cfg.ClientSecret)
}

func TestFromTargetConfig(t *testing.T) {
	t.Run("nil target config yields empty config", func(t *testing.T) {
		assert.Equal(t, &Config{}, FromTargetConfig(nil))
	})

	t.Run("malformed target config yields empty config", func(t *testing.T) {
		assert.Equal(t, &Config{}, FromTargetConfig([]byte(`not-json`)))
	})

	t.Run("reads subscription", func(t *testing.T) {
		cfg := FromTargetConfig([]byte(`{"SubscriptionId":"sub-1"}`))
		assert.Equal(t, "sub-1", cfg.SubscriptionID)
	})
}

func TestToCredential_ClientSecret(t *testing.T) {
	cfg := &Config{TenantID: "00000000-0000-0000-0000-000000000000", ClientID: "client", ClientSecret: "secret"}

	cred, err := cfg.ToCredential()

	require.NoError(t, err)
	assert.NotNil(t, cred)
}

func TestToCredential_SecretFromEnvironment(t *testing.T) {
	t.Setenv(EnvClientSecret, "secret")
	cfg := FromTargetConfig([]byte(`{"TenantId":"00000000-0000-0000-0000-000000000000","ClientId":"client"}`))

	cred, err := cfg.ToCredential()

	require.NoError(t, err)
	assert.IsType(t, &azidentity.ClientSecretCredential{}, cred)
}

func TestClientOptions(t *testing.T) {
	opts := (&Config{}).ClientOptions()

	assert.Equal(t, int32(2), opts.Retry.MaxRetries)
}
