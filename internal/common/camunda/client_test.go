package camunda

import (
	"testing"
	"time"

	"loan-eligibility-workers/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConfigFrom_Plaintext(t *testing.T) {
	cc := ClientConfigFrom(config.CamundaConfig{
		BrokerAddress:  "localhost:26500",
		RequestTimeout: 15000,
	})

	assert.Equal(t, "localhost:26500", cc.GatewayAddress)
	assert.True(t, cc.UsePlaintextConnection)
	assert.Equal(t, 15*time.Second, cc.RequestTimeout)
	assert.Nil(t, cc.Credentials)
}

func TestClientConfigFrom_OAuth(t *testing.T) {
	cc := ClientConfigFrom(config.CamundaConfig{
		BrokerAddress:          "cluster.bru-2.zeebe.camunda.io:443",
		TLS:                    true,
		ClientID:               "loan-workers",
		ClientSecret:           "secret",
		AuthorizationServerURL: "https://login.cloud.camunda.io/oauth/token",
		Audience:               "zeebe.camunda.io",
	})

	assert.False(t, cc.UsePlaintextConnection)
	require.NotNil(t, cc.Credentials)
	assert.Equal(t, "loan-workers", cc.Credentials.ClientID)
	assert.Equal(t, "zeebe.camunda.io", cc.Credentials.Audience)
}
