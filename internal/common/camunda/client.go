// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"loan-eligibility-workers/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

const defaultConnectionTimeout = 10 * time.Second

// Client owns the gateway connection the eligibility workers poll through.
type Client struct {
	client            zbc.Client
	connectionTimeout time.Duration
}

// ClientConfig holds configuration for the Camunda/Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration

	// Credentials is optional; set it for gateways behind OAuth.
	Credentials *zbc.OAuthProviderConfig
}

// ClientConfigFrom maps the camunda config block onto ClientConfig.
func ClientConfigFrom(cfg config.CamundaConfig) *ClientConfig {
	cc := &ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: !cfg.TLS,
		RequestTimeout:         config.GetDuration(cfg.RequestTimeout),
	}
	if cfg.ClientID != "" {
		cc.Credentials = &zbc.OAuthProviderConfig{
			ClientID:               cfg.ClientID,
			ClientSecret:           cfg.ClientSecret,
			AuthorizationServerURL: cfg.AuthorizationServerURL,
			Audience:               cfg.Audience,
		}
	}
	return cc
}

// NewClientWithConfig creates a Zeebe client and verifies the gateway answers
// a topology request within ConnectionTimeout.
func NewClientWithConfig(cc *ClientConfig) (*Client, error) {
	timeout := cc.ConnectionTimeout
	if timeout <= 0 {
		timeout = defaultConnectionTimeout
	}

	zcfg := &zbc.ClientConfig{
		GatewayAddress:         cc.GatewayAddress,
		UsePlaintextConnection: cc.UsePlaintextConnection,
	}
	if cc.Credentials != nil {
		provider, err := zbc.NewOAuthCredentialsProvider(cc.Credentials)
		if err != nil {
			return nil, fmt.Errorf("zeebe oauth credentials: %w", err)
		}
		zcfg.CredentialsProvider = provider
	}

	zeebeClient, err := zbc.NewClient(zcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, connectionTimeout: timeout}
	if err := c.HealthCheck(context.Background()); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("gateway %s unreachable: %w", cc.GatewayAddress, err)
	}
	return c, nil
}

// GetClient returns the raw Zeebe client.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the gateway for its topology and requires at least one broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.connectionTimeout)
	defer cancel()

	topology, err := c.client.NewTopologyCommand().Send(ctx)
	if err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	if len(topology.GetBrokers()) == 0 {
		return fmt.Errorf("zeebe health check failed: no brokers in topology")
	}
	return nil
}
