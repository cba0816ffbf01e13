package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/paybridge/paybridge/infra/config"
)

// Config holds OpenSearch connection settings.
type Config struct {
	URL      string
	Username string
	Password string
	Index    string
	Enabled  bool
}

// ConfigFromEnv reads OpenSearch settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		URL:      config.GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
		Username: config.GetEnv("OPENSEARCH_USER", ""),
		Password: config.GetEnv("OPENSEARCH_PASSWORD", ""),
		Index:    config.GetEnv("OPENSEARCH_LOG_INDEX", "paybridge-logs"),
		Enabled:  config.GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
	}
}

// Client wraps the OpenSearch client for log shipping.
type Client struct {
	client *opensearch.Client
	config Config
}

// NewClient creates a new OpenSearch client.
func NewClient(cfg Config) (*Client, error) {
	osConfig := opensearch.Config{
		Addresses: []string{cfg.URL},
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // For development/testing
			},
		},
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}

	if cfg.Username != "" && cfg.Password != "" {
		osConfig.Username = cfg.Username
		osConfig.Password = cfg.Password
	}

	client, err := opensearch.NewClient(osConfig)
	if err != nil {
		return nil, err
	}

	return &Client{client: client, config: cfg}, nil
}

// IsEnabled reports whether log shipping is turned on.
func (c *Client) IsEnabled() bool {
	return c != nil && c.config.Enabled
}

// IndexName returns the daily index the client writes to.
func (c *Client) IndexName() string {
	return c.config.Index + "-" + time.Now().UTC().Format("2006.01.02")
}

// IndexDocument writes one JSON document to the daily index.
func (c *Client) IndexDocument(ctx context.Context, body string) error {
	req := opensearchapi.IndexRequest{
		Index: c.IndexName(),
		Body:  strings.NewReader(body),
	}

	resp, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
