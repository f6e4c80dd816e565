// Package opensearch ships structured gateway logs to an OpenSearch cluster.
// The sink is optional; when disabled every operation is a no-op.
package opensearch

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/sokopay/daraja/infra/config"
)

const logIndexName = "daraja-gateway-logs"

// Client wraps the OpenSearch client.
type Client struct {
	client  *opensearch.Client
	enabled bool
}

// NewClient creates a new OpenSearch client from the service configuration.
func NewClient(cfg *config.AppConfig) (*Client, error) {
	opensearchConfig := opensearch.Config{
		Addresses: []string{cfg.OpenSearchURL},
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

	if cfg.OpenSearchUser != "" && cfg.OpenSearchPass != "" {
		opensearchConfig.Username = cfg.OpenSearchUser
		opensearchConfig.Password = cfg.OpenSearchPass
	}

	client, err := opensearch.NewClient(opensearchConfig)
	if err != nil {
		return nil, err
	}

	osClient := &Client{
		client:  client,
		enabled: cfg.EnableLogging,
	}

	if err := osClient.setupIndex(); err != nil {
		log.Printf("Warning: Failed to setup OpenSearch index: %v", err)
	}

	return osClient, nil
}

// GetClient returns the underlying OpenSearch client.
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// IsEnabled reports whether log shipping is active.
func (c *Client) IsEnabled() bool {
	return c != nil && c.enabled
}

// setupIndex creates the gateway log index if it does not exist yet.
func (c *Client) setupIndex() error {
	exists, err := c.indexExists(logIndexName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := c.createLogIndex(logIndexName); err != nil {
		return err
	}
	log.Printf("Created OpenSearch index: %s", logIndexName)
	return nil
}

// indexExists checks if an index exists
func (c *Client) indexExists(indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	res, err := req.Do(nil, c.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	return res.StatusCode == 200, nil
}

// createLogIndex creates a new index for gateway logs with proper mapping
func (c *Client) createLogIndex(indexName string) error {
	mapping := `{
		"mappings": {
			"properties": {
				"timestamp": {
					"type": "date",
					"format": "strict_date_optional_time||epoch_millis"
				},
				"level": {
					"type": "keyword"
				},
				"message": {
					"type": "text"
				},
				"component": {
					"type": "keyword"
				},
				"operation": {
					"type": "keyword"
				},
				"shortcode": {
					"type": "keyword"
				},
				"request_id": {
					"type": "keyword"
				},
				"merchant_request_id": {
					"type": "keyword"
				},
				"checkout_request_id": {
					"type": "keyword"
				},
				"result_code": {
					"type": "integer"
				},
				"client_ip": {
					"type": "ip"
				},
				"error": {
					"type": "text"
				},
				"fields": {
					"type": "object"
				}
			}
		},
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0
		}
	}`

	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(nil, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to create index %s: %s", indexName, res.String())
	}

	return nil
}
