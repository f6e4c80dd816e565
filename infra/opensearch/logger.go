package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// GatewayLog represents a structured gateway log entry
type GatewayLog struct {
	Timestamp         time.Time      `json:"timestamp"`
	Level             string         `json:"level"`
	Message           string         `json:"message"`
	Component         string         `json:"component,omitempty"`
	Operation         string         `json:"operation,omitempty"`
	Shortcode         string         `json:"shortcode,omitempty"`
	RequestID         string         `json:"request_id,omitempty"`
	MerchantRequestID string         `json:"merchant_request_id,omitempty"`
	CheckoutRequestID string         `json:"checkout_request_id,omitempty"`
	ResultCode        *int           `json:"result_code,omitempty"`
	ClientIP          string         `json:"client_ip,omitempty"`
	Error             string         `json:"error,omitempty"`
	Fields            map[string]any `json:"fields,omitempty"`
}

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogGatewayEvent indexes a gateway log entry.
func (l *Logger) LogGatewayEvent(ctx context.Context, entry GatewayLog) error {
	if !l.client.IsEnabled() {
		return nil // Logging disabled
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.RequestID == "" {
		entry.RequestID = uuid.New().String()
	}

	logJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: logIndexName,
		Body:  bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// SearchLogs searches gateway logs by operation within a time range. An empty
// operation matches every entry.
func (l *Logger) SearchLogs(ctx context.Context, operation string, from, to time.Time, size int) ([]GatewayLog, error) {
	if !l.client.IsEnabled() {
		return nil, nil
	}
	if size <= 0 {
		size = 100
	}

	must := []map[string]any{
		{
			"range": map[string]any{
				"timestamp": map[string]any{
					"gte": from.Format(time.RFC3339),
					"lte": to.Format(time.RFC3339),
				},
			},
		},
	}
	if operation != "" {
		must = append(must, map[string]any{
			"term": map[string]any{"operation": operation},
		})
	}

	query := map[string]any{
		"size": size,
		"sort": []map[string]any{
			{"timestamp": map[string]any{"order": "desc"}},
		},
		"query": map[string]any{
			"bool": map[string]any{"must": must},
		},
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{logIndexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("failed to search logs: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch error: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source GatewayLog `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	logs := make([]GatewayLog, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		logs = append(logs, hit.Source)
	}

	return logs, nil
}
