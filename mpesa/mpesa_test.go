package mpesa

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testConfig() Config {
	return Config{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		Passkey:        "passkey",
		ShortCode:      "174379",
		Environment:    EnvSandbox,
		CallbackURL:    "https://example.com/webhooks/stk",
		ResultURL:      "https://example.com/webhooks/b2c/result",
		TimeoutURL:     "https://example.com/webhooks/b2c/timeout",
		InitiatorName:  "testapi",
	}
}

// newTestClient builds a client pointed at a local test server. The server
// must answer the OAuth endpoint; tokenHits, when non-nil, counts exchanges.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := testConfig()
	client := &Client{
		config:     config,
		baseURL:    server.URL,
		httpClient: server.Client(),
	}
	client.tokens = newTokenManager(config, server.URL, server.Client())

	return client, server
}

func serveToken(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"access_token":"test-token","expires_in":"3599"}`))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing consumer key", func(c *Config) { c.ConsumerKey = "" }, true},
		{"missing consumer secret", func(c *Config) { c.ConsumerSecret = "" }, true},
		{"missing passkey", func(c *Config) { c.Passkey = "" }, true},
		{"non-numeric shortcode", func(c *Config) { c.ShortCode = "abc123" }, true},
		{"unknown environment", func(c *Config) { c.Environment = "staging" }, true},
		{"bad callback url", func(c *Config) { c.CallbackURL = "not-a-url" }, true},
		{"no optional urls", func(c *Config) {
			c.CallbackURL = ""
			c.ResultURL = ""
			c.TimeoutURL = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig()
			tt.mutate(&config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if _, ok := err.(*ValidationError); !ok {
					t.Errorf("error type = %T, want *ValidationError", err)
				}
			}
		})
	}
}

func TestNewClientBaseURL(t *testing.T) {
	tests := []struct {
		environment string
		want        string
	}{
		{EnvSandbox, apiSandboxURL},
		{EnvProduction, apiProductionURL},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			config := testConfig()
			config.Environment = tt.environment

			client, err := NewClient(config)
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if client.BaseURL() != tt.want {
				t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), tt.want)
			}
		})
	}
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for empty config")
	}
}
