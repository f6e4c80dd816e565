package mpesa

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// API URLs
	apiSandboxURL    = "https://sandbox.safaricom.co.ke"
	apiProductionURL = "https://api.safaricom.co.ke"

	// API Endpoints
	endpointOAuth             = "/oauth/v1/generate?grant_type=client_credentials"
	endpointSTKPush           = "/mpesa/stkpush/v1/processrequest"
	endpointSTKQuery          = "/mpesa/stkpushquery/v1/query"
	endpointB2C               = "/mpesa/b2c/v1/paymentrequest"
	endpointB2B               = "/mpesa/b2b/v1/paymentrequest"
	endpointAccountBalance    = "/mpesa/accountbalance/v1/query"
	endpointTransactionStatus = "/mpesa/transactionstatus/v1/query"
	endpointReversal          = "/mpesa/reversal/v1/request"
	endpointC2BRegister       = "/mpesa/c2b/v1/registerurl"
	endpointC2BSimulate       = "/mpesa/c2b/v1/simulate"
	endpointDynamicQR         = "/mpesa/qrcode/v1/generate"

	// Environments
	EnvSandbox    = "sandbox"
	EnvProduction = "production"

	// Default Values
	defaultTimeout = 30 * time.Second

	// The gateway's timestamp convention (YYYYMMDDHHmmss, EAT).
	timestampLayout = "20060102150405"
)

// environmentURLs maps an environment name to its API base URL.
var environmentURLs = map[string]string{
	EnvSandbox:    apiSandboxURL,
	EnvProduction: apiProductionURL,
}

// Config holds the merchant credentials and callback endpoints for the
// Daraja API. It is immutable after NewClient; all components share it
// by reference.
type Config struct {
	ConsumerKey    string `validate:"required"`
	ConsumerSecret string `validate:"required"`
	Passkey        string `validate:"required"`
	ShortCode      string `validate:"required,numeric"`
	Environment    string `validate:"required,oneof=sandbox production"`

	// Callback endpoints registered with the gateway. CallbackURL receives
	// STK results; ResultURL/TimeoutURL receive B2C/B2B/balance/status/
	// reversal results.
	CallbackURL string `validate:"omitempty,url"`
	ResultURL   string `validate:"omitempty,url"`
	TimeoutURL  string `validate:"omitempty,url"`

	// Initiator identity for B2C/B2B/balance/status/reversal operations.
	InitiatorName      string
	SecurityCredential string

	// Timeout applies to every outbound HTTP call. Zero means the default
	// of 30 seconds.
	Timeout time.Duration
}

// Validate checks the configuration against the field constraints above.
func (c Config) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return &ValidationError{Field: first.Field(), Message: "failed '" + first.Tag() + "' validation"}
		}
		return err
	}
	return nil
}

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

func configValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Client talks to the Daraja REST API. It owns the token cache; everything
// else it holds is read-only after construction.
type Client struct {
	config     Config
	baseURL    string
	httpClient *http.Client
	tokens     *tokenManager
}

// NewClient creates a gateway client for the given configuration.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}

	c := &Client{
		config:     config,
		baseURL:    environmentURLs[config.Environment],
		httpClient: httpClient,
	}
	c.tokens = newTokenManager(config, c.baseURL, httpClient)

	return c, nil
}

// BaseURL returns the environment-selected API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return c.config
}
