package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// tokenManager obtains and caches the OAuth access token. The cached token is
// reused until shortly before the advertised expiry; concurrent cache misses
// are coalesced into a single refresh through singleflight.
type tokenManager struct {
	config     Config
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
	now   func() time.Time
}

func newTokenManager(config Config, baseURL string, httpClient *http.Client) *tokenManager {
	return &tokenManager{
		config:     config,
		baseURL:    baseURL,
		httpClient: httpClient,
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Token returns the cached access token, refreshing it when expired. Exactly
// one refresh runs at a time: callers racing on an expired token share the
// same in-flight exchange.
func (tm *tokenManager) Token(ctx context.Context) (string, error) {
	tm.mu.Lock()
	if tm.token != "" && tm.now().Before(tm.expiresAt) {
		token := tm.token
		tm.mu.Unlock()
		return token, nil
	}
	tm.mu.Unlock()

	v, err, _ := tm.group.Do("token", func() (any, error) {
		// Re-check under the lock: a refresh that finished while we waited
		// on the group already filled the cache.
		tm.mu.Lock()
		if tm.token != "" && tm.now().Before(tm.expiresAt) {
			token := tm.token
			tm.mu.Unlock()
			return token, nil
		}
		tm.mu.Unlock()

		token, ttl, err := tm.exchange(ctx)
		if err != nil {
			return "", err
		}

		tm.mu.Lock()
		tm.token = token
		// Retain for 5/6 of the advertised lifetime (50 of 60 minutes) to
		// absorb clock skew and in-flight request latency.
		tm.expiresAt = tm.now().Add(ttl * 5 / 6)
		tm.mu.Unlock()

		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token. The client calls this when the gateway
// answers 401 so the next operation performs a fresh exchange.
func (tm *tokenManager) Invalidate() {
	tm.mu.Lock()
	tm.token = ""
	tm.expiresAt = time.Time{}
	tm.mu.Unlock()
}

// exchange performs the OAuth2 client-credentials handshake.
func (tm *tokenManager) exchange(ctx context.Context) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tm.baseURL+endpointOAuth, nil)
	if err != nil {
		return "", 0, err
	}

	auth := base64.StdEncoding.EncodeToString([]byte(tm.config.ConsumerKey + ":" + tm.config.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")

	resp, err := tm.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", 0, &TimeoutError{Operation: "token exchange", Err: err}
		}
		return "", 0, &AuthError{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &AuthError{Body: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, &AuthError{StatusCode: resp.StatusCode, Body: err.Error()}
	}
	if tr.AccessToken == "" {
		return "", 0, &AuthError{StatusCode: resp.StatusCode, Body: "response missing access_token"}
	}

	// The gateway advertises expires_in as a string of seconds ("3599").
	ttl := time.Hour
	if secs, err := strconv.Atoi(tr.ExpiresIn); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}

	return tr.AccessToken, ttl, nil
}

// Timestamp returns the current time in the gateway's YYYYMMDDHHmmss form.
func (tm *tokenManager) Timestamp() string {
	return tm.now().Format(timestampLayout)
}

// Password derives the request password for the given timestamp:
// base64(shortCode + passkey + timestamp). The same timestamp must be sent
// in the payload alongside it.
func (tm *tokenManager) Password(timestamp string) string {
	return GeneratePassword(tm.config.ShortCode, tm.config.Passkey, timestamp)
}
