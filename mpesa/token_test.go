package mpesa

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTokenExchange(t *testing.T) {
	var exchanges int32
	var gotAuth string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/oauth") {
			atomic.AddInt32(&exchanges, 1)
			gotAuth = r.Header.Get("Authorization")
			serveToken(w)
			return
		}
		http.NotFound(w, r)
	})

	token, err := client.tokens.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "test-token" {
		t.Errorf("Token() = %q, want test-token", token)
	}

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:secret"))
	if gotAuth != wantAuth {
		t.Errorf("Authorization = %q, want %q", gotAuth, wantAuth)
	}
	if n := atomic.LoadInt32(&exchanges); n != 1 {
		t.Errorf("exchanges = %d, want 1", n)
	}
}

func TestTokenReuse(t *testing.T) {
	var exchanges int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&exchanges, 1)
		serveToken(w)
	})

	for i := 0; i < 5; i++ {
		if _, err := client.tokens.Token(context.Background()); err != nil {
			t.Fatalf("Token() call %d error = %v", i, err)
		}
	}

	if n := atomic.LoadInt32(&exchanges); n != 1 {
		t.Errorf("exchanges = %d, want 1 for cached reuse", n)
	}
}

func TestTokenRefreshAfterExpiry(t *testing.T) {
	var exchanges int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&exchanges, 1)
		serveToken(w)
	})

	current := time.Now()
	client.tokens.now = func() time.Time { return current }

	if _, err := client.tokens.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	// Within the retained lifetime (5/6 of 3599s): still cached.
	current = current.Add(45 * time.Minute)
	if _, err := client.tokens.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if n := atomic.LoadInt32(&exchanges); n != 1 {
		t.Fatalf("exchanges = %d after 45m, want 1", n)
	}

	// Past the retained lifetime: refreshed.
	current = current.Add(10 * time.Minute)
	if _, err := client.tokens.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if n := atomic.LoadInt32(&exchanges); n != 2 {
		t.Errorf("exchanges = %d after expiry, want 2", n)
	}
}

func TestTokenSingleFlight(t *testing.T) {
	var exchanges int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&exchanges, 1)
		time.Sleep(20 * time.Millisecond)
		serveToken(w)
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.tokens.Token(context.Background()); err != nil {
				t.Errorf("Token() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&exchanges); n != 1 {
		t.Errorf("exchanges = %d for concurrent misses, want 1", n)
	}
}

func TestTokenAuthError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorMessage":"Invalid credentials"}`))
	})

	_, err := client.tokens.Token(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected credentials")
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error type = %T, want *AuthError", err)
	}
	if authErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", authErr.StatusCode)
	}
	if !strings.Contains(authErr.Body, "Invalid credentials") {
		t.Errorf("Body = %q, want raw gateway body", authErr.Body)
	}
}

func TestTokenMissingAccessToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"expires_in":"3599"}`))
	})

	_, err := client.tokens.Token(context.Background())
	if err == nil {
		t.Fatal("expected error for response without access_token")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error type = %T, want *AuthError", err)
	}
}

func TestTokenInvalidate(t *testing.T) {
	var exchanges int32

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&exchanges, 1)
		serveToken(w)
	})

	if _, err := client.tokens.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	client.tokens.Invalidate()
	if _, err := client.tokens.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	if n := atomic.LoadInt32(&exchanges); n != 2 {
		t.Errorf("exchanges = %d after invalidate, want 2", n)
	}
}
