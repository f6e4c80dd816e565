package mpesa

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestCallTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/oauth") {
			serveToken(w)
			return
		}
		time.Sleep(200 * time.Millisecond)
		serveToken(w)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.STKPush(ctx, STKPushRequest{
		PhoneNumber:      "0712345678",
		Amount:           100,
		AccountReference: "ORDER-001",
	})

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error type = %T (%v), want *TimeoutError", err, err)
	}
	if timeoutErr.Operation != "stk push" {
		t.Errorf("Operation = %q, want stk push", timeoutErr.Operation)
	}
}

func TestCallCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		serveToken(w)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.STKPush(ctx, STKPushRequest{
		PhoneNumber:      "0712345678",
		Amount:           100,
		AccountReference: "ORDER-001",
	})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
