package mpesa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSTKPush(t *testing.T) {
	var gotPayload stkPushPayload
	var gotAuth string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/oauth") {
			serveToken(w)
			return
		}
		if r.URL.Path != endpointSTKPush {
			t.Errorf("path = %q, want %q", r.URL.Path, endpointSTKPush)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_191220191020363925",
			"ResponseCode": "0",
			"ResponseDescription": "Success. Request accepted for processing",
			"CustomerMessage": "Success. Request accepted for processing"
		}`))
	})

	resp, err := client.STKPush(context.Background(), STKPushRequest{
		PhoneNumber:      "0712345678",
		Amount:           100,
		AccountReference: "ORDER-001",
	})
	if err != nil {
		t.Fatalf("STKPush() error = %v", err)
	}

	if resp.CheckoutRequestID != "ws_CO_191220191020363925" {
		t.Errorf("CheckoutRequestID = %q", resp.CheckoutRequestID)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", gotAuth)
	}
	if gotPayload.BusinessShortCode != "174379" {
		t.Errorf("BusinessShortCode = %q", gotPayload.BusinessShortCode)
	}
	if gotPayload.PartyA != "254712345678" || gotPayload.PhoneNumber != "254712345678" {
		t.Errorf("phone not normalized: PartyA=%q PhoneNumber=%q", gotPayload.PartyA, gotPayload.PhoneNumber)
	}
	if gotPayload.TransactionType != "CustomerPayBillOnline" {
		t.Errorf("TransactionType = %q, want CustomerPayBillOnline", gotPayload.TransactionType)
	}
	if gotPayload.CallBackURL != "https://example.com/webhooks/stk" {
		t.Errorf("CallBackURL = %q", gotPayload.CallBackURL)
	}
	if gotPayload.Amount != 100 {
		t.Errorf("Amount = %d, want 100", gotPayload.Amount)
	}

	// Password must be base64(shortcode + passkey + timestamp) for the
	// timestamp sent in the same payload.
	want := GeneratePassword("174379", "passkey", gotPayload.Timestamp)
	if gotPayload.Password != want {
		t.Errorf("Password = %q, want %q", gotPayload.Password, want)
	}
	if _, err := time.Parse("20060102150405", gotPayload.Timestamp); err != nil {
		t.Errorf("Timestamp %q not in YYYYMMDDHHmmss form: %v", gotPayload.Timestamp, err)
	}
}

// The payload is signed with a timestamp taken after the token exchange, so
// a slow exchange cannot leave a stale timestamp in the request.
func TestSTKPushTimestampTakenAfterTokenExchange(t *testing.T) {
	var mu sync.Mutex
	current := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	var gotPayload stkPushPayload
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/oauth") {
			// Simulate a slow exchange: the clock moves on while the token
			// is being fetched.
			mu.Lock()
			current = current.Add(10 * time.Minute)
			mu.Unlock()
			serveToken(w)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"ResponseCode":"0"}`))
	})
	client.tokens.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	_, err := client.STKPush(context.Background(), STKPushRequest{
		PhoneNumber:      "0712345678",
		Amount:           100,
		AccountReference: "ORDER-001",
	})
	if err != nil {
		t.Fatalf("STKPush() error = %v", err)
	}

	if gotPayload.Timestamp != "20250110121000" {
		t.Errorf("Timestamp = %q, want 20250110121000 (post-exchange time)", gotPayload.Timestamp)
	}
	want := GeneratePassword("174379", "passkey", gotPayload.Timestamp)
	if gotPayload.Password != want {
		t.Errorf("Password = %q, want %q", gotPayload.Password, want)
	}
}

func TestSTKPushValidation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the gateway on validation failure")
	})

	tests := []struct {
		name    string
		request STKPushRequest
	}{
		{"bad phone", STKPushRequest{PhoneNumber: "12345", Amount: 100, AccountReference: "A"}},
		{"zero amount", STKPushRequest{PhoneNumber: "0712345678", Amount: 0, AccountReference: "A"}},
		{"negative amount", STKPushRequest{PhoneNumber: "0712345678", Amount: -5, AccountReference: "A"}},
		{"missing reference", STKPushRequest{PhoneNumber: "0712345678", Amount: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.STKPush(context.Background(), tt.request)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestSTKPushMissingCallbackURL(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	client.config.CallbackURL = ""

	_, err := client.STKPush(context.Background(), STKPushRequest{
		PhoneNumber:      "0712345678",
		Amount:           100,
		AccountReference: "ORDER-001",
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if validationErr.Field != "callbackURL" {
		t.Errorf("Field = %q, want callbackURL", validationErr.Field)
	}
}

func TestSTKPushAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/oauth") {
			serveToken(w)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errorCode":"500.001.1001","errorMessage":"Server error"}`))
	})

	_, err := client.STKPush(context.Background(), STKPushRequest{
		PhoneNumber:      "0712345678",
		Amount:           100,
		AccountReference: "ORDER-001",
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Body, "500.001.1001") {
		t.Errorf("Body = %q, want raw gateway body preserved", apiErr.Body)
	}
}

func TestCallInvalidatesTokenOn401(t *testing.T) {
	var exchanges int

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/oauth") {
			exchanges++
			serveToken(w)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorMessage":"Invalid Access Token"}`))
	})

	request := STKPushRequest{PhoneNumber: "0712345678", Amount: 100, AccountReference: "A"}

	if _, err := client.STKPush(context.Background(), request); err == nil {
		t.Fatal("expected error for 401 response")
	}
	// The 401 dropped the cache, so the next call exchanges again.
	if _, err := client.STKPush(context.Background(), request); err == nil {
		t.Fatal("expected error for 401 response")
	}

	if exchanges != 2 {
		t.Errorf("exchanges = %d, want 2 after 401 invalidation", exchanges)
	}
}

func TestSTKQuery(t *testing.T) {
	var gotPayload stkQueryPayload

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/oauth") {
			serveToken(w)
			return
		}
		if r.URL.Path != endpointSTKQuery {
			t.Errorf("path = %q, want %q", r.URL.Path, endpointSTKQuery)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_, _ = w.Write([]byte(`{
			"ResponseCode": "0",
			"ResultCode": "0",
			"ResultDesc": "The service request is processed successfully."
		}`))
	})

	resp, err := client.STKQuery(context.Background(), "ws_CO_191220191020363925")
	if err != nil {
		t.Fatalf("STKQuery() error = %v", err)
	}
	if resp.ResultCode != "0" {
		t.Errorf("ResultCode = %q, want 0", resp.ResultCode)
	}
	if gotPayload.CheckoutRequestID != "ws_CO_191220191020363925" {
		t.Errorf("CheckoutRequestID = %q", gotPayload.CheckoutRequestID)
	}
}

func TestSTKQueryRequiresID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.STKQuery(context.Background(), "")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("error = %v, want *ValidationError", err)
	}
}
