package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokopay/daraja/callback"
)

const stkPayload = `{
	"Body": {
		"stkCallback": {
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_191220191020363925",
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"CallbackMetadata": {
				"Item": [
					{"Name": "Amount", "Value": 1000.00},
					{"Name": "MpesaReceiptNumber", "Value": "ABC123XYZ"}
				]
			}
		}
	}
}`

func postWebhook(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, callback.Ack) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.RemoteAddr = "196.201.214.200:443"
	h(rec, req)

	var ack callback.Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	return rec, ack
}

func TestSTKCallbackAlwaysAnswers200(t *testing.T) {
	var received *callback.ParsedCallback
	callbacks := callback.NewHandler(callback.Hooks{
		OnSuccess: func(ctx context.Context, result *callback.ParsedCallback) error {
			received = result
			return nil
		},
	}, callback.Options{})
	h := NewWebhookHandler(callbacks)

	rec, ack := postWebhook(t, h.STKCallback, stkPayload)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, ack.ResultCode)
	require.NotNil(t, received)
	assert.Equal(t, "ABC123XYZ", received.MpesaReceiptNumber)
}

func TestSTKCallbackInvalidPayloadStill200(t *testing.T) {
	h := NewWebhookHandler(callback.NewHandler(callback.Hooks{}, callback.Options{}))

	rec, ack := postWebhook(t, h.STKCallback, `{invalid`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ack.ResultCode)
}

func TestSTKCallbackUntrustedSourceStill200(t *testing.T) {
	h := NewWebhookHandler(callback.NewHandler(callback.Hooks{}, callback.Options{ValidateIP: true}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(stkPayload))
	req.RemoteAddr = "10.0.0.1:1234"
	h.STKCallback(rec, req)

	var ack callback.Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ack.ResultCode)
}

func TestSTKCallbackForgedForwardedForRejected(t *testing.T) {
	var hookFired bool
	callbacks := callback.NewHandler(callback.Hooks{
		OnCallback: func(ctx context.Context, result *callback.ParsedCallback) error {
			hookFired = true
			return nil
		},
	}, callback.Options{ValidateIP: true})
	h := NewWebhookHandler(callbacks)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(stkPayload))
	req.Header.Set("X-Forwarded-For", "196.201.212.69, 203.0.113.50")
	req.RemoteAddr = "203.0.113.50:4444"
	h.STKCallback(rec, req)

	var ack callback.Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ack.ResultCode)
	assert.False(t, hookFired)
}

func TestB2CTimeoutAcknowledges(t *testing.T) {
	h := NewWebhookHandler(callback.NewHandler(callback.Hooks{}, callback.Options{}))

	rec, ack := postWebhook(t, h.B2CTimeout, `{"Result":{"ResultCode":1}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, ack.ResultCode)
}

func TestC2BValidationDefaultReject(t *testing.T) {
	h := NewWebhookHandler(callback.NewHandler(callback.Hooks{}, callback.Options{}))

	rec, ack := postWebhook(t, h.C2BValidation, `{"TransID":"RKTQDM7W6S","TransAmount":"10.00"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ack.ResultCode)
}

func TestC2BConfirmation(t *testing.T) {
	var confirmed bool
	callbacks := callback.NewHandler(callback.Hooks{
		OnC2BConfirmation: func(ctx context.Context, result *callback.ParsedC2BCallback) error {
			confirmed = true
			return nil
		},
	}, callback.Options{})
	h := NewWebhookHandler(callbacks)

	rec, ack := postWebhook(t, h.C2BConfirmation, `{"TransID":"RKTQDM7W6S","TransAmount":"10.00"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, ack.ResultCode)
	assert.True(t, confirmed)
}
