package handler

import (
	"io"
	"net/http"

	"github.com/sokopay/daraja/callback"
	"github.com/sokopay/daraja/infra/logger"
	"github.com/sokopay/daraja/infra/middle"
	"github.com/sokopay/daraja/infra/response"
)

// maxCallbackBody bounds the webhook request body. Gateway callbacks are
// small JSON documents.
const maxCallbackBody = 1 << 20

// WebhookHandler receives gateway callbacks and always answers HTTP 200 with
// an acknowledgment body. Anything else makes the gateway retry the delivery.
type WebhookHandler struct {
	callbacks *callback.Handler
}

// NewWebhookHandler creates a webhook handler over a callback handler.
func NewWebhookHandler(callbacks *callback.Handler) *WebhookHandler {
	return &WebhookHandler{callbacks: callbacks}
}

type webhookHandleFunc func(raw []byte, sourceIP string, r *http.Request) (callback.Ack, error)

func (h *WebhookHandler) serve(w http.ResponseWriter, r *http.Request, handle webhookHandleFunc) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Unreadable request body", err)
		return
	}

	sourceIP := middle.GetClientIP(r)

	ack, err := handle(raw, sourceIP, r)
	if err != nil {
		logger.Warn("Callback rejected", logger.LogContext{
			Fields: map[string]any{
				"source_ip": sourceIP,
				"path":      r.URL.Path,
				"error":     err.Error(),
			},
		})
	}

	_ = response.WriteJSON(w, http.StatusOK, ack)
}

// STKCallback handles STK push payment notifications.
func (h *WebhookHandler) STKCallback(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(raw []byte, sourceIP string, r *http.Request) (callback.Ack, error) {
		return h.callbacks.HandleCallback(r.Context(), raw, sourceIP)
	})
}

// B2CResult handles B2C, B2B, balance, status and reversal result
// notifications.
func (h *WebhookHandler) B2CResult(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(raw []byte, sourceIP string, r *http.Request) (callback.Ack, error) {
		return h.callbacks.HandleResultCallback(r.Context(), raw, sourceIP)
	})
}

// B2CTimeout handles queue timeout notifications. The gateway only needs the
// acknowledgment; the event is logged for operators.
func (h *WebhookHandler) B2CTimeout(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(raw []byte, sourceIP string, r *http.Request) (callback.Ack, error) {
		logger.Warn("Queue timeout notification received", logger.LogContext{
			Fields: map[string]any{
				"source_ip": sourceIP,
				"body":      string(raw),
			},
		})
		return callback.NewAck(true, "Timeout notification received"), nil
	})
}

// C2BValidation handles C2B validation requests.
func (h *WebhookHandler) C2BValidation(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(raw []byte, sourceIP string, r *http.Request) (callback.Ack, error) {
		return h.callbacks.HandleC2BValidation(r.Context(), raw, sourceIP)
	})
}

// C2BConfirmation handles C2B confirmation notifications.
func (h *WebhookHandler) C2BConfirmation(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(raw []byte, sourceIP string, r *http.Request) (callback.Ack, error) {
		return h.callbacks.HandleC2BConfirmation(r.Context(), raw, sourceIP)
	})
}
