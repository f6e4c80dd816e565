// Package router wires the HTTP routes of the webhook service shell.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sokopay/daraja/handler"
)

// Routes mounts the payment API and the webhook endpoints. The quota
// middleware applies to the payment API only so gateway deliveries are never
// throttled by client traffic.
func Routes(r chi.Router, payments *handler.PaymentHandler, webhooks *handler.WebhookHandler, health *handler.HealthHandler, quota func(http.Handler) http.Handler) {
	r.Get("/health", health.Health)

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/stk", webhooks.STKCallback)
		r.Post("/b2c/result", webhooks.B2CResult)
		r.Post("/b2c/timeout", webhooks.B2CTimeout)
		r.Post("/c2b/validation", webhooks.C2BValidation)
		r.Post("/c2b/confirmation", webhooks.C2BConfirmation)
	})

	r.Route("/v1", func(r chi.Router) {
		if quota != nil {
			r.Use(quota)
		}

		r.Route("/payments", func(r chi.Router) {
			r.Post("/stkpush", payments.STKPush)
			r.Post("/stkquery", payments.STKQuery)
			r.Post("/b2c", payments.B2C)
			r.Post("/b2b", payments.B2B)
			r.Post("/reversal", payments.Reversal)
			r.Post("/qr", payments.DynamicQR)
			r.Get("/balance", payments.AccountBalance)
			r.Post("/status", payments.TransactionStatus)
		})

		r.Route("/c2b", func(r chi.Router) {
			r.Post("/register", payments.RegisterC2BURL)
			r.Post("/simulate", payments.SimulateC2B)
		})
	})
}
