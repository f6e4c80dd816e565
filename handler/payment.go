package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sokopay/daraja/infra/response"
	"github.com/sokopay/daraja/mpesa"
)

// GatewayService defines the gateway operations the HTTP layer exposes.
type GatewayService interface {
	STKPush(ctx context.Context, request mpesa.STKPushRequest) (*mpesa.STKPushResponse, error)
	STKQuery(ctx context.Context, checkoutRequestID string) (*mpesa.STKQueryResponse, error)
	B2C(ctx context.Context, request mpesa.B2CRequest) (*mpesa.B2CResponse, error)
	B2B(ctx context.Context, request mpesa.B2BRequest) (*mpesa.B2BResponse, error)
	AccountBalance(ctx context.Context) (*mpesa.AccountBalanceResponse, error)
	TransactionStatus(ctx context.Context, request mpesa.TransactionStatusRequest) (*mpesa.TransactionStatusResponse, error)
	Reversal(ctx context.Context, request mpesa.ReversalRequest) (*mpesa.ReversalResponse, error)
	RegisterC2BURL(ctx context.Context, request mpesa.RegisterC2BURLRequest) (*mpesa.RegisterC2BURLResponse, error)
	SimulateC2B(ctx context.Context, request mpesa.SimulateC2BRequest) (*mpesa.SimulateC2BResponse, error)
	GenerateDynamicQR(ctx context.Context, request mpesa.DynamicQRRequest) (*mpesa.DynamicQRResponse, error)
}

// PaymentHandler handles payment related HTTP requests
type PaymentHandler struct {
	gateway  GatewayService
	validate *validator.Validate
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(gateway GatewayService, validate *validator.Validate) *PaymentHandler {
	return &PaymentHandler{
		gateway:  gateway,
		validate: validate,
	}
}

// STKPush initiates an STK push payment.
func (h *PaymentHandler) STKPush(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req mpesa.STKPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.gateway.STKPush(ctx, req)
	if err != nil {
		writeGatewayError(w, "Payment request failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment initiated", resp)
}

// STKQuery checks the status of an STK push payment.
func (h *PaymentHandler) STKQuery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req struct {
		CheckoutRequestID string `json:"checkoutRequestId" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	resp, err := h.gateway.STKQuery(ctx, req.CheckoutRequestID)
	if err != nil {
		writeGatewayError(w, "Status query failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Status retrieved", resp)
}

// B2C sends money from the shortcode to a customer.
func (h *PaymentHandler) B2C(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req mpesa.B2CRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.gateway.B2C(ctx, req)
	if err != nil {
		writeGatewayError(w, "Disbursement failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Disbursement accepted", resp)
}

// B2B moves money between business shortcodes.
func (h *PaymentHandler) B2B(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req mpesa.B2BRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.gateway.B2B(ctx, req)
	if err != nil {
		writeGatewayError(w, "Transfer failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Transfer accepted", resp)
}

// AccountBalance queries the shortcode balance.
func (h *PaymentHandler) AccountBalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.gateway.AccountBalance(ctx)
	if err != nil {
		writeGatewayError(w, "Balance query failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Balance query accepted", resp)
}

// TransactionStatus queries the state of a past transaction.
func (h *PaymentHandler) TransactionStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req mpesa.TransactionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.gateway.TransactionStatus(ctx, req)
	if err != nil {
		writeGatewayError(w, "Status query failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Status query accepted", resp)
}

// Reversal reverses a completed transaction.
func (h *PaymentHandler) Reversal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req mpesa.ReversalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.gateway.Reversal(ctx, req)
	if err != nil {
		writeGatewayError(w, "Reversal failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Reversal accepted", resp)
}

// RegisterC2BURL registers the validation and confirmation URLs.
func (h *PaymentHandler) RegisterC2BURL(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req mpesa.RegisterC2BURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.gateway.RegisterC2BURL(ctx, req)
	if err != nil {
		writeGatewayError(w, "URL registration failed", err)
		return
	}

	response.Success(w, http.StatusOK, "URLs registered", resp)
}

// SimulateC2B simulates a customer payment in the sandbox.
func (h *PaymentHandler) SimulateC2B(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req mpesa.SimulateC2BRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.gateway.SimulateC2B(ctx, req)
	if err != nil {
		writeGatewayError(w, "Simulation failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Simulation accepted", resp)
}

// DynamicQR generates a payment QR code.
func (h *PaymentHandler) DynamicQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req mpesa.DynamicQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	resp, err := h.gateway.GenerateDynamicQR(ctx, req)
	if err != nil {
		writeGatewayError(w, "QR generation failed", err)
		return
	}

	response.Success(w, http.StatusOK, "QR generated", resp)
}

// writeGatewayError maps gateway error types to HTTP status codes.
func writeGatewayError(w http.ResponseWriter, message string, err error) {
	var validationErr *mpesa.ValidationError
	var timeoutErr *mpesa.TimeoutError
	var authErr *mpesa.AuthError
	var apiErr *mpesa.APIError

	switch {
	case errors.As(err, &validationErr):
		response.Error(w, http.StatusBadRequest, message, err)
	case errors.As(err, &timeoutErr):
		response.Error(w, http.StatusGatewayTimeout, message, err)
	case errors.As(err, &authErr):
		response.Error(w, http.StatusBadGateway, message, err)
	case errors.As(err, &apiErr):
		response.Error(w, http.StatusBadGateway, message, err)
	default:
		response.Error(w, http.StatusInternalServerError, message, err)
	}
}
