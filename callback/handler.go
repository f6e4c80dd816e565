package callback

import (
	"context"
)

// Logger is the minimal logging capability the handler needs. The no-op
// default keeps hook dispatch silent; infra/logger.SystemLogger satisfies it.
type Logger interface {
	Info(message string, fields map[string]any)
	Error(message string, err error, fields map[string]any)
}

type nopLogger struct{}

func (nopLogger) Info(string, map[string]any)         {}
func (nopLogger) Error(string, error, map[string]any) {}

// Hooks are the application-supplied outcome callbacks. Nil hooks are
// replaced with no-ops; every registered hook is awaited before the handler
// returns.
type Hooks struct {
	// OnCallback fires for every successfully parsed, non-duplicate
	// callback, before the outcome-specific hook.
	OnCallback func(ctx context.Context, result *ParsedCallback) error

	// Exactly one of OnSuccess/OnFailure fires after OnCallback, selected
	// by ParsedCallback.Success.
	OnSuccess func(ctx context.Context, result *ParsedCallback) error
	OnFailure func(ctx context.Context, result *ParsedCallback) error

	// OnC2BValidation decides whether a customer payment is accepted. When
	// nil, Options.C2BDefaultAccept decides.
	OnC2BValidation func(ctx context.Context, result *ParsedC2BCallback) (bool, error)

	// OnC2BConfirmation fires for confirmed customer payments.
	OnC2BConfirmation func(ctx context.Context, result *ParsedC2BCallback) error
}

// Options configure validation, duplicate suppression and logging.
type Options struct {
	// ValidateIP enables source-IP allow-listing. AllowedIPs defaults to
	// the gateway's published addresses.
	ValidateIP bool
	AllowedIPs []string

	// IsDuplicate, when supplied, is consulted with the checkout/transaction
	// identifier before any hook fires; true short-circuits processing with
	// a success acknowledgement. Without it at-most-once delivery is NOT
	// guaranteed. The DedupCache and SQLiteDedupStore types in this package
	// can serve as implementations.
	IsDuplicate func(ctx context.Context, id string) (bool, error)

	// C2BDefaultAccept decides C2B validation when no OnC2BValidation hook
	// is registered. The zero value rejects: accepting every payment by
	// default is a business policy that has to be opted into explicitly.
	C2BDefaultAccept bool

	Logger Logger
}

// Handler validates, parses and dispatches inbound webhook payloads.
// Processing per callback: ip-checked, parsed, dedup-checked, dispatched;
// any validation failure short-circuits to an error acknowledgement.
type Handler struct {
	hooks Hooks
	opts  Options
}

// NewHandler creates a callback handler with the given hooks and options.
func NewHandler(hooks Hooks, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if len(opts.AllowedIPs) == 0 {
		opts.AllowedIPs = DefaultAllowedIPs
	}
	return &Handler{hooks: hooks, opts: opts}
}

// Ack is the body every webhook endpoint returns to the gateway with HTTP
// 200. ResultCode 1 acknowledges receipt while signaling application-level
// failure, which stops the gateway from re-delivering.
type Ack struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// NewAck builds an acknowledgement body.
func NewAck(success bool, desc string) Ack {
	if success {
		if desc == "" {
			desc = "Accepted"
		}
		return Ack{ResultCode: 0, ResultDesc: desc}
	}
	if desc == "" {
		desc = "Rejected"
	}
	return Ack{ResultCode: 1, ResultDesc: desc}
}

// ValidateCallbackIP reports whether sourceIP is trusted. Always true when
// IP validation is disabled.
func (h *Handler) ValidateCallbackIP(sourceIP string) bool {
	if !h.opts.ValidateIP {
		return true
	}
	return ipAllowed(sourceIP, h.opts.AllowedIPs)
}

// HandleCallback processes a push-to-pay result callback. An untrusted
// source returns UntrustedSourceError before any hook runs; every other
// internal failure is logged and converted to a failure acknowledgement so
// the transport can still answer HTTP 200.
func (h *Handler) HandleCallback(ctx context.Context, raw []byte, sourceIP string) (Ack, error) {
	if !h.ValidateCallbackIP(sourceIP) {
		return NewAck(false, "Untrusted source"), &UntrustedSourceError{IP: sourceIP}
	}

	parsed, err := ParseCallback(raw)
	if err != nil {
		h.opts.Logger.Error("failed to parse stk callback", err, nil)
		return NewAck(false, "Invalid payload"), nil
	}

	return h.dispatch(ctx, parsed, parsed.CheckoutRequestID), nil
}

// HandleResultCallback processes a result-family callback (B2C, B2B,
// balance, status, reversal) with the same validation and dispatch flow.
func (h *Handler) HandleResultCallback(ctx context.Context, raw []byte, sourceIP string) (Ack, error) {
	if !h.ValidateCallbackIP(sourceIP) {
		return NewAck(false, "Untrusted source"), &UntrustedSourceError{IP: sourceIP}
	}

	parsed, err := ParseResultCallback(raw)
	if err != nil {
		h.opts.Logger.Error("failed to parse result callback", err, nil)
		return NewAck(false, "Invalid payload"), nil
	}

	return h.dispatch(ctx, parsed, parsed.TransactionID), nil
}

// dispatch runs duplicate suppression and the hook sequence for a parsed
// callback. Duplicates are acknowledged silently; hook errors downgrade the
// acknowledgement without propagating.
func (h *Handler) dispatch(ctx context.Context, parsed *ParsedCallback, dedupID string) Ack {
	if h.opts.IsDuplicate != nil && dedupID != "" {
		duplicate, err := h.opts.IsDuplicate(ctx, dedupID)
		if err != nil {
			h.opts.Logger.Error("duplicate check failed", err, map[string]any{"id": dedupID})
			return NewAck(false, "Duplicate check failed")
		}
		if duplicate {
			h.opts.Logger.Info("duplicate callback ignored", map[string]any{"id": dedupID})
			return NewAck(true, "Duplicate ignored")
		}
	}

	if h.hooks.OnCallback != nil {
		if err := h.hooks.OnCallback(ctx, parsed); err != nil {
			h.opts.Logger.Error("onCallback hook failed", err, map[string]any{"id": dedupID})
			return NewAck(false, "Processing failed")
		}
	}

	outcome := h.hooks.OnFailure
	if parsed.Success {
		outcome = h.hooks.OnSuccess
	}
	if outcome != nil {
		if err := outcome(ctx, parsed); err != nil {
			h.opts.Logger.Error("outcome hook failed", err, map[string]any{"id": dedupID, "success": parsed.Success})
			return NewAck(false, "Processing failed")
		}
	}

	return NewAck(true, "Accepted")
}

// HandleC2BValidation decides whether a customer payment should proceed.
// Without a registered hook the decision falls back to C2BDefaultAccept.
func (h *Handler) HandleC2BValidation(ctx context.Context, raw []byte, sourceIP string) (Ack, error) {
	if !h.ValidateCallbackIP(sourceIP) {
		return NewAck(false, "Untrusted source"), &UntrustedSourceError{IP: sourceIP}
	}

	parsed, err := ParseC2BCallback(raw)
	if err != nil {
		h.opts.Logger.Error("failed to parse c2b validation", err, nil)
		return NewAck(false, "Invalid payload"), nil
	}

	if h.hooks.OnC2BValidation == nil {
		return NewAck(h.opts.C2BDefaultAccept, ""), nil
	}

	accept, err := h.hooks.OnC2BValidation(ctx, parsed)
	if err != nil {
		h.opts.Logger.Error("c2b validation hook failed", err, map[string]any{"transactionId": parsed.TransactionID})
		return NewAck(false, "Validation failed"), nil
	}
	return NewAck(accept, ""), nil
}

// HandleC2BConfirmation records a confirmed customer payment. Confirmations
// are informational: the acknowledgement is always a success unless the
// payload cannot be parsed.
func (h *Handler) HandleC2BConfirmation(ctx context.Context, raw []byte, sourceIP string) (Ack, error) {
	if !h.ValidateCallbackIP(sourceIP) {
		return NewAck(false, "Untrusted source"), &UntrustedSourceError{IP: sourceIP}
	}

	parsed, err := ParseC2BCallback(raw)
	if err != nil {
		h.opts.Logger.Error("failed to parse c2b confirmation", err, nil)
		return NewAck(false, "Invalid payload"), nil
	}

	if h.opts.IsDuplicate != nil && parsed.TransactionID != "" {
		duplicate, err := h.opts.IsDuplicate(ctx, parsed.TransactionID)
		if err != nil {
			h.opts.Logger.Error("duplicate check failed", err, map[string]any{"id": parsed.TransactionID})
			return NewAck(false, "Duplicate check failed"), nil
		}
		if duplicate {
			return NewAck(true, "Duplicate ignored"), nil
		}
	}

	if h.hooks.OnC2BConfirmation != nil {
		if err := h.hooks.OnC2BConfirmation(ctx, parsed); err != nil {
			h.opts.Logger.Error("c2b confirmation hook failed", err, map[string]any{"transactionId": parsed.TransactionID})
			return NewAck(false, "Processing failed"), nil
		}
	}

	return NewAck(true, "Confirmation received"), nil
}
