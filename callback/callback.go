// Package callback normalizes the gateway's asynchronous webhook payloads
// into typed results, validates their source, suppresses duplicates and
// dispatches them to application hooks.
package callback

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind tags the operation family a raw callback belongs to. Each kind has
// exactly one decoder; adding a kind without a decoder branch is a compile
// error in Decode.
type Kind string

const (
	KindSTK             Kind = "stk"
	KindResult          Kind = "result" // B2C, B2B, balance, status, reversal
	KindC2BValidation   Kind = "c2b_validation"
	KindC2BConfirmation Kind = "c2b_confirmation"
)

// stkCallbackEnvelope is the raw push-to-pay result shape as delivered by
// the gateway.
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []metadataItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type metadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// resultCallbackEnvelope is the raw shape shared by B2C, B2B, balance,
// status and reversal results.
type resultCallbackEnvelope struct {
	Result struct {
		ResultType               int    `json:"ResultType"`
		ResultCode               int    `json:"ResultCode"`
		ResultDesc               string `json:"ResultDesc"`
		OriginatorConversationID string `json:"OriginatorConversationID"`
		ConversationID           string `json:"ConversationID"`
		TransactionID            string `json:"TransactionID"`
		ResultParameters         struct {
			ResultParameter []resultParameter `json:"ResultParameter"`
		} `json:"ResultParameters"`
	} `json:"Result"`
}

type resultParameter struct {
	Key   string `json:"Key"`
	Value any    `json:"Value"`
}

// c2bEnvelope is the raw customer-payment notification shape, used by both
// the validation and confirmation endpoints.
type c2bEnvelope struct {
	TransactionType   string `json:"TransactionType"`
	TransID           string `json:"TransID"`
	TransTime         string `json:"TransTime"`
	TransAmount       string `json:"TransAmount"`
	BusinessShortCode string `json:"BusinessShortCode"`
	BillRefNumber     string `json:"BillRefNumber"`
	InvoiceNumber     string `json:"InvoiceNumber"`
	OrgAccountBalance string `json:"OrgAccountBalance"`
	ThirdPartyTransID string `json:"ThirdPartyTransID"`
	MSISDN            string `json:"MSISDN"`
	FirstName         string `json:"FirstName"`
	MiddleName        string `json:"MiddleName"`
	LastName          string `json:"LastName"`
}

// ParsedCallback is the uniform, typed result derived from a raw callback.
// Success holds iff ResultCode == 0 and is the single source of truth for
// success/failure branching.
type ParsedCallback struct {
	MerchantRequestID  string  `json:"merchantRequestId"`
	CheckoutRequestID  string  `json:"checkoutRequestId"`
	ConversationID     string  `json:"conversationId,omitempty"`
	TransactionID      string  `json:"transactionId,omitempty"`
	ResultCode         int     `json:"resultCode"`
	ResultDesc         string  `json:"resultDescription"`
	Success            bool    `json:"isSuccess"`
	Amount             float64 `json:"amount,omitempty"`
	MpesaReceiptNumber string  `json:"mpesaReceiptNumber,omitempty"`
	TransactionDate    string  `json:"transactionDate,omitempty"` // ISO-8601
	PhoneNumber        string  `json:"phoneNumber,omitempty"`
	ErrorMessage       string  `json:"errorMessage,omitempty"`
}

// ParsedC2BCallback is the normalized customer-payment notification.
type ParsedC2BCallback struct {
	TransactionID   string  `json:"transactionId"`
	TransactionType string  `json:"transactionType"`
	Amount          float64 `json:"amount"`
	ShortCode       string  `json:"shortCode"`
	BillRefNumber   string  `json:"billRefNumber"`
	InvoiceNumber   string  `json:"invoiceNumber,omitempty"`
	TransactionTime string  `json:"transactionTime,omitempty"` // ISO-8601
	PhoneNumber     string  `json:"phoneNumber"`
	PayerName       string  `json:"payerName,omitempty"`
}

// ParseCallback decodes a push-to-pay result callback. Metadata is walked
// only on success; failures get ErrorMessage from the result-code table.
func ParseCallback(raw []byte) (*ParsedCallback, error) {
	var envelope stkCallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("callback: failed to parse stk callback: %w", err)
	}

	stk := envelope.Body.StkCallback
	parsed := &ParsedCallback{
		MerchantRequestID: stk.MerchantRequestID,
		CheckoutRequestID: stk.CheckoutRequestID,
		ResultCode:        stk.ResultCode,
		ResultDesc:        stk.ResultDesc,
		Success:           stk.ResultCode == 0,
	}

	if parsed.Success {
		for _, item := range stk.CallbackMetadata.Item {
			switch item.Name {
			case "Amount":
				parsed.Amount = asFloat(item.Value)
			case "MpesaReceiptNumber":
				parsed.MpesaReceiptNumber = asString(item.Value)
			case "TransactionDate":
				parsed.TransactionDate = formatGatewayDate(asString(item.Value))
			case "PhoneNumber":
				parsed.PhoneNumber = asString(item.Value)
			}
		}
	} else {
		parsed.ErrorMessage = MessageForCode(stk.ResultCode)
	}

	return parsed, nil
}

// ParseResultCallback decodes a result-family callback (B2C, B2B, balance,
// status, reversal).
func ParseResultCallback(raw []byte) (*ParsedCallback, error) {
	var envelope resultCallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("callback: failed to parse result callback: %w", err)
	}

	result := envelope.Result
	parsed := &ParsedCallback{
		ConversationID: result.ConversationID,
		TransactionID:  result.TransactionID,
		ResultCode:     result.ResultCode,
		ResultDesc:     result.ResultDesc,
		Success:        result.ResultCode == 0,
	}

	if parsed.Success {
		for _, param := range result.ResultParameters.ResultParameter {
			switch param.Key {
			case "TransactionAmount":
				parsed.Amount = asFloat(param.Value)
			case "TransactionReceipt":
				parsed.MpesaReceiptNumber = asString(param.Value)
			case "TransactionCompletedDateTime":
				parsed.TransactionDate = formatGatewayDate(asString(param.Value))
			case "ReceiverPartyPublicName":
				parsed.PhoneNumber = asString(param.Value)
			}
		}
	} else {
		parsed.ErrorMessage = MessageForCode(result.ResultCode)
	}

	return parsed, nil
}

// ParseC2BCallback decodes a customer-payment validation or confirmation
// payload.
func ParseC2BCallback(raw []byte) (*ParsedC2BCallback, error) {
	var envelope c2bEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("callback: failed to parse c2b callback: %w", err)
	}

	amount, _ := strconv.ParseFloat(envelope.TransAmount, 64)

	name := envelope.FirstName
	if envelope.MiddleName != "" {
		name += " " + envelope.MiddleName
	}
	if envelope.LastName != "" {
		name += " " + envelope.LastName
	}

	return &ParsedC2BCallback{
		TransactionID:   envelope.TransID,
		TransactionType: envelope.TransactionType,
		Amount:          amount,
		ShortCode:       envelope.BusinessShortCode,
		BillRefNumber:   envelope.BillRefNumber,
		InvoiceNumber:   envelope.InvoiceNumber,
		TransactionTime: formatGatewayDate(envelope.TransTime),
		PhoneNumber:     envelope.MSISDN,
		PayerName:       name,
	}, nil
}

// Decode routes a raw payload to the decoder for its kind. The switch is
// exhaustive over Kind so new operation families cannot fall through
// silently.
func Decode(kind Kind, raw []byte) (any, error) {
	switch kind {
	case KindSTK:
		return ParseCallback(raw)
	case KindResult:
		return ParseResultCallback(raw)
	case KindC2BValidation, KindC2BConfirmation:
		return ParseC2BCallback(raw)
	default:
		return nil, fmt.Errorf("callback: unknown callback kind %q", kind)
	}
}

// formatGatewayDate converts the gateway's numeric YYYYMMDDHHmmss form to
// ISO-8601 (YYYY-MM-DDTHH:MM:SS). Unparseable input is returned as-is.
func formatGatewayDate(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse("20060102150405", value)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02T15:04:05")
}

// asString renders a metadata value that may arrive as a string or a JSON
// number. Numbers are rendered without an exponent so phone numbers and
// dates survive the float round-trip.
func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}
