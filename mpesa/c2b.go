package mpesa

import "context"

// C2B response types the gateway accepts for unreachable validation URLs.
const (
	ResponseTypeCompleted = "Completed"
	ResponseTypeCancelled = "Cancelled"
)

// RegisterC2BURLRequest registers the validation and confirmation endpoints
// for customer-initiated payments to the shortcode.
type RegisterC2BURLRequest struct {
	ValidationURL   string
	ConfirmationURL string
	// ResponseType decides what happens when the validation URL is
	// unreachable. Defaults to Completed.
	ResponseType string
}

type registerC2BPayload struct {
	ShortCode       string `json:"ShortCode"`
	ResponseType    string `json:"ResponseType"`
	ConfirmationURL string `json:"ConfirmationURL"`
	ValidationURL   string `json:"ValidationURL"`
}

// RegisterC2BURLResponse acknowledges URL registration.
type RegisterC2BURLResponse struct {
	OriginatorConversationID string `json:"OriginatorCoversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// RegisterC2BURL registers the C2B validation/confirmation URLs.
func (c *Client) RegisterC2BURL(ctx context.Context, request RegisterC2BURLRequest) (*RegisterC2BURLResponse, error) {
	if request.ConfirmationURL == "" {
		return nil, &ValidationError{Field: "confirmationURL", Message: "is required"}
	}
	if request.ValidationURL == "" {
		return nil, &ValidationError{Field: "validationURL", Message: "is required"}
	}

	responseType := request.ResponseType
	if responseType == "" {
		responseType = ResponseTypeCompleted
	}
	if responseType != ResponseTypeCompleted && responseType != ResponseTypeCancelled {
		return nil, &ValidationError{Field: "responseType", Message: "must be Completed or Cancelled"}
	}

	var response RegisterC2BURLResponse
	err := c.call(ctx, "c2b register url", endpointC2BRegister, func() any {
		return registerC2BPayload{
			ShortCode:       c.config.ShortCode,
			ResponseType:    responseType,
			ConfirmationURL: request.ConfirmationURL,
			ValidationURL:   request.ValidationURL,
		}
	}, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// SimulateC2BRequest describes a simulated customer payment. Only available
// in the sandbox environment.
type SimulateC2BRequest struct {
	PhoneNumber string
	Amount      int64
	// BillRefNumber is the account the customer pays into.
	BillRefNumber string
	// CommandID defaults to CustomerPayBillOnline.
	CommandID string
}

type simulateC2BPayload struct {
	ShortCode     string `json:"ShortCode"`
	CommandID     string `json:"CommandID"`
	Amount        int64  `json:"Amount"`
	Msisdn        string `json:"Msisdn"`
	BillRefNumber string `json:"BillRefNumber"`
}

// SimulateC2BResponse acknowledges a simulated payment.
type SimulateC2BResponse struct {
	OriginatorConversationID string `json:"OriginatorCoversationID"`
	ConversationID           string `json:"ConversationID"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// SimulateC2B triggers a sandbox customer payment against the shortcode.
func (c *Client) SimulateC2B(ctx context.Context, request SimulateC2BRequest) (*SimulateC2BResponse, error) {
	if c.config.Environment != EnvSandbox {
		return nil, &ValidationError{Field: "environment", Message: "C2B simulation is only available in sandbox"}
	}
	phone, err := FormatPhoneNumber(request.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if request.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}

	commandID := request.CommandID
	if commandID == "" {
		commandID = "CustomerPayBillOnline"
	}

	var response SimulateC2BResponse
	err = c.call(ctx, "c2b simulate", endpointC2BSimulate, func() any {
		return simulateC2BPayload{
			ShortCode:     c.config.ShortCode,
			CommandID:     commandID,
			Amount:        request.Amount,
			Msisdn:        phone,
			BillRefNumber: request.BillRefNumber,
		}
	}, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}
