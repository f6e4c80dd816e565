package mpesa

import (
	"context"

	"github.com/google/uuid"
)

// newOriginatorID tags a disbursement so its asynchronous result can be
// correlated even before the gateway assigns its own conversation ID.
func newOriginatorID() string {
	return uuid.New().String()
}

// B2CCommandID selects the disbursement flavor the gateway applies.
const (
	CommandSalaryPayment    = "SalaryPayment"
	CommandBusinessPayment  = "BusinessPayment"
	CommandPromotionPayment = "PromotionPayment"
)

// B2CRequest describes a business-to-customer disbursement.
type B2CRequest struct {
	PhoneNumber string
	Amount      int64
	// CommandID defaults to BusinessPayment.
	CommandID string
	Remarks   string
	Occasion  string
	// ResultURL/TimeoutURL override the configured endpoints per request.
	ResultURL  string
	TimeoutURL string
}

type b2cPayload struct {
	OriginatorConversationID string `json:"OriginatorConversationID,omitempty"`
	InitiatorName            string `json:"InitiatorName"`
	SecurityCredential       string `json:"SecurityCredential"`
	CommandID                string `json:"CommandID"`
	Amount                   int64  `json:"Amount"`
	PartyA                   string `json:"PartyA"`
	PartyB                   string `json:"PartyB"`
	Remarks                  string `json:"Remarks"`
	QueueTimeOutURL          string `json:"QueueTimeOutURL"`
	ResultURL                string `json:"ResultURL"`
	Occasion                 string `json:"Occasion"`
}

// B2CResponse is the gateway's acknowledgement of a disbursement request.
// The outcome arrives later on the result URL.
type B2CResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// B2C sends money from the merchant account to a customer.
func (c *Client) B2C(ctx context.Context, request B2CRequest) (*B2CResponse, error) {
	phone, err := FormatPhoneNumber(request.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if request.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	if c.config.InitiatorName == "" || c.config.SecurityCredential == "" {
		return nil, &ValidationError{Field: "initiator", Message: "initiatorName and securityCredential are required for B2C"}
	}

	resultURL, timeoutURL, err := c.resultURLs(request.ResultURL, request.TimeoutURL)
	if err != nil {
		return nil, err
	}

	commandID := request.CommandID
	if commandID == "" {
		commandID = CommandBusinessPayment
	}
	remarks := request.Remarks
	if remarks == "" {
		remarks = "B2C payment"
	}

	var response B2CResponse
	err = c.call(ctx, "b2c", endpointB2C, func() any {
		return b2cPayload{
			OriginatorConversationID: newOriginatorID(),
			InitiatorName:            c.config.InitiatorName,
			SecurityCredential:       c.config.SecurityCredential,
			CommandID:                commandID,
			Amount:                   request.Amount,
			PartyA:                   c.config.ShortCode,
			PartyB:                   phone,
			Remarks:                  remarks,
			QueueTimeOutURL:          timeoutURL,
			ResultURL:                resultURL,
			Occasion:                 request.Occasion,
		}
	}, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// resultURLs resolves per-request result/timeout URLs against the configured
// defaults and rejects the call when neither is available.
func (c *Client) resultURLs(resultURL, timeoutURL string) (string, string, error) {
	if resultURL == "" {
		resultURL = c.config.ResultURL
	}
	if timeoutURL == "" {
		timeoutURL = c.config.TimeoutURL
	}
	if resultURL == "" {
		return "", "", &ValidationError{Field: "resultURL", Message: "is required"}
	}
	if timeoutURL == "" {
		return "", "", &ValidationError{Field: "timeoutURL", Message: "is required"}
	}
	return resultURL, timeoutURL, nil
}
