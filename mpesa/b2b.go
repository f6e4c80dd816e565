package mpesa

import "context"

// B2BRequest describes a business-to-business payment to another shortcode.
type B2BRequest struct {
	// ReceiverShortCode is the paybill or till receiving the funds.
	ReceiverShortCode string
	Amount            int64
	// AccountReference is the account number at the receiving paybill.
	AccountReference string
	// CommandID defaults to BusinessPayBill.
	CommandID  string
	Remarks    string
	ResultURL  string
	TimeoutURL string
}

type b2bPayload struct {
	Initiator              string `json:"Initiator"`
	SecurityCredential     string `json:"SecurityCredential"`
	CommandID              string `json:"CommandID"`
	Amount                 int64  `json:"Amount"`
	PartyA                 string `json:"PartyA"`
	SenderIdentifierType   int    `json:"SenderIdentifierType"`
	PartyB                 string `json:"PartyB"`
	RecieverIdentifierType int    `json:"RecieverIdentifierType"` // the gateway's own field spelling
	AccountReference       string `json:"AccountReference"`
	Remarks                string `json:"Remarks"`
	QueueTimeOutURL        string `json:"QueueTimeOutURL"`
	ResultURL              string `json:"ResultURL"`
}

// B2BResponse is the gateway's acknowledgement of a B2B payment request.
type B2BResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// B2B moves money from the merchant shortcode to another business shortcode.
func (c *Client) B2B(ctx context.Context, request B2BRequest) (*B2BResponse, error) {
	if request.ReceiverShortCode == "" {
		return nil, &ValidationError{Field: "receiverShortCode", Message: "is required"}
	}
	if request.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	if request.AccountReference == "" {
		return nil, &ValidationError{Field: "accountReference", Message: "is required"}
	}
	if c.config.InitiatorName == "" || c.config.SecurityCredential == "" {
		return nil, &ValidationError{Field: "initiator", Message: "initiatorName and securityCredential are required for B2B"}
	}

	resultURL, timeoutURL, err := c.resultURLs(request.ResultURL, request.TimeoutURL)
	if err != nil {
		return nil, err
	}

	commandID := request.CommandID
	if commandID == "" {
		commandID = "BusinessPayBill"
	}
	remarks := request.Remarks
	if remarks == "" {
		remarks = "B2B payment"
	}

	var response B2BResponse
	err = c.call(ctx, "b2b", endpointB2B, func() any {
		return b2bPayload{
			Initiator:              c.config.InitiatorName,
			SecurityCredential:     c.config.SecurityCredential,
			CommandID:              commandID,
			Amount:                 request.Amount,
			PartyA:                 c.config.ShortCode,
			SenderIdentifierType:   identifierShortCode,
			PartyB:                 request.ReceiverShortCode,
			RecieverIdentifierType: identifierShortCode,
			AccountReference:       request.AccountReference,
			Remarks:                remarks,
			QueueTimeOutURL:        timeoutURL,
			ResultURL:              resultURL,
		}
	}, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}
