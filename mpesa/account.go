package mpesa

import "context"

// Gateway identifier types for PartyA/ReceiverParty fields.
const (
	identifierMSISDN    = 1
	identifierTillCode  = 2
	identifierShortCode = 4
	identifierOrgOpID   = 11
)

type accountBalancePayload struct {
	Initiator          string `json:"Initiator"`
	SecurityCredential string `json:"SecurityCredential"`
	CommandID          string `json:"CommandID"`
	PartyA             string `json:"PartyA"`
	IdentifierType     int    `json:"IdentifierType"`
	Remarks            string `json:"Remarks"`
	QueueTimeOutURL    string `json:"QueueTimeOutURL"`
	ResultURL          string `json:"ResultURL"`
}

// AccountBalanceResponse acknowledges a balance query; the balance itself
// arrives asynchronously on the result URL.
type AccountBalanceResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// AccountBalance requests the merchant account balance.
func (c *Client) AccountBalance(ctx context.Context) (*AccountBalanceResponse, error) {
	if c.config.InitiatorName == "" || c.config.SecurityCredential == "" {
		return nil, &ValidationError{Field: "initiator", Message: "initiatorName and securityCredential are required for balance queries"}
	}

	resultURL, timeoutURL, err := c.resultURLs("", "")
	if err != nil {
		return nil, err
	}

	var response AccountBalanceResponse
	err = c.call(ctx, "account balance", endpointAccountBalance, func() any {
		return accountBalancePayload{
			Initiator:          c.config.InitiatorName,
			SecurityCredential: c.config.SecurityCredential,
			CommandID:          "AccountBalance",
			PartyA:             c.config.ShortCode,
			IdentifierType:     identifierShortCode,
			Remarks:            "Balance query",
			QueueTimeOutURL:    timeoutURL,
			ResultURL:          resultURL,
		}
	}, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// TransactionStatusRequest identifies a transaction to look up.
type TransactionStatusRequest struct {
	// TransactionID is the gateway receipt number (e.g. "NLJ7RT61SV").
	TransactionID string
	Remarks       string
	Occasion      string
	ResultURL     string
	TimeoutURL    string
}

type transactionStatusPayload struct {
	Initiator          string `json:"Initiator"`
	SecurityCredential string `json:"SecurityCredential"`
	CommandID          string `json:"CommandID"`
	TransactionID      string `json:"TransactionID"`
	PartyA             string `json:"PartyA"`
	IdentifierType     int    `json:"IdentifierType"`
	ResultURL          string `json:"ResultURL"`
	QueueTimeOutURL    string `json:"QueueTimeOutURL"`
	Remarks            string `json:"Remarks"`
	Occasion           string `json:"Occasion"`
}

// TransactionStatusResponse acknowledges a status query; the result arrives
// asynchronously on the result URL.
type TransactionStatusResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// TransactionStatus queries the state of a completed or pending transaction.
func (c *Client) TransactionStatus(ctx context.Context, request TransactionStatusRequest) (*TransactionStatusResponse, error) {
	if request.TransactionID == "" {
		return nil, &ValidationError{Field: "transactionID", Message: "is required"}
	}
	if c.config.InitiatorName == "" || c.config.SecurityCredential == "" {
		return nil, &ValidationError{Field: "initiator", Message: "initiatorName and securityCredential are required for status queries"}
	}

	resultURL, timeoutURL, err := c.resultURLs(request.ResultURL, request.TimeoutURL)
	if err != nil {
		return nil, err
	}

	remarks := request.Remarks
	if remarks == "" {
		remarks = "Status query"
	}

	var response TransactionStatusResponse
	err = c.call(ctx, "transaction status", endpointTransactionStatus, func() any {
		return transactionStatusPayload{
			Initiator:          c.config.InitiatorName,
			SecurityCredential: c.config.SecurityCredential,
			CommandID:          "TransactionStatusQuery",
			TransactionID:      request.TransactionID,
			PartyA:             c.config.ShortCode,
			IdentifierType:     identifierShortCode,
			ResultURL:          resultURL,
			QueueTimeOutURL:    timeoutURL,
			Remarks:            remarks,
			Occasion:           request.Occasion,
		}
	}, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ReversalRequest identifies a transaction to reverse.
type ReversalRequest struct {
	TransactionID string
	Amount        int64
	Remarks       string
	Occasion      string
	ResultURL     string
	TimeoutURL    string
}

type reversalPayload struct {
	Initiator              string `json:"Initiator"`
	SecurityCredential     string `json:"SecurityCredential"`
	CommandID              string `json:"CommandID"`
	TransactionID          string `json:"TransactionID"`
	Amount                 int64  `json:"Amount"`
	ReceiverParty          string `json:"ReceiverParty"`
	RecieverIdentifierType int    `json:"RecieverIdentifierType"` // the gateway's own field spelling
	ResultURL              string `json:"ResultURL"`
	QueueTimeOutURL        string `json:"QueueTimeOutURL"`
	Remarks                string `json:"Remarks"`
	Occasion               string `json:"Occasion"`
}

// ReversalResponse acknowledges a reversal request; the result arrives
// asynchronously on the result URL.
type ReversalResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

// Reversal requests a reversal of a previous transaction.
func (c *Client) Reversal(ctx context.Context, request ReversalRequest) (*ReversalResponse, error) {
	if request.TransactionID == "" {
		return nil, &ValidationError{Field: "transactionID", Message: "is required"}
	}
	if request.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	if c.config.InitiatorName == "" || c.config.SecurityCredential == "" {
		return nil, &ValidationError{Field: "initiator", Message: "initiatorName and securityCredential are required for reversals"}
	}

	resultURL, timeoutURL, err := c.resultURLs(request.ResultURL, request.TimeoutURL)
	if err != nil {
		return nil, err
	}

	remarks := request.Remarks
	if remarks == "" {
		remarks = "Transaction reversal"
	}

	var response ReversalResponse
	err = c.call(ctx, "reversal", endpointReversal, func() any {
		return reversalPayload{
			Initiator:              c.config.InitiatorName,
			SecurityCredential:     c.config.SecurityCredential,
			CommandID:              "TransactionReversal",
			TransactionID:          request.TransactionID,
			Amount:                 request.Amount,
			ReceiverParty:          c.config.ShortCode,
			RecieverIdentifierType: identifierOrgOpID,
			ResultURL:              resultURL,
			QueueTimeOutURL:        timeoutURL,
			Remarks:                remarks,
			Occasion:               request.Occasion,
		}
	}, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}
