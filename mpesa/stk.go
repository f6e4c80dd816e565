package mpesa

import "context"

// STKPushRequest describes a push-to-pay (Lipa Na M-Pesa Online) prompt.
type STKPushRequest struct {
	// PhoneNumber is the payer's number in any of the accepted local forms;
	// it is normalized to 254XXXXXXXXX before being sent.
	PhoneNumber string
	Amount      int64
	// AccountReference appears on the payer's statement. Required.
	AccountReference string
	Description      string
	// CallbackURL overrides Config.CallbackURL for this request.
	CallbackURL string
	// TransactionType defaults to CustomerPayBillOnline. Use
	// CustomerBuyGoodsOnline for till numbers.
	TransactionType string
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the gateway's acknowledgement of a push request. The
// transaction outcome arrives later on the callback URL.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKPush initiates a payment prompt on the payer's device.
func (c *Client) STKPush(ctx context.Context, request STKPushRequest) (*STKPushResponse, error) {
	phone, err := FormatPhoneNumber(request.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if request.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	if request.AccountReference == "" {
		return nil, &ValidationError{Field: "accountReference", Message: "is required"}
	}

	callbackURL := request.CallbackURL
	if callbackURL == "" {
		callbackURL = c.config.CallbackURL
	}
	if callbackURL == "" {
		return nil, &ValidationError{Field: "callbackURL", Message: "is required"}
	}

	transactionType := request.TransactionType
	if transactionType == "" {
		transactionType = "CustomerPayBillOnline"
	}

	description := request.Description
	if description == "" {
		description = "Payment for " + request.AccountReference
	}

	var response STKPushResponse
	err = c.call(ctx, "stk push", endpointSTKPush, func() any {
		timestamp := c.tokens.Timestamp()
		return stkPushPayload{
			BusinessShortCode: c.config.ShortCode,
			Password:          c.tokens.Password(timestamp),
			Timestamp:         timestamp,
			TransactionType:   transactionType,
			Amount:            request.Amount,
			PartyA:            phone,
			PartyB:            c.config.ShortCode,
			PhoneNumber:       phone,
			CallBackURL:       callbackURL,
			AccountReference:  request.AccountReference,
			TransactionDesc:   description,
		}
	}, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

type stkQueryPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// STKQueryResponse reports the current state of a previously initiated push.
type STKQueryResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

// STKQuery checks the status of an STK push by its checkout request ID.
func (c *Client) STKQuery(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error) {
	if checkoutRequestID == "" {
		return nil, &ValidationError{Field: "checkoutRequestID", Message: "is required"}
	}

	var response STKQueryResponse
	err := c.call(ctx, "stk query", endpointSTKQuery, func() any {
		timestamp := c.tokens.Timestamp()
		return stkQueryPayload{
			BusinessShortCode: c.config.ShortCode,
			Password:          c.tokens.Password(timestamp),
			Timestamp:         timestamp,
			CheckoutRequestID: checkoutRequestID,
		}
	}, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}
