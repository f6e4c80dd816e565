package mpesa

import "context"

// QR transaction codes.
const (
	QRTrxBuyGoods     = "BG"
	QRTrxWithdraw     = "WA"
	QRTrxPaybill      = "PB"
	QRTrxSendMoney    = "SM"
	QRTrxSendBusiness = "SB"
)

// DynamicQRRequest describes a dynamic QR code for a till or paybill.
type DynamicQRRequest struct {
	MerchantName string
	// RefNo correlates the QR payment with the merchant's records.
	RefNo  string
	Amount int64
	// TrxCode defaults to BG (buy goods).
	TrxCode string
	// CPI identifies the credit party (till, paybill or msisdn); defaults
	// to the configured shortcode.
	CPI string
	// Size in pixels; one of 100, 200, 300, 400, 500. Defaults to 300.
	Size string
}

type dynamicQRPayload struct {
	MerchantName string `json:"MerchantName"`
	RefNo        string `json:"RefNo"`
	Amount       int64  `json:"Amount"`
	TrxCode      string `json:"TrxCode"`
	CPI          string `json:"CPI"`
	Size         string `json:"Size"`
}

// DynamicQRResponse carries the generated QR image. QRCode is an opaque
// base64 field rendered by the gateway.
type DynamicQRResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	QRCode              string `json:"QRCode"`
}

// GenerateDynamicQR requests a scannable payment QR code from the gateway.
func (c *Client) GenerateDynamicQR(ctx context.Context, request DynamicQRRequest) (*DynamicQRResponse, error) {
	if request.MerchantName == "" {
		return nil, &ValidationError{Field: "merchantName", Message: "is required"}
	}
	if request.RefNo == "" {
		return nil, &ValidationError{Field: "refNo", Message: "is required"}
	}
	if request.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	if err := validateQRSize(request.Size); err != nil {
		return nil, err
	}

	trxCode := request.TrxCode
	if trxCode == "" {
		trxCode = QRTrxBuyGoods
	}
	cpi := request.CPI
	if cpi == "" {
		cpi = c.config.ShortCode
	}
	size := request.Size
	if size == "" {
		size = "300"
	}

	var response DynamicQRResponse
	err := c.call(ctx, "dynamic qr", endpointDynamicQR, func() any {
		return dynamicQRPayload{
			MerchantName: request.MerchantName,
			RefNo:        request.RefNo,
			Amount:       request.Amount,
			TrxCode:      trxCode,
			CPI:          cpi,
			Size:         size,
		}
	}, &response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}
