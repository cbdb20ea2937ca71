package alipay

import (
	"encoding/json"

	sdk "github.com/smartwalle/alipay/v3"
)

// Методы OpenAPI, которыми пользуется магазин.
const (
	MethodPrecreate = "alipay.trade.precreate"
	MethodQuery     = "alipay.trade.query"
)

// CodeSuccess код успешного ответа шлюза.
const CodeSuccess = string(sdk.CodeSuccess)

// Статусы сделки на стороне Alipay.
const (
	TradeSuccess      = string(sdk.TradeStatusSuccess)
	TradeFinished     = string(sdk.TradeStatusFinished)
	TradeWaitBuyerPay = string(sdk.TradeStatusWaitBuyerPay)
	TradeClosed       = string(sdk.TradeStatusClosed)
)

const productCodeFaceToFace = "FACE_TO_FACE_PAYMENT"

// PrecreateRequest параметры предварительного создания сделки по QR-коду.
type PrecreateRequest struct {
	OutTradeNo string
	Subject    string
	Amount     float64
}

// TradeResponse узел *_response ответа шлюза для precreate и query.
type TradeResponse struct {
	Code         string `json:"code"`
	Msg          string `json:"msg"`
	SubCode      string `json:"sub_code,omitempty"`
	SubMsg       string `json:"sub_msg,omitempty"`
	OutTradeNo   string `json:"out_trade_no,omitempty"`
	QRCode       string `json:"qr_code,omitempty"`
	TradeNo      string `json:"trade_no,omitempty"`
	TradeStatus  string `json:"trade_status,omitempty"`
	TotalAmount  string `json:"total_amount,omitempty"`
	BuyerLogonID string `json:"buyer_logon_id,omitempty"`

	// Raw исходный JSON узла ответа.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON разбирает узел ответа и сохраняет его исходные байты в Raw.
func (r *TradeResponse) UnmarshalJSON(data []byte) error {
	type plain TradeResponse
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// IsSuccess сообщает, что шлюз принял запрос.
func (r *TradeResponse) IsSuccess() bool {
	return r.Code == CodeSuccess
}

// Message возвращает наиболее подробное сообщение об ошибке из ответа.
func (r *TradeResponse) Message() string {
	if r.SubMsg != "" {
		return r.SubMsg
	}
	return r.Msg
}
