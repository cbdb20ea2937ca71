package models

import (
	"encoding/json"
	"time"
)

// Статусы заказа.
const (
	OrderStatusPending = "pending"
	OrderStatusSuccess = "success"
	OrderStatusClosed  = "closed"
)

// Типы заказа.
const (
	OrderTypeCourse = "course"
	OrderTypeVip    = "vip"
)

// PayChannelAlipay единственный поддерживаемый платёжный канал.
const PayChannelAlipay = "alipay"

// Order заказ на покупку ресурса или VIP-тарифа.
type Order struct {
	ID          int64           `json:"id"`
	OutTradeNo  string          `json:"outTradeNo"`
	TradeNo     *string         `json:"tradeNo"`
	UserID      *int64          `json:"userId"`
	OrderType   string          `json:"orderType"`
	ProductID   *int64          `json:"productId"`
	ProductName string          `json:"productName"`
	Amount      float64         `json:"amount"`
	Status      string          `json:"status"`
	PayChannel  string          `json:"payChannel"`
	NotifyRaw   json.RawMessage `json:"notifyRaw,omitempty"`
	PaidAt      *time.Time      `json:"paidAt"`
	FulfilledAt *time.Time      `json:"fulfilledAt"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// OrderStatusUpdate изменение статуса заказа по данным платёжной системы.
type OrderStatusUpdate struct {
	OutTradeNo string
	Status     string
	TradeNo    string
	NotifyRaw  json.RawMessage
}

// OrderAdminUpdate правка заказа администратором. nil означает «не менять».
type OrderAdminUpdate struct {
	Status      *string
	TradeNo     *string
	ProductName *string
	ClearPaidAt bool
}

// OrderFilter фильтр списка заказов в админке.
type OrderFilter struct {
	Status string
	UserID *int64
	Page   int
	Size   int
}

// OrderPaidEvent событие об успешной оплате заказа.
type OrderPaidEvent struct {
	OutTradeNo string    `json:"outTradeNo"`
	UserID     *int64    `json:"userId"`
	OrderType  string    `json:"orderType"`
	ProductID  *int64    `json:"productId"`
	PaidAt     time.Time `json:"paidAt"`
}

// FulfillmentResult исход выдачи купленного по заказу.
type FulfillmentResult string

// Исходы выдачи.
const (
	FulfillmentGranted     FulfillmentResult = "granted"
	FulfillmentAlreadyDone FulfillmentResult = "already_done"
	FulfillmentUnderpaid   FulfillmentResult = "underpaid"
	FulfillmentSkipped     FulfillmentResult = "skipped"
	FulfillmentNotPaid     FulfillmentResult = "not_paid"
)
