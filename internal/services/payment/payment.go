// Package payment связывает заказы магазина со шлюзом Alipay: предварительное
// создание сделки, приём уведомлений и запрос статуса.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/resource-store/internal/lib/ids"
	"github.com/magabrotheeeer/resource-store/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/obs"
	"github.com/magabrotheeeer/resource-store/internal/paymentprovider/alipay"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

// Ошибки валидации и платёжного шлюза.
var (
	ErrInvalidAmount     = errors.New("amount must be at least 0.01")
	ErrEmptySubject      = errors.New("order subject must not be empty")
	ErrInvalidOrderType  = errors.New("unknown order type")
	ErrMissingOutTradeNo = errors.New("missing order number")
	ErrInvalidSignature  = errors.New("invalid notification signature")
	ErrProvider          = errors.New("payment provider error")
)

const (
	minAmount        = 0.01
	maxSubjectLength = 256
	outTradeNoPrefix = "ORD"
	statusUnknown    = "UNKNOWN"
)

// ProviderError ошибка шлюза с сообщением для клиента.
type ProviderError struct {
	Message string
	Raw     json.RawMessage
}

func (e *ProviderError) Error() string {
	return "payment provider: " + e.Message
}

// Is позволяет сравнивать ProviderError с ErrProvider через errors.Is.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// Provider контракт платёжного шлюза.
type Provider interface {
	Precreate(ctx context.Context, req alipay.PrecreateRequest) (*alipay.TradeResponse, error)
	Query(ctx context.Context, outTradeNo string) (*alipay.TradeResponse, error)
	QueryUnverified(ctx context.Context, outTradeNo string) (*alipay.TradeResponse, error)
	VerifyNotify(ctx context.Context, params url.Values) error
}

// OrderRepository контракт хранилища заказов.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o models.Order) (int64, error)
	ApplyOrderStatus(ctx context.Context, upd models.OrderStatusUpdate) (*models.Order, bool, error)
}

// Publisher публикует события об оплате.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, message any) error
}

// PrecreateInput параметры создания заказа с QR-кодом.
type PrecreateInput struct {
	Amount    float64
	Subject   string
	OrderID   string
	UserID    *int64
	OrderType string
	ProductID *int64
}

// PrecreateResult данные для отображения QR-кода.
type PrecreateResult struct {
	QRCode     string `json:"qrCode"`
	OutTradeNo string `json:"outTradeNo"`
}

// QueryResult статус сделки по данным шлюза.
type QueryResult struct {
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"raw"`
}

// Service платёжный сервис.
type Service struct {
	provider  Provider
	orders    OrderRepository
	publisher Publisher
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(provider Provider, orders OrderRepository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		provider:  provider,
		orders:    orders,
		publisher: publisher,
		log:       log,
	}
}

// SanitizeSubject заменяет символы / = & пробелами, обрезает строку до 256
// символов и убирает крайние пробелы.
func SanitizeSubject(subject string) string {
	subject = strings.NewReplacer("/", " ", "=", " ", "&", " ").Replace(subject)
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		subject = string([]rune(subject)[:maxSubjectLength])
	}
	return strings.TrimSpace(subject)
}

// MapTradeStatus переводит статус сделки Alipay в статус заказа.
func MapTradeStatus(tradeStatus string) string {
	switch tradeStatus {
	case alipay.TradeSuccess, alipay.TradeFinished:
		return models.OrderStatusSuccess
	case alipay.TradeClosed:
		return models.OrderStatusClosed
	default:
		return models.OrderStatusPending
	}
}

// Precreate проверяет сумму и название, запрашивает QR-код у шлюза и только
// после успешного ответа сохраняет заказ в статусе pending.
func (s *Service) Precreate(ctx context.Context, in PrecreateInput) (*PrecreateResult, error) {
	const op = "payment.Precreate"
	log := s.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(ctx)))

	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount < minAmount {
		return nil, ErrInvalidAmount
	}
	subject := SanitizeSubject(in.Subject)
	if subject == "" {
		return nil, ErrEmptySubject
	}
	orderType := in.OrderType
	if orderType == "" {
		orderType = models.OrderTypeCourse
	}
	if orderType != models.OrderTypeCourse && orderType != models.OrderTypeVip {
		return nil, ErrInvalidOrderType
	}
	outTradeNo := strings.TrimSpace(in.OrderID)
	if outTradeNo == "" {
		outTradeNo = ids.WithPrefix(outTradeNoPrefix)
	}

	resp, err := s.provider.Precreate(ctx, alipay.PrecreateRequest{
		OutTradeNo: outTradeNo,
		Subject:    subject,
		Amount:     in.Amount,
	})
	if err != nil {
		log.Error("precreate call failed", slog.String("out_trade_no", outTradeNo), sl.Err(err))
		return nil, &ProviderError{Message: err.Error()}
	}
	if !resp.IsSuccess() || resp.QRCode == "" {
		msg := resp.Message()
		if msg == "" {
			msg = "precreate failed"
		}
		log.Warn("precreate rejected", slog.String("out_trade_no", outTradeNo), slog.String("code", resp.Code), slog.String("msg", msg))
		return nil, &ProviderError{Message: msg, Raw: resp.Raw}
	}

	if _, err := s.orders.CreateOrder(ctx, models.Order{
		OutTradeNo:  outTradeNo,
		UserID:      in.UserID,
		OrderType:   orderType,
		ProductID:   in.ProductID,
		ProductName: subject,
		Amount:      in.Amount,
		Status:      models.OrderStatusPending,
		PayChannel:  models.PayChannelAlipay,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("order created", slog.String("out_trade_no", outTradeNo), slog.String("order_type", orderType))
	return &PrecreateResult{QRCode: resp.QRCode, OutTradeNo: outTradeNo}, nil
}

// HandleNotify проверяет подпись уведомления и применяет статус к заказу.
// Уведомление о неизвестном заказе подтверждается без изменений. Ошибка
// хранилища или брокера возвращается, чтобы шлюз повторил уведомление.
func (s *Service) HandleNotify(ctx context.Context, params url.Values) error {
	const op = "payment.HandleNotify"
	log := s.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(ctx)))

	if err := s.provider.VerifyNotify(ctx, params); err != nil {
		log.Warn("notification signature rejected", sl.Err(err))
		return fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	outTradeNo := params.Get("out_trade_no")
	if outTradeNo == "" {
		log.Warn("notification without out_trade_no")
		return nil
	}
	status := MapTradeStatus(params.Get("trade_status"))
	obs.ObserveNotification(status)

	raw, err := json.Marshal(flatten(params))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	order, becamePaid, err := s.orders.ApplyOrderStatus(ctx, models.OrderStatusUpdate{
		OutTradeNo: outTradeNo,
		Status:     status,
		TradeNo:    params.Get("trade_no"),
		NotifyRaw:  raw,
	})
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("notification for unknown order", slog.String("out_trade_no", outTradeNo))
		return nil
	}
	if err != nil {
		log.Error("failed to update order", slog.String("out_trade_no", outTradeNo), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if becamePaid {
		log.Info("order paid", slog.String("out_trade_no", outTradeNo))
	}
	if err := s.announcePaid(ctx, order); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Query запрашивает статус сделки у шлюза. Если подпись ответа не сошлась,
// запрос повторяется один раз без проверки подписи. К локальному заказу
// применяется только ответ с проверенной подписью.
func (s *Service) Query(ctx context.Context, outTradeNo string) (*QueryResult, error) {
	const op = "payment.Query"
	log := s.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(ctx)))

	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return nil, ErrMissingOutTradeNo
	}

	verified := true
	resp, err := s.provider.Query(ctx, outTradeNo)
	if errors.Is(err, alipay.ErrInvalidSignature) {
		log.Warn("query response signature rejected, retrying without verification", slog.String("out_trade_no", outTradeNo))
		verified = false
		resp, err = s.provider.QueryUnverified(ctx, outTradeNo)
	}
	if err != nil {
		log.Error("query call failed", slog.String("out_trade_no", outTradeNo), sl.Err(err))
		return nil, &ProviderError{Message: err.Error()}
	}

	result := &QueryResult{Status: resp.TradeStatus, Raw: resp.Raw}
	if result.Status == "" {
		result.Status = statusUnknown
	}

	if verified && resp.IsSuccess() && resp.TradeStatus != "" {
		s.syncOrder(ctx, log, outTradeNo, resp)
	}
	return result, nil
}

// syncOrder применяет проверенный ответ шлюза к заказу. Ошибки только
// логируются: клиент получает ответ шлюза в любом случае.
func (s *Service) syncOrder(ctx context.Context, log *slog.Logger, outTradeNo string, resp *alipay.TradeResponse) {
	order, _, err := s.orders.ApplyOrderStatus(ctx, models.OrderStatusUpdate{
		OutTradeNo: outTradeNo,
		Status:     MapTradeStatus(resp.TradeStatus),
		TradeNo:    resp.TradeNo,
	})
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		log.Error("failed to sync order from query", slog.String("out_trade_no", outTradeNo), sl.Err(err))
		return
	}
	if err := s.announcePaid(ctx, order); err != nil {
		log.Error("failed to publish order.paid", slog.String("out_trade_no", outTradeNo), sl.Err(err))
	}
}

// announcePaid публикует order.paid для оплаченного и ещё не выданного заказа.
// Повторная публикация безопасна: выдача выполняется один раз.
func (s *Service) announcePaid(ctx context.Context, order *models.Order) error {
	if order.Status != models.OrderStatusSuccess || order.FulfilledAt != nil {
		return nil
	}
	event := models.OrderPaidEvent{
		OutTradeNo: order.OutTradeNo,
		UserID:     order.UserID,
		OrderType:  order.OrderType,
		ProductID:  order.ProductID,
	}
	if order.PaidAt != nil {
		event.PaidAt = *order.PaidAt
	}
	return s.publisher.Publish(ctx, rabbitmq.ExchangeOrders, rabbitmq.RoutingOrderPaid, event)
}

func flatten(params url.Values) map[string]string {
	out := make(map[string]string, len(params))
	for k := range params {
		out[k] = params.Get(k)
	}
	return out
}
