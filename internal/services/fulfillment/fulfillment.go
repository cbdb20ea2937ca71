// Package fulfillment выдаёт купленное после оплаты: доступ к ресурсу или
// продление VIP по событию order.paid.
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/obs"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

// OrderRepository выполняет выдачу по заказу.
type OrderRepository interface {
	FulfillOrder(ctx context.Context, outTradeNo string) (models.FulfillmentResult, error)
}

// Service обработчик событий об оплате.
type Service struct {
	orders OrderRepository
	log    *slog.Logger
}

// New создает новый экземпляр Service.
func New(orders OrderRepository, log *slog.Logger) *Service {
	return &Service{orders: orders, log: log}
}

// HandleOrderPaid обрабатывает событие order.paid. Битое сообщение и
// неизвестный заказ подтверждаются без повтора. Ошибка хранилища
// возвращается, и сообщение уходит обратно в очередь.
func (s *Service) HandleOrderPaid(ctx context.Context, body []byte) error {
	const op = "fulfillment.HandleOrderPaid"
	log := s.log.With(slog.String("op", op))

	var event models.OrderPaidEvent
	if err := json.Unmarshal(body, &event); err != nil || event.OutTradeNo == "" {
		log.Error("malformed order.paid event dropped", sl.Err(err))
		return nil
	}
	log = log.With(slog.String("out_trade_no", event.OutTradeNo))

	result, err := s.orders.FulfillOrder(ctx, event.OutTradeNo)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("order.paid for unknown order")
		return nil
	}
	if err != nil {
		obs.ObserveFulfillment("error")
		log.Error("fulfillment failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	obs.ObserveFulfillment(string(result))

	switch result {
	case models.FulfillmentGranted:
		log.Info("order fulfilled", slog.String("order_type", event.OrderType))
	case models.FulfillmentUnderpaid:
		log.Warn("order amount below product price, nothing granted")
	case models.FulfillmentSkipped:
		log.Warn("order has no user or product, nothing granted")
	case models.FulfillmentNotPaid:
		log.Warn("order.paid for order that is not paid")
	default:
		log.Debug("order already fulfilled")
	}
	return nil
}
