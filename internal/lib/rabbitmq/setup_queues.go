package rabbitmq

// Обменники и ключи маршрутизации сервиса.
const (
	ExchangeOrders        = "orders"
	ExchangeNotifications = "notifications"

	RoutingOrderPaid    = "order.paid"
	RoutingVerification = "verification"

	QueueFulfillment  = "orders.fulfillment"
	QueueVerification = "notifications.verification"
)

// QueueConfig описывает очередь и её привязку к обменнику.
type QueueConfig struct {
	Exchange   string
	QueueName  string
	RoutingKey string
}

// FulfillmentQueues топология воркера выдачи доступа после оплаты.
func FulfillmentQueues() []QueueConfig {
	return []QueueConfig{
		{Exchange: ExchangeOrders, QueueName: QueueFulfillment, RoutingKey: RoutingOrderPaid},
	}
}

// NotificationQueues топология воркера отправки писем.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{Exchange: ExchangeNotifications, QueueName: QueueVerification, RoutingKey: RoutingVerification},
	}
}

// AllQueues полная топология, объявляемая HTTP-сервисом при старте, чтобы
// события не терялись до запуска воркеров.
func AllQueues() []QueueConfig {
	return append(FulfillmentQueues(), NotificationQueues()...)
}
