// Package obs содержит метрики Prometheus сервиса и HTTP-инструментирование.
package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Общие HTTP-метрики
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Доменные метрики
var (
	providerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alipay_calls_total",
			Help: "Calls to the Alipay gateway by method and result.",
		},
		[]string{"method", "result"},
	)

	paymentNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alipay_notifications_total",
			Help: "Received Alipay notifications by local status.",
		},
		[]string{"status"},
	)

	fulfillments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_fulfillments_total",
			Help: "Processed order.paid events by outcome.",
		},
		[]string{"result"},
	)

	mailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_mails_total",
			Help: "Verification e-mails by delivery result.",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Init регистрирует метрики в default-регистре. Повторные вызовы ничего не делают.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			providerCalls, paymentNotifications, fulfillments, mailsSent,
		)
	})
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument измеряет число запросов, задержку и запросы в полёте.
// Путь берётся из шаблона маршрута chi, чтобы id не раздували кардинальность.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := RoutePattern(r)
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

// RoutePattern возвращает шаблон сработавшего маршрута или "unmatched".
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// ObserveProviderCall учитывает вызов платёжного шлюза.
func ObserveProviderCall(method string, err error) {
	providerCalls.WithLabelValues(method, result(err)).Inc()
}

// ObserveNotification учитывает уведомление об оплате с локальным статусом.
func ObserveNotification(status string) {
	paymentNotifications.WithLabelValues(status).Inc()
}

// ObserveFulfillment учитывает исход выдачи купленного.
func ObserveFulfillment(outcome string) {
	fulfillments.WithLabelValues(outcome).Inc()
}

// ObserveMail учитывает отправку письма.
func ObserveMail(err error) {
	mailsSent.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// statusWriter запоминает код ответа.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
