// Package server содержит gRPC-сервер готовности сервиса.
package server

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
)

// Check проверка одной зависимости сервиса.
type Check func(ctx context.Context) error

// HealthServer публикует grpc.health.v1 и обновляет статусы по результатам проверок.
// Общий статус (пустое имя сервиса) SERVING только когда все проверки успешны.
type HealthServer struct {
	srv      *health.Server
	checks   map[string]Check
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger

	mu   sync.Mutex
	last map[string]error
}

// NewHealthServer создаёт сервер. До первого Probe все статусы NOT_SERVING.
func NewHealthServer(log *slog.Logger, interval time.Duration, checks map[string]Check) *HealthServer {
	h := &HealthServer{
		srv:      health.NewServer(),
		checks:   checks,
		interval: interval,
		timeout:  interval / 2,
		log:      log,
		last:     make(map[string]error, len(checks)),
	}
	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for name := range checks {
		h.srv.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return h
}

// Register регистрирует сервис здоровья на gRPC-сервере.
func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// Probe выполняет все проверки один раз и обновляет статусы.
func (h *HealthServer) Probe(ctx context.Context) {
	const op = "server.HealthServer.Probe"
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	h.mu.Lock()
	defer h.mu.Unlock()
	overall := healthpb.HealthCheckResponse_SERVING
	for _, name := range names {
		err := h.checks[name](ctx)
		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if prev, seen := h.last[name]; !seen || (prev == nil) != (err == nil) {
			if err != nil {
				h.log.Warn("dependency unhealthy", slog.String("op", op), slog.String("check", name), sl.Err(err))
			} else {
				h.log.Info("dependency healthy", slog.String("op", op), slog.String("check", name))
			}
		}
		h.last[name] = err
		h.srv.SetServingStatus(name, status)
	}
	h.srv.SetServingStatus("", overall)
}

// Watch повторяет Probe с заданным интервалом до отмены ctx.
func (h *HealthServer) Watch(ctx context.Context) {
	h.Probe(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// Shutdown переводит все статусы в NOT_SERVING перед остановкой.
func (h *HealthServer) Shutdown() {
	h.srv.Shutdown()
}
