package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/lib/jwt"
	"github.com/magabrotheeeer/resource-store/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Orders(ctx context.Context, userID int64) ([]models.Order, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).([]models.Order)
	return v, args.Error(1)
}

func TestOrdersHandler(t *testing.T) {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		orders     []models.Order
		err        error
		wantStatus int
		wantParts  []string
	}{
		{
			name: "list",
			orders: []models.Order{{
				ID: 1, OutTradeNo: "ORD1", OrderType: models.OrderTypeVip, ProductName: "Month",
				Amount: 30, Status: models.OrderStatusSuccess, PayChannel: models.PayChannelAlipay, CreatedAt: created,
			}},
			wantStatus: http.StatusOK,
			wantParts:  []string{`"success":true`, `"outTradeNo":"ORD1"`, `"status":"success"`},
		},
		{
			name:       "empty list",
			wantStatus: http.StatusOK,
			wantParts:  []string{`"data":[]`},
		},
		{
			name:       "failure keeps empty data",
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
			wantParts:  []string{`"success":false`, `"message":"db down"`, `"data":[]`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Orders", mock.Anything, int64(4)).Return(tt.orders, tt.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/api/user/orders", nil)
			req = req.WithContext(middlewarectx.WithClaims(req.Context(), &jwt.Claims{UserID: 4, Role: jwt.RoleUser}))
			rec := httptest.NewRecorder()
			New(log, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			for _, part := range tt.wantParts {
				assert.Contains(t, rec.Body.String(), part)
			}
			svc.AssertExpectations(t)
		})
	}
}
