package users

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/services/admin"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ListUsers(ctx context.Context, q string, page, size int) (*models.Page[models.UserSummary], error) {
	args := m.Called(ctx, q, page, size)
	v, _ := args.Get(0).(*models.Page[models.UserSummary])
	return v, args.Error(1)
}

func (m *ServiceMock) UpdateUser(ctx context.Context, id int64, in admin.UserUpdateInput) (*models.UserSummary, error) {
	args := m.Called(ctx, id, in)
	v, _ := args.Get(0).(*models.UserSummary)
	return v, args.Error(1)
}

func (m *ServiceMock) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func TestUsersHandler(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		method     string
		url        string
		body       string
		setupMock  func(*ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "list with search",
			method: http.MethodGet,
			url:    "/users?q=read&page=2",
			setupMock: func(m *ServiceMock) {
				m.On("ListUsers", mock.Anything, "read", 2, admin.DefaultPageSize).Return(&models.Page[models.UserSummary]{
					Items: []models.UserSummary{{ID: 1, Username: "reader", Email: "r@example.com", CreatedAt: created}},
					Total: 21, Page: 2, Size: 20,
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody: `{"success":true,"data":{"items":[{"id":1,"username":"reader","email":"r@example.com","emailVerified":false,
				"isVip":false,"vipExpireAt":null,"createdAt":"2026-01-01T00:00:00Z"}],"total":21,"page":2,"size":20}}`,
		},
		{
			name:   "update passes only present fields",
			method: http.MethodPut,
			url:    "/users/1",
			body:   `{"emailVerified":true}`,
			setupMock: func(m *ServiceMock) {
				m.On("UpdateUser", mock.Anything, int64(1), mock.MatchedBy(func(in admin.UserUpdateInput) bool {
					return in.Username == nil && in.Email == nil && in.Password == nil &&
						in.EmailVerified != nil && *in.EmailVerified
				})).Return(&models.UserSummary{ID: 1, Username: "reader", EmailVerified: true, CreatedAt: created}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody: `{"success":true,"data":{"id":1,"username":"reader","email":"","emailVerified":true,
				"isVip":false,"vipExpireAt":null,"createdAt":"2026-01-01T00:00:00Z"}}`,
		},
		{
			name:   "update duplicate username",
			method: http.MethodPut,
			url:    "/users/1",
			body:   `{"username":"taken"}`,
			setupMock: func(m *ServiceMock) {
				m.On("UpdateUser", mock.Anything, int64(1), mock.Anything).
					Return(nil, fmt.Errorf("admin.UpdateUser: %w", &storage.UniqueError{Constraint: "users_username_key"})).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"username already exists"}`,
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			url:    "/users/1",
			setupMock: func(m *ServiceMock) {
				m.On("DeleteUser", mock.Anything, int64(1)).Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
			router := chi.NewRouter()
			router.Get("/users", h.List)
			router.Put("/users/{id}", h.Update)
			router.Delete("/users/{id}", h.Delete)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.url, bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
