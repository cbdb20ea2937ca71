package login

import (
	"bytes"
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
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, identifier, password string) (*models.User, *auth.Session, error) {
	args := m.Called(ctx, identifier, password)
	user, _ := args.Get(0).(*models.User)
	session, _ := args.Get(1).(*auth.Session)
	return user, session, args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler(t *testing.T) {
	expires := time.Now().Add(30 * 24 * time.Hour)

	tests := []struct {
		name       string
		body       string
		setupMock  func(*ServiceMock)
		wantStatus int
		wantBody   string
		wantCookie bool
	}{
		{
			name: "success",
			body: `{"identifier":"reader@example.com","password":"secret1"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "reader@example.com", "secret1").
					Return(&models.User{ID: 7, Username: "reader", Email: "reader@example.com"}, &auth.Session{Token: "tok", ExpiresAt: expires}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"data":{"id":7,"username":"reader","email":"reader@example.com"}}`,
			wantCookie: true,
		},
		{
			name: "login by username",
			body: `{"identifier":"reader","password":"secret1"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "reader", "secret1").
					Return(&models.User{ID: 7, Username: "reader", Email: "reader@example.com"}, &auth.Session{Token: "tok", ExpiresAt: expires}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"data":{"id":7,"username":"reader","email":"reader@example.com"}}`,
			wantCookie: true,
		},
		{
			name:       "missing identifier",
			body:       `{"username":"reader","password":"secret1"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"field Identifier is a required field"}`,
		},
		{
			name:       "invalid JSON",
			body:       `{bad json}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"invalid request body"}`,
		},
		{
			name:       "missing password",
			body:       `{"identifier":"reader"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"field Password is a required field"}`,
		},
		{
			name: "wrong credentials",
			body: `{"identifier":"reader","password":"nope"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "reader", "nope").Return(nil, nil, auth.ErrInvalidCredentials).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"invalid username/email or password"}`,
		},
		{
			name: "storage failure",
			body: `{"identifier":"reader","password":"secret1"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "reader", "secret1").Return(nil, nil, errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"success":false,"message":"login failed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc, true)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			cookies := rec.Result().Cookies()
			if tt.wantCookie {
				require.Len(t, cookies, 1)
				assert.Equal(t, middlewarectx.CookieSite, cookies[0].Name)
				assert.Equal(t, "tok", cookies[0].Value)
				assert.True(t, cookies[0].HttpOnly)
				assert.True(t, cookies[0].Secure)
			} else {
				assert.Empty(t, cookies)
			}
			svc.AssertExpectations(t)
		})
	}
}
