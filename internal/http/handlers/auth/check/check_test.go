package check

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CheckAvailability(ctx context.Context, username, email string) (*bool, *bool, error) {
	args := m.Called(ctx, username, email)
	u, _ := args.Get(0).(*bool)
	e, _ := args.Get(1).(*bool)
	return u, e, args.Error(2)
}

func ptr(b bool) *bool { return &b }

func TestCheckHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(*ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "username only",
			body: `{"username":"reader"}`,
			setupMock: func(m *ServiceMock) {
				m.On("CheckAvailability", mock.Anything, "reader", "").Return(ptr(true), nil, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"data":{"usernameTaken":true,"emailTaken":null}}`,
		},
		{
			name: "both",
			body: `{"username":"reader","email":"reader@example.com"}`,
			setupMock: func(m *ServiceMock) {
				m.On("CheckAvailability", mock.Anything, "reader", "reader@example.com").Return(ptr(false), ptr(false), nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"data":{"usernameTaken":false,"emailTaken":false}}`,
		},
		{
			name:       "nothing to check",
			body:       `{}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"username or email is required"}`,
		},
		{
			name: "storage failure",
			body: `{"email":"reader@example.com"}`,
			setupMock: func(m *ServiceMock) {
				m.On("CheckAvailability", mock.Anything, "", "reader@example.com").Return(nil, nil, errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"success":false,"message":"check failed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/check", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
