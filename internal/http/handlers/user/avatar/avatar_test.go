package avatar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/lib/jwt"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	return m.Called(ctx, userID, avatarURL).Error(0)
}

func TestAvatarHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "updated",
			body: `{"avatarUrl":"/uploads/a.png"}`,
			setupMock: func(m *MockService) {
				m.On("UpdateAvatar", mock.Anything, int64(2), "/uploads/a.png").Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"data":{"username":"reader","avatarUrl":"/uploads/a.png"}}`,
		},
		{
			name:       "missing url",
			body:       `{}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"message":"field AvatarURL is a required field"}`,
		},
		{
			name: "user gone",
			body: `{"avatarUrl":"/uploads/a.png"}`,
			setupMock: func(m *MockService) {
				m.On("UpdateAvatar", mock.Anything, int64(2), "/uploads/a.png").
					Return(fmt.Errorf("auth.UpdateAvatar: %w", storage.ErrNotFound)).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"success":false,"message":"user not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/user/avatar", bytes.NewBufferString(tt.body))
			req = req.WithContext(middlewarectx.WithClaims(req.Context(), &jwt.Claims{UserID: 2, Username: "reader", Role: jwt.RoleUser}))
			rec := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
