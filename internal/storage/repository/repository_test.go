package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return &Storage{DB: db}, mock
}

var userRowColumns = []string{
	"id", "username", "email", "password_hash", "email_verified", "avatar_url",
	"is_vip", "vip_expire_at", "vip_plan_id", "name", "daily_download_count", "vip_daily_limit", "created_at",
}

var orderRowColumns = []string{
	"id", "out_trade_no", "trade_no", "user_id", "order_type", "product_id", "product_name",
	"amount", "status", "pay_channel", "notify_raw", "paid_at", "fulfilled_at", "created_at",
}

func TestStorage_GetUserByUsername(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	expire := created.AddDate(0, 1, 0)

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		want    *models.User
		wantErr error
	}{
		{
			name: "vip user with plan",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM users u LEFT JOIN vip_plans p ON p.id = u.vip_plan_id WHERE u.username = \\$1").
					WithArgs("reader").
					WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
						int64(7), "reader", "r@example.com", "aa:bb", true, nil,
						true, expire, int64(2), "monthly", 3, int32(30), created))
			},
			want: &models.User{
				ID: 7, Username: "reader", Email: "r@example.com", PasswordHash: "aa:bb", EmailVerified: true,
				IsVip: true, VipExpireAt: &expire, VipPlanID: ptr(int64(2)), VipPlanName: ptr("monthly"),
				DailyDownloadCount: 3, VipDailyLimit: ptr(30), CreatedAt: created,
			},
		},
		{
			name: "not found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM users u").WithArgs("reader").WillReturnError(sql.ErrNoRows)
			},
			wantErr: storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			tt.setup(mock)

			got, err := s.GetUserByUsername(context.Background(), "reader")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorage_CancelledContext(t *testing.T) {
	s, _ := newMockStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetUserByID(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "storage.GetUserByID")
}

func TestStorage_RegisterUser(t *testing.T) {
	user := models.User{Username: "reader", Email: "r@example.com", PasswordHash: "aa:bb"}

	t.Run("creates user and consumes code", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE email_verifications SET used = TRUE").WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO users").WithArgs("reader", "r@example.com", "aa:bb").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
		mock.ExpectCommit()

		id, err := s.RegisterUser(context.Background(), user, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(11), id)
	})

	t.Run("code already used", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE email_verifications SET used = TRUE").WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := s.RegisterUser(context.Background(), user, 5)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate username", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE email_verifications SET used = TRUE").WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})
		mock.ExpectRollback()

		_, err := s.RegisterUser(context.Background(), user, 5)
		require.ErrorIs(t, err, storage.ErrAlreadyExists)
		var unique *storage.UniqueError
		require.ErrorAs(t, err, &unique)
		assert.Equal(t, "users_username_key", unique.Constraint)
	})
}

func TestStorage_CheckUserTaken(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM users WHERE username = \\$1\\)").WithArgs("reader").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	usernameTaken, emailTaken, err := s.CheckUserTaken(context.Background(), "reader", "")

	require.NoError(t, err)
	require.NotNil(t, usernameTaken)
	assert.True(t, *usernameTaken)
	assert.Nil(t, emailTaken)
}

func TestStorage_ApplyOrderStatus(t *testing.T) {
	created := time.Now().UTC()
	paid := created.Add(time.Minute)

	tests := []struct {
		name           string
		previous       string
		returnedStatus string
		wantBecamePaid bool
	}{
		{name: "pending to success", previous: "pending", returnedStatus: "success", wantBecamePaid: true},
		{name: "success stays success", previous: "success", returnedStatus: "success", wantBecamePaid: false},
		{name: "pending to closed", previous: "pending", returnedStatus: "closed", wantBecamePaid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			mock.ExpectBegin()
			mock.ExpectQuery("SELECT status FROM orders WHERE out_trade_no = \\$1 FOR UPDATE").WithArgs("ORD1").
				WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(tt.previous))
			mock.ExpectQuery("UPDATE orders SET").
				WithArgs("ORD1", "success", sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(
					int64(1), "ORD1", "2025TRADE", int64(3), "course", int64(9), "Go course",
					19.9, tt.returnedStatus, "alipay", []byte(`{"trade_status":"TRADE_SUCCESS"}`), paid, nil, created))
			mock.ExpectCommit()

			order, becamePaid, err := s.ApplyOrderStatus(context.Background(), models.OrderStatusUpdate{
				OutTradeNo: "ORD1",
				Status:     "success",
				TradeNo:    "2025TRADE",
				NotifyRaw:  []byte(`{"trade_status":"TRADE_SUCCESS"}`),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantBecamePaid, becamePaid)
			assert.Equal(t, "2025TRADE", *order.TradeNo)
			assert.Equal(t, &paid, order.PaidAt)
		})
	}

	t.Run("unknown order", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT status FROM orders").WithArgs("missing").WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, _, err := s.ApplyOrderStatus(context.Background(), models.OrderStatusUpdate{OutTradeNo: "missing", Status: "success"})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStorage_FulfillOrder(t *testing.T) {
	fulfilledAt := time.Now()
	orderCols := []string{"user_id", "product_id", "order_type", "status", "amount", "fulfilled_at"}

	tests := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
		want  models.FulfillmentResult
	}{
		{
			name: "already fulfilled",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT user_id, product_id, order_type, status, amount, fulfilled_at").
					WithArgs("ORD1").
					WillReturnRows(sqlmock.NewRows(orderCols).AddRow(int64(1), int64(2), "course", "success", 10.0, fulfilledAt))
				mock.ExpectCommit()
			},
			want: models.FulfillmentAlreadyDone,
		},
		{
			name: "not paid yet",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT user_id, product_id").WithArgs("ORD1").
					WillReturnRows(sqlmock.NewRows(orderCols).AddRow(int64(1), int64(2), "course", "pending", 10.0, nil))
				mock.ExpectCommit()
			},
			want: models.FulfillmentNotPaid,
		},
		{
			name: "course access granted",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT user_id, product_id").WithArgs("ORD1").
					WillReturnRows(sqlmock.NewRows(orderCols).AddRow(int64(1), int64(2), "course", "success", 10.0, nil))
				mock.ExpectQuery("SELECT price FROM resources WHERE id = \\$1").WithArgs(int64(2)).
					WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(10.0))
				mock.ExpectExec("INSERT INTO user_resource_access").WithArgs(int64(1), int64(2)).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("UPDATE orders SET fulfilled_at = NOW\\(\\)").WithArgs("ORD1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: models.FulfillmentGranted,
		},
		{
			name: "vip extended",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT user_id, product_id").WithArgs("ORD1").
					WillReturnRows(sqlmock.NewRows(orderCols).AddRow(int64(1), int64(3), "vip", "success", 29.9, nil))
				mock.ExpectQuery("SELECT price FROM vip_plans WHERE id = \\$1").WithArgs(int64(3)).
					WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(29.9))
				mock.ExpectExec("UPDATE users u SET").WithArgs(int64(1), int64(3)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("UPDATE orders SET fulfilled_at").WithArgs("ORD1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: models.FulfillmentGranted,
		},
		{
			name: "underpaid course",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT user_id, product_id").WithArgs("ORD1").
					WillReturnRows(sqlmock.NewRows(orderCols).AddRow(int64(1), int64(2), "course", "success", 0.01, nil))
				mock.ExpectQuery("SELECT price FROM resources").WithArgs(int64(2)).
					WillReturnRows(sqlmock.NewRows([]string{"price"}).AddRow(10.0))
				mock.ExpectExec("UPDATE orders SET fulfilled_at").WithArgs("ORD1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: models.FulfillmentUnderpaid,
		},
		{
			name: "anonymous order",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT user_id, product_id").WithArgs("ORD1").
					WillReturnRows(sqlmock.NewRows(orderCols).AddRow(nil, int64(2), "course", "success", 10.0, nil))
				mock.ExpectExec("UPDATE orders SET fulfilled_at").WithArgs("ORD1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			want: models.FulfillmentSkipped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			tt.setup(mock)

			got, err := s.FulfillOrder(context.Background(), "ORD1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorage_ListResources_BuildsFilter(t *testing.T) {
	s, mock := newMockStorage(t)
	created := time.Now()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM resources r WHERE r.category_id = \\$1 AND EXISTS").
		WithArgs(int64(4), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY r.download_count DESC, r.id DESC\\s+LIMIT \\$3 OFFSET \\$4").
		WithArgs(int64(4), int64(8), 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "cover", "price", "is_vip_only", "category_id", "subcategory_id",
			"download_count", "view_count", "created_at",
		}).AddRow(int64(1), "Go templates", nil, 0.0, false, int64(4), nil, 100, 5, created))

	items, total, err := s.ListResources(context.Background(), models.ResourceFilter{
		CategoryID: ptr(int64(4)),
		TagID:      ptr(int64(8)),
		Sort:       models.SortDownloads,
		Page:       2,
		Size:       10,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Go templates", items[0].Title)
	assert.Nil(t, items[0].SubcategoryID)
}

func TestStorage_GetSiteSettings_Empty(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery("FROM site_settings LIMIT 1").WillReturnError(sql.ErrNoRows)

	got, err := s.GetSiteSettings(context.Background())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStorage_DeleteCategory_NotFound(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectExec("DELETE FROM categories WHERE id = \\$1").WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteCategory(context.Background(), 99)

	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_CreateTag_Duplicate(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery("INSERT INTO tags").WithArgs("go").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "tags_name_key"})

	_, err := s.CreateTag(context.Background(), "go")

	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestStorage_IncrementResourceViews(t *testing.T) {
	t.Run("returns new count", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectQuery("UPDATE resources SET view_count = view_count \\+ 1 WHERE id = \\$1 RETURNING view_count").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"view_count"}).AddRow(42))

		views, err := s.IncrementResourceViews(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, 42, views)
	})

	t.Run("deleted resource", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectQuery("UPDATE resources SET view_count").WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"view_count"}))

		_, err := s.IncrementResourceViews(context.Background(), 9)

		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func ptr[T any](v T) *T { return &v }
