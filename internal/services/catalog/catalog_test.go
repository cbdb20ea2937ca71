package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/resource-store/internal/access"
	"github.com/magabrotheeeer/resource-store/internal/cache"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Resource), args.Error(1)
}

func (m *MockRepository) ListResources(ctx context.Context, f models.ResourceFilter) ([]models.ResourceSummary, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.ResourceSummary), args.Int(1), args.Error(2)
}

func (m *MockRepository) ResourceNeighbours(ctx context.Context, id int64) (*models.Neighbours, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Neighbours), args.Error(1)
}

func (m *MockRepository) IncrementResourceViews(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) ListCategoryTree(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockRepository) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SiteSettings), args.Error(1)
}

func (m *MockRepository) ListVipPlans(ctx context.Context) ([]models.VipPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VipPlan), args.Error(1)
}

func (m *MockRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) HasResourceAccess(ctx context.Context, userID, resourceID int64) (bool, error) {
	args := m.Called(ctx, userID, resourceID)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *MockRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := new(MockRepository)
	s := New(repo, &cache.Cache{Db: client, TTL: time.Minute}, newNoopLogger())
	s.now = func() time.Time { return testNow }
	return s, repo, mr
}

func int64Ptr(v int64) *int64 { return &v }

func TestNormalizeFilter(t *testing.T) {
	tests := []struct {
		name    string
		in      models.ResourceFilter
		want    models.ResourceFilter
		wantErr error
	}{
		{
			name: "defaults",
			in:   models.ResourceFilter{},
			want: models.ResourceFilter{Page: 1, Size: DefaultPageSize, Sort: models.SortLatest},
		},
		{
			name: "size capped",
			in:   models.ResourceFilter{Page: 3, Size: 1000, Sort: models.SortViews},
			want: models.ResourceFilter{Page: 3, Size: MaxPageSize, Sort: models.SortViews},
		},
		{
			name: "negative page",
			in:   models.ResourceFilter{Page: -2, Size: 5, Sort: models.SortDownloads},
			want: models.ResourceFilter{Page: 1, Size: 5, Sort: models.SortDownloads},
		},
		{
			name:    "unknown sort",
			in:      models.ResourceFilter{Sort: "price"},
			wantErr: ErrInvalidSort,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeFilter(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_ListResources_ReadThrough(t *testing.T) {
	s, repo, _ := newService(t)
	ctx := context.Background()
	filter := models.ResourceFilter{CategoryID: int64Ptr(2), Page: 1, Size: DefaultPageSize, Sort: models.SortLatest}
	items := []models.ResourceSummary{{ID: 1, Title: "Go patterns"}}
	repo.On("ListResources", mock.Anything, filter).Return(items, 1, nil).Once()

	first, err := s.ListResources(ctx, models.ResourceFilter{CategoryID: int64Ptr(2)})
	require.NoError(t, err)
	second, err := s.ListResources(ctx, models.ResourceFilter{CategoryID: int64Ptr(2)})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Total)
	assert.Equal(t, first.Items[0].Title, second.Items[0].Title)
	assert.Equal(t, DefaultPageSize, second.Size)
	repo.AssertExpectations(t)
}

func TestService_ListResources_InvalidSort(t *testing.T) {
	s, repo, _ := newService(t)

	_, err := s.ListResources(context.Background(), models.ResourceFilter{Sort: "random"})

	require.ErrorIs(t, err, ErrInvalidSort)
	repo.AssertNotCalled(t, "ListResources", mock.Anything, mock.Anything)
}

func TestService_GetResource(t *testing.T) {
	t.Run("counts every view but loads once", func(t *testing.T) {
		s, repo, _ := newService(t)
		res := &models.Resource{ID: 5, Title: "Figma kit", ViewCount: 10, Downloads: []models.Download{{ID: 1, URL: "https://pan.example.com/x"}}}
		repo.On("GetResource", mock.Anything, int64(5)).Return(res, nil).Once()
		repo.On("IncrementResourceViews", mock.Anything, int64(5)).Return(11, nil).Once()
		repo.On("IncrementResourceViews", mock.Anything, int64(5)).Return(12, nil).Once()

		for _, want := range []int{11, 12} {
			got, err := s.GetResource(context.Background(), 5)
			require.NoError(t, err)
			assert.Equal(t, "https://pan.example.com/x", got.Downloads[0].URL)
			assert.Equal(t, want, got.ViewCount)
		}
		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		s, repo, _ := newService(t)
		repo.On("GetResource", mock.Anything, int64(9)).Return(nil, storage.ErrNotFound).Once()

		_, err := s.GetResource(context.Background(), 9)

		require.ErrorIs(t, err, storage.ErrNotFound)
		repo.AssertNotCalled(t, "IncrementResourceViews", mock.Anything, mock.Anything)
	})

	t.Run("view counter failure is ignored", func(t *testing.T) {
		s, repo, _ := newService(t)
		repo.On("GetResource", mock.Anything, int64(5)).Return(&models.Resource{ID: 5, ViewCount: 3}, nil).Once()
		repo.On("IncrementResourceViews", mock.Anything, int64(5)).Return(0, errors.New("db down")).Once()

		got, err := s.GetResource(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, 3, got.ViewCount)
	})
}

func TestService_CacheUnavailable(t *testing.T) {
	s, repo, mr := newService(t)
	mr.Close()
	repo.On("ListTags", mock.Anything).Return([]models.Tag{{ID: 1, Name: "go"}}, nil).Once()

	tags, err := s.Tags(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []models.Tag{{ID: 1, Name: "go"}}, tags)
}

func TestService_Metadata(t *testing.T) {
	s, repo, mr := newService(t)
	ctx := context.Background()
	repo.On("ListCategoryTree", mock.Anything).Return([]models.Category{{ID: 1, Name: "Design"}}, nil).Once()
	repo.On("GetSiteSettings", mock.Anything).Return(&models.SiteSettings{}, nil).Once()
	repo.On("ListVipPlans", mock.Anything).Return([]models.VipPlan{{ID: 1, Name: "Month", DurationDays: 30}}, nil).Once()

	_, err := s.Categories(ctx)
	require.NoError(t, err)
	_, err = s.SiteSettings(ctx)
	require.NoError(t, err)
	plans, err := s.VipPlans(ctx)
	require.NoError(t, err)

	assert.Equal(t, 30, plans[0].DurationDays)
	assert.True(t, mr.Exists(cache.KeyCategoryTree))
	assert.True(t, mr.Exists(cache.KeySiteSettings))
	assert.True(t, mr.Exists(cache.KeyVipPlans))
	repo.AssertExpectations(t)
}

func TestService_Restrictions(t *testing.T) {
	future := testNow.Add(24 * time.Hour)
	paid := &models.Resource{ID: 1, Price: 9.9}

	tests := []struct {
		name   string
		userID *int64
		user   *models.User
		err    error
		want   access.Restrictions
	}{
		{
			name: "anonymous",
			want: access.Restrictions{Reason: access.ReasonLoginRequired},
		},
		{
			name:   "deleted user treated as anonymous",
			userID: int64Ptr(3),
			err:    storage.ErrNotFound,
			want:   access.Restrictions{Reason: access.ReasonLoginRequired},
		},
		{
			name:   "regular user must pay",
			userID: int64Ptr(3),
			user:   &models.User{ID: 3},
			want:   access.Restrictions{Reason: access.ReasonPaymentRequired, RequiresPayment: true, Price: &paid.Price},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, repo, _ := newService(t)
			repo.On("GetResource", mock.Anything, int64(1)).Return(paid, nil).Once()
			if tt.userID != nil {
				if tt.user != nil {
					repo.On("GetUserByID", mock.Anything, *tt.userID).Return(tt.user, nil).Once()
				} else {
					repo.On("GetUserByID", mock.Anything, *tt.userID).Return(nil, tt.err).Once()
				}
			}

			got, err := s.Restrictions(context.Background(), 1, tt.userID)

			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}

	t.Run("vip downloads paid resource", func(t *testing.T) {
		s, repo, _ := newService(t)
		repo.On("GetResource", mock.Anything, int64(1)).Return(paid, nil).Once()
		repo.On("GetUserByID", mock.Anything, int64(3)).
			Return(&models.User{ID: 3, IsVip: true, VipExpireAt: &future, DailyDownloadCount: 4}, nil).Once()

		got, err := s.Restrictions(context.Background(), 1, int64Ptr(3))

		require.NoError(t, err)
		assert.True(t, got.CanDownload)
		assert.Equal(t, models.DefaultVipDailyLimit-4, *got.RemainingDownloads)
	})

	t.Run("storage failure", func(t *testing.T) {
		s, repo, _ := newService(t)
		repo.On("GetResource", mock.Anything, int64(1)).Return(paid, nil).Once()
		repo.On("GetUserByID", mock.Anything, int64(3)).Return(nil, errors.New("db down")).Once()

		_, err := s.Restrictions(context.Background(), 1, int64Ptr(3))

		require.Error(t, err)
	})
}

func TestService_Download(t *testing.T) {
	s, repo, _ := newService(t)
	repo.On("GetResource", mock.Anything, int64(2)).Return(&models.Resource{ID: 2}, nil).Once()
	repo.On("GetUserByID", mock.Anything, int64(3)).Return(&models.User{ID: 3}, nil).Once()

	got, err := s.Download(context.Background(), 2, int64Ptr(3))

	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, access.MessageDownloadStarted, got.Message)
	assert.Equal(t, 0, *got.RemainingDownloads)
	assert.NotEmpty(t, got.TransactionID)
}

func TestService_Quota(t *testing.T) {
	s, repo, _ := newService(t)
	repo.On("GetUserByID", mock.Anything, int64(3)).Return(&models.User{ID: 3, DailyDownloadCount: 1}, nil).Once()

	q, err := s.Quota(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, models.QuotaInfo{DailyUsed: 1, DailyLimit: 1, CanDownload: false}, q)
}

func TestService_CheckAccess(t *testing.T) {
	past := testNow.Add(-time.Hour)

	t.Run("session vip", func(t *testing.T) {
		s, repo, _ := newService(t)
		repo.On("GetUserByID", mock.Anything, int64(3)).Return(&models.User{ID: 3, IsVip: true}, nil).Once()

		got, err := s.CheckAccess(context.Background(), 7, int64Ptr(3), "")

		require.NoError(t, err)
		assert.Equal(t, AccessInfo{HasAccess: true, IsVip: true}, got)
		repo.AssertNotCalled(t, "HasResourceAccess", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired vip with grant by username", func(t *testing.T) {
		s, repo, _ := newService(t)
		repo.On("GetUserByUsername", mock.Anything, "reader").
			Return(&models.User{ID: 4, IsVip: true, VipExpireAt: &past}, nil).Once()
		repo.On("HasResourceAccess", mock.Anything, int64(4), int64(7)).Return(true, nil).Once()

		got, err := s.CheckAccess(context.Background(), 7, nil, "reader")

		require.NoError(t, err)
		assert.Equal(t, AccessInfo{HasAccess: true, IsVip: false}, got)
	})

	t.Run("unknown username", func(t *testing.T) {
		s, repo, _ := newService(t)
		repo.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, storage.ErrNotFound).Once()

		got, err := s.CheckAccess(context.Background(), 7, nil, "ghost")

		require.NoError(t, err)
		assert.Equal(t, AccessInfo{}, got)
	})

	t.Run("grant lookup fails", func(t *testing.T) {
		s, repo, _ := newService(t)
		repo.On("GetUserByID", mock.Anything, int64(3)).Return(&models.User{ID: 3}, nil).Once()
		repo.On("HasResourceAccess", mock.Anything, int64(3), int64(7)).Return(false, errors.New("db down")).Once()

		_, err := s.CheckAccess(context.Background(), 7, int64Ptr(3), "")

		require.Error(t, err)
	})
}
