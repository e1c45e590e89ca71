package tracker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ldavidflorez/gpt-tools-api/internal/errs"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/tracker"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/middlewarectx"
	"github.com/ldavidflorez/gpt-tools-api/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ReportAll(ctx context.Context, startDate, endDate *time.Time) (*models.Report, error) {
	args := m.Called(ctx, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *ServiceMock) ReportByUser(ctx context.Context, userID int64, startDate, endDate *time.Time) (*models.Report, error) {
	args := m.Called(ctx, userID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *ServiceMock) ReportByService(ctx context.Context, serviceID int64, startDate, endDate *time.Time) (*models.Report, error) {
	args := m.Called(ctx, serviceID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *ServiceMock) ReportByUserService(ctx context.Context, userID, serviceID int64, startDate, endDate *time.Time) (*models.Report, error) {
	args := m.Called(ctx, userID, serviceID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newRouter(h *tracker.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/tracker/historical", h.All)
	r.Get("/tracker/historical/user/{user_id}", h.ByUser)
	r.Get("/tracker/historical/service/{service_id}", h.ByService)
	r.Get("/tracker/historical/{user_id}/{service_id}", h.ByUserService)
	return r
}

func doRequest(t *testing.T, router http.Handler, path string, identity *models.Identity) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if identity != nil {
		ctx := context.WithValue(req.Context(), middlewarectx.IdentityKey, identity)
		req = req.WithContext(ctx)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func adminIdentity() *models.Identity {
	return &models.Identity{UserID: 1, Username: "root", Role: models.RoleAdmin, Subscription: models.SubscriptionPremium}
}

func userIdentity(id int64) *models.Identity {
	return &models.Identity{UserID: id, Username: "alice", Role: models.RoleUser, Subscription: models.SubscriptionStandard}
}

func sampleReport() *models.Report {
	return &models.Report{
		Historical: []*models.UsageItem{
			{
				UsageRecord: models.UsageRecord{ID: 1, UserID: 7, ServiceID: 2, ConsumedTokens: 400},
				Username:    "alice",
				ServiceName: "summarize",
				Price:       8.0,
			},
		},
		Summary: []*models.UserSummary{
			{UserID: 7, Username: "alice", ConsumedTokens: 400, ConsumedBalance: 8.0},
		},
	}
}

func TestAll_AdminSuccess(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("ReportAll", mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).
		Return(sampleReport(), nil)

	router := newRouter(tracker.New(discardLogger(), serviceMock))
	rr := doRequest(t, router, "/tracker/historical", adminIdentity())

	require.Equal(t, http.StatusOK, rr.Code)

	var report models.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	require.Len(t, report.Historical, 1)
	assert.Equal(t, 8.0, report.Historical[0].Price)
	assert.Equal(t, int64(400), report.Summary[0].ConsumedTokens)
}

func TestAll_ForbiddenForUser(t *testing.T) {
	serviceMock := new(ServiceMock)

	router := newRouter(tracker.New(discardLogger(), serviceMock))
	rr := doRequest(t, router, "/tracker/historical", userIdentity(7))

	require.Equal(t, http.StatusForbidden, rr.Code)
	serviceMock.AssertNotCalled(t, "ReportAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestAll_DateFilterParsed(t *testing.T) {
	serviceMock := new(ServiceMock)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	serviceMock.On("ReportAll", mock.Anything, &start, &end).Return(sampleReport(), nil)

	router := newRouter(tracker.New(discardLogger(), serviceMock))
	rr := doRequest(t, router, "/tracker/historical?start_date=2024-03-01&end_date=2024-03-31", adminIdentity())

	require.Equal(t, http.StatusOK, rr.Code)
	serviceMock.AssertExpectations(t)
}

func TestAll_InvalidDate(t *testing.T) {
	serviceMock := new(ServiceMock)

	router := newRouter(tracker.New(discardLogger(), serviceMock))
	rr := doRequest(t, router, "/tracker/historical?start_date=03-01-2024", adminIdentity())

	require.Equal(t, http.StatusBadRequest, rr.Code)
	serviceMock.AssertNotCalled(t, "ReportAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestByUser_SelfAllowed(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("ReportByUser", mock.Anything, int64(7), (*time.Time)(nil), (*time.Time)(nil)).
		Return(sampleReport(), nil)

	router := newRouter(tracker.New(discardLogger(), serviceMock))
	rr := doRequest(t, router, "/tracker/historical/user/7", userIdentity(7))

	require.Equal(t, http.StatusOK, rr.Code)
	serviceMock.AssertExpectations(t)
}

func TestByUser_ForeignForbidden(t *testing.T) {
	serviceMock := new(ServiceMock)

	router := newRouter(tracker.New(discardLogger(), serviceMock))
	rr := doRequest(t, router, "/tracker/historical/user/9", userIdentity(7))

	require.Equal(t, http.StatusForbidden, rr.Code)
	serviceMock.AssertNotCalled(t, "ReportByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestByUser_NotFound(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("ReportByUser", mock.Anything, int64(9), (*time.Time)(nil), (*time.Time)(nil)).
		Return(nil, errs.ErrNotFound)

	router := newRouter(tracker.New(discardLogger(), serviceMock))
	rr := doRequest(t, router, "/tracker/historical/user/9", adminIdentity())

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestByService_AdminOnly(t *testing.T) {
	serviceMock := new(ServiceMock)

	router := newRouter(tracker.New(discardLogger(), serviceMock))
	rr := doRequest(t, router, "/tracker/historical/service/2", userIdentity(7))

	require.Equal(t, http.StatusForbidden, rr.Code)
	serviceMock.AssertNotCalled(t, "ReportByService", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestByUserService_SelfAllowed(t *testing.T) {
	serviceMock := new(ServiceMock)
	serviceMock.On("ReportByUserService", mock.Anything, int64(7), int64(2), (*time.Time)(nil), (*time.Time)(nil)).
		Return(sampleReport(), nil)

	router := newRouter(tracker.New(discardLogger(), serviceMock))
	rr := doRequest(t, router, "/tracker/historical/7/2", userIdentity(7))

	require.Equal(t, http.StatusOK, rr.Code)
	serviceMock.AssertExpectations(t)
}
