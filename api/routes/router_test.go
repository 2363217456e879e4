package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pharmwatch/pharmwatch-backend/internal/query"
	"github.com/pharmwatch/pharmwatch-backend/pkg/config"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db/models"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
	"github.com/pharmwatch/pharmwatch-backend/pkg/migrate"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, migrate.Up(context.Background(), sqlDB))

	name := "משחת שיניים"
	now := time.Date(2025, 8, 28, 7, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Create(&models.Store{StoreID: "072", LastSeenAt: now}).Error)
	require.NoError(t, conn.Create(&models.Product{Barcode: "7290000000001", Name: &name}).Error)
	require.NoError(t, conn.Create(&models.CurrentPrice{
		StoreID: "072", Barcode: "7290000000001", PriceMinor: 1290, LastSeenAt: now,
	}).Error)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client := db.FromConn(conn)
	cfg := &config.Config{}
	cfg.App.Env = "dev"

	return NewRouter(cfg, logg, client, query.NewService(client, logg), prometheus.NewRegistry())
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	h := setupRouter(t)

	live := doGet(t, h, "/health/live")
	assert.Equal(t, http.StatusOK, live.Code)
	assert.Equal(t, "dev", live.Header().Get("X-PharmWatch-Env"))

	ready := doGet(t, h, "/health/ready")
	assert.Equal(t, http.StatusOK, ready.Code)
}

func TestSearchEndpoint(t *testing.T) {
	h := setupRouter(t)

	rec := doGet(t, h, "/api/v1/search?q=%D7%9E%D7%A9%D7%97%D7%AA")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []query.SearchHit `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "7290000000001", body.Data[0].Barcode)
	assert.Equal(t, int64(1290), body.Data[0].PriceMinor)
}

func TestSearchWithoutQueryListsCatalog(t *testing.T) {
	h := setupRouter(t)

	rec := doGet(t, h, "/api/v1/search")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []query.SearchHit `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
}

func TestItemEndpoint(t *testing.T) {
	h := setupRouter(t)

	rec := doGet(t, h, "/api/v1/items/7290000000001")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data query.Item `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Prices, 1)
	assert.Equal(t, "072", body.Data.Prices[0].StoreID)
}

func TestItemNotFound(t *testing.T) {
	h := setupRouter(t)

	rec := doGet(t, h, "/api/v1/items/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryRejectsBadDays(t *testing.T) {
	h := setupRouter(t)

	rec := doGet(t, h, "/api/v1/items/7290000000001/history?days=soon")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := setupRouter(t)

	rec := doGet(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
