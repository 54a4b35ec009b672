package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ASAPRATAJ/OrderAutomation/internal/models"
	"github.com/ASAPRATAJ/OrderAutomation/internal/syncer"
)

// setGinTestMode ensures Gin does not write noisy logs during tests
func setGinTestMode() { gin.SetMode(gin.TestMode) }

type noopWatermark struct{}

func (noopWatermark) LatestOrderID(context.Context) (int64, error) { return 0, models.ErrNotFound }

type noopAssembler struct{}

func (noopAssembler) Assemble(_ context.Context, id int64) (models.SinkRow, error) {
	return models.SinkRow{OrderID: id}, nil
}

type noopSink struct{}

func (noopSink) ExistingOrderIDs(context.Context) (map[int64]struct{}, error) { return nil, nil }
func (noopSink) HasOrder(context.Context, int64) (bool, error)                { return false, nil }
func (noopSink) Append(context.Context, models.SinkRow) (bool, error)         { return false, nil }
func (noopSink) Resort(context.Context) error                                 { return nil }

func TestHealth_NoDatabase(t *testing.T) {
	setGinTestMode()
	handler := NewHandler(nil, nil)

	r := gin.New()
	r.GET("/health", handler.Health)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without database, got %d", w.Code)
	}
}

func TestTriggerSync_ReturnsStats(t *testing.T) {
	setGinTestMode()
	s := syncer.New(noopWatermark{}, noopAssembler{}, noopSink{}, nil, 0)
	handler := NewHandler(nil, s)

	r := gin.New()
	r.POST("/sync", handler.TriggerSync)

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	var stats syncer.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.Appended != 0 || stats.Missing != 0 {
		t.Fatalf("expected empty stats for empty source, got %+v", stats)
	}
}
