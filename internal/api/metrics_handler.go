package api

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"

	"example.com/backstage/services/ingest/internal/metrics"
	"example.com/backstage/services/ingest/internal/service"
)

// MetricsHandler exposes the in-process metrics
type MetricsHandler struct {
	metrics *metrics.Collector
	records *service.RecordService
}

// NewMetricsHandler creates a metrics handler
func NewMetricsHandler(collector *metrics.Collector, records *service.RecordService) *MetricsHandler {
	return &MetricsHandler{
		metrics: collector,
		records: records,
	}
}

// HandleGetMetrics returns all metrics
func (h *MetricsHandler) HandleGetMetrics(c *gin.Context) {
	h.metrics.SetGauge("goroutines", int64(runtime.NumGoroutine()))

	stats := h.records.Stats()
	h.metrics.SetGauge("records_total", int64(stats.Total))
	h.metrics.SetGauge("records_processed", int64(stats.Processed))
	h.metrics.SetGauge("records_unprocessed", int64(stats.Unprocessed))

	c.JSON(http.StatusOK, h.metrics.GetAllMetrics())
}
