package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"

	"example.com/backstage/services/ingest/internal/service"
	"example.com/backstage/services/ingest/internal/store"
)

// DataHandler serves the record endpoints
type DataHandler struct {
	records *service.RecordService
}

// NewDataHandler creates a data handler
func NewDataHandler(records *service.RecordService) *DataHandler {
	return &DataHandler{records: records}
}

// RegisterRoutes mounts the record endpoints on rg
func (h *DataHandler) RegisterRoutes(rg *gin.RouterGroup) {
	data := rg.Group("/data")
	{
		data.POST("", h.Ingest)
		data.GET("", h.List)
		data.GET("/:id", h.Get)
		data.POST("/:id/process", h.Process)
		data.DELETE("/:id", h.Delete)
	}
}

type ingestRequest struct {
	Data     any `json:"data"`
	Metadata any `json:"metadata"`
}

type listQuery struct {
	Limit  int `form:"limit,default=100" binding:"min=1,max=1000"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// Ingest handles POST /data
func (h *DataHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bodyError(err))
		return
	}

	record, err := h.records.Ingest(requestContext(c), req.Data, req.Metadata)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    record,
	})
}

// Process handles POST /data/:id/process
func (h *DataHandler) Process(c *gin.Context) {
	id := c.Param("id")

	record, err := h.records.Process(requestContext(c), id)
	if err != nil {
		_ = c.Error(recordError(err, id))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// Get handles GET /data/:id
func (h *DataHandler) Get(c *gin.Context) {
	id := c.Param("id")

	record, err := h.records.Get(requestContext(c), id)
	if err != nil {
		_ = c.Error(recordError(err, id))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// List handles GET /data
func (h *DataHandler) List(c *gin.Context) {
	dropEmptyQueryParams(c, "limit", "offset")

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(queryError(err))
		return
	}

	records, stats, err := h.records.List(requestContext(c), q.Limit, q.Offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"pagination": gin.H{
			"limit":  q.Limit,
			"offset": q.Offset,
			"total":  stats.Total,
		},
		"stats": stats,
	})
}

// Delete handles DELETE /data/:id
func (h *DataHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.records.Delete(requestContext(c), id); err != nil {
		_ = c.Error(recordError(err, id))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Record with id " + id + " deleted successfully",
	})
}

// recordError gives not-found errors the id of the missing record
func recordError(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return NewNotFoundError(id)
	}
	return err
}

// queryError keeps validator failures for the error handler and reports
// conversion failures such as limit=abc as a 400
func queryError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return err
	}
	return NewValidationError("Invalid query parameters", err.Error())
}

// dropEmptyQueryParams removes keys given without a value (?limit=) so
// they fall back to their defaults
func dropEmptyQueryParams(c *gin.Context, keys ...string) {
	query := c.Request.URL.Query()
	changed := false
	for _, key := range keys {
		if vs, ok := query[key]; ok && (len(vs) == 0 || vs[0] == "") {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		c.Request.URL.RawQuery = query.Encode()
	}
}

// requestContext carries the New Relic transaction, when there is one,
// into the service layer
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if txn := nrgin.Transaction(c); txn != nil {
		ctx = newrelic.NewContext(ctx, txn)
	}
	return ctx
}
