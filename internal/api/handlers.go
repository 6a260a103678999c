package api

import (
	"net/http"
	"strconv"
	"time"

	"codeberg.org/mutker/fanmon/internal/errors"
	"codeberg.org/mutker/fanmon/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultFaultLimit = 50
	maxFaultLimit     = 1000
	requestIDKey      = "request_id"
)

type response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

type handlers struct {
	inventory InventoryReader
	faults    FaultLister
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{
		Code:      "ok",
		Message:   "OK",
		RequestID: c.GetString(requestIDKey),
		Data:      data,
	})
}

func abort(c *gin.Context, status int, code errors.ErrorCode, msg string) {
	c.AbortWithStatusJSON(status, response{
		Code:      string(code),
		Message:   msg,
		RequestID: c.GetString(requestIDKey),
	})
}

func (h *handlers) health(c *gin.Context) {
	ok(c, gin.H{"status": "up"})
}

func (h *handlers) listInventory(c *gin.Context) {
	ok(c, h.inventory.Snapshot())
}

func (h *handlers) getInventory(c *gin.Context) {
	path := c.Param("path")
	item, found := h.inventory.Get(path)
	if !found {
		abort(c, http.StatusNotFound, ErrNotFound, "no inventory object at "+path)
		return
	}
	ok(c, item)
}

func (h *handlers) listFaults(c *gin.Context) {
	limit := defaultFaultLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxFaultLimit {
			abort(c, http.StatusBadRequest, ErrInvalidQuery, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	faults, err := h.faults.List(c.Request.Context(), limit)
	if err != nil {
		logger.Component("api").Error().Err(err).Msg("Failed to list faults")
		abort(c, http.StatusInternalServerError, errors.ErrInternal, errors.GetErrorMessage(errors.ErrInternal))
		return
	}
	ok(c, faults)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func requestLogging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("HTTP request")
	}
}
