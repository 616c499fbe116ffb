package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/skybound/internal/models"
	"github.com/dharmasatrya/skybound/internal/searchlog"
)

type SearchLogHandler struct {
	log searchlog.Log
}

func NewSearchLogHandler(l searchlog.Log) *SearchLogHandler {
	return &SearchLogHandler{log: l}
}

// Recent answers GET /admin/search-logs?limit=n, newest first.
func (h *SearchLogHandler) Recent(c echo.Context) error {
	limit := searchlog.MaxEntries
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "limit must be a positive integer",
				Code:    http.StatusBadRequest,
			})
		}
		limit = n
	}

	entries, err := h.log.Recent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_log_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
	return c.JSON(http.StatusOK, entries)
}
