package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/skybound/internal/models"
	"github.com/dharmasatrya/skybound/internal/search"
	"github.com/dharmasatrya/skybound/pkg/currency"
)

type SearchHandler struct {
	service  *search.Service
	currency string
}

// NewSearchHandler formats prices in settlementCurrency when an offer does
// not name its own.
func NewSearchHandler(svc *search.Service, settlementCurrency string) *SearchHandler {
	return &SearchHandler{
		service:  svc,
		currency: settlementCurrency,
	}
}

func (h *SearchHandler) Search(c echo.Context) error {
	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	result, err := h.service.Search(c.Request().Context(), req)
	if err != nil {
		var validationErr models.ValidationError
		if errors.As(err, &validationErr) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to search flights: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	if result.Request.TripType == models.RoundTrip {
		return c.JSON(http.StatusOK, models.RoundTripResponse{
			SearchCriteria: result.Request,
			Metadata:       result.Metadata,
			Airlines:       result.Airlines,
			OutboundGroups: h.views(result.Groups),
			ReturnGroups:   h.views(result.ReturnGroups),
		})
	}

	return c.JSON(http.StatusOK, models.SearchResponse{
		SearchCriteria: result.Request,
		Metadata:       result.Metadata,
		Airlines:       result.Airlines,
		Groups:         h.views(result.Groups),
	})
}

func (h *SearchHandler) views(groups []models.OfferGroup) []models.GroupView {
	views := make([]models.GroupView, 0, len(groups))
	for _, g := range groups {
		code := g.Best().Currency
		if code == "" {
			code = h.currency
		}
		views = append(views, models.GroupView{
			OfferGroup:         g,
			BestPrice:          g.BestPrice(),
			BestPriceFormatted: currency.Format(g.BestPrice(), code),
		})
	}
	return views
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
