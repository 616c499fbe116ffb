package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/skybound/internal/models"
	"github.com/dharmasatrya/skybound/internal/rulestore"
)

// RulesHandler is the admin API over the markup rules. Changes apply to the
// next search.
type RulesHandler struct {
	store rulestore.Store
}

func NewRulesHandler(store rulestore.Store) *RulesHandler {
	return &RulesHandler{store: store}
}

func (h *RulesHandler) List(c echo.Context) error {
	rules, err := h.store.Rules(c.Request().Context())
	if err != nil {
		return ruleError(c, err)
	}
	return c.JSON(http.StatusOK, rules)
}

func (h *RulesHandler) Create(c echo.Context) error {
	var rule models.PricingRule
	if err := c.Bind(&rule); err != nil {
		return invalidBody(c, err)
	}

	created, err := h.store.Create(c.Request().Context(), rule)
	if err != nil {
		return ruleError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *RulesHandler) Update(c echo.Context) error {
	var rule models.PricingRule
	if err := c.Bind(&rule); err != nil {
		return invalidBody(c, err)
	}

	updated, err := h.store.Update(c.Request().Context(), c.Param("id"), rule)
	if err != nil {
		return ruleError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *RulesHandler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return ruleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func invalidBody(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: "Failed to parse request body: " + err.Error(),
		Code:    http.StatusBadRequest,
	})
}

func ruleError(c echo.Context, err error) error {
	var validationErr models.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	case errors.Is(err, rulestore.ErrRuleNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
			Code:    http.StatusNotFound,
		})
	case errors.Is(err, rulestore.ErrRuleExists), errors.Is(err, rulestore.ErrConcurrentUpdate):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "rule_store_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
}
