package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tabledadrian/adrian-backend/internal/service"
)

type EligibilityHandler struct {
	responder
	svc service.EligibilityService
}

func NewEligibilityHandler(svc service.EligibilityService, dev bool) *EligibilityHandler {
	return &EligibilityHandler{responder: responder{dev: dev}, svc: svc}
}

type walletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

func (h *EligibilityHandler) Check(c echo.Context) error {
	var req walletRequest
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}
	res, err := h.svc.Check(c.Request().Context(), req.WalletAddress)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, res)
}

func (h *EligibilityHandler) Value(c echo.Context) error {
	var req walletRequest
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}
	res, err := h.svc.CheckValue(c.Request().Context(), req.WalletAddress)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, res)
}
