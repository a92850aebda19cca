package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tabledadrian/adrian-backend/internal/service"
)

type NFTHandler struct {
	responder
	svc service.NFTService
}

func NewNFTHandler(svc service.NFTService, dev bool) *NFTHandler {
	return &NFTHandler{responder: responder{dev: dev}, svc: svc}
}

type generateRequest struct {
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username"`
	FID           uint64 `json:"fid"`
	PortraitURL   string `json:"portraitUrl"`
}

func (h *NFTHandler) Generate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}
	res, err := h.svc.Generate(c.Request().Context(), service.GenerateInput{
		WalletAddress: req.WalletAddress,
		Username:      req.Username,
		FID:           req.FID,
		PortraitURL:   req.PortraitURL,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, res)
}
