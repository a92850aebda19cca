package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tabledadrian/adrian-backend/internal/service"
)

type MintHandler struct {
	responder
	svc service.MintService
}

func NewMintHandler(svc service.MintService, dev bool) *MintHandler {
	return &MintHandler{responder: responder{dev: dev}, svc: svc}
}

type prepareRequest struct {
	WalletAddress string `json:"walletAddress"`
	ImageURL      string `json:"imageUrl"`
}

func (h *MintHandler) Prepare(c echo.Context) error {
	var req prepareRequest
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}
	tx, err := h.svc.Prepare(c.Request().Context(), req.WalletAddress, req.ImageURL)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, tx)
}

type recordRequest struct {
	WalletAddress      string     `json:"walletAddress"`
	Username           string     `json:"username"`
	NftImageURL        string     `json:"nftImageUrl"`
	PfpURL             string     `json:"pfpUrl"`
	CastText           string     `json:"castText"`
	CastHash           string     `json:"castHash"`
	CastTimestamp      *time.Time `json:"castTimestamp"`
	TxHash             string     `json:"txHash"`
	TokenBalanceAtMint string     `json:"tokenBalanceAtMint"`
}

// Record answers 202 once the submission is valid. The write itself runs
// after the response and cannot change it.
func (h *MintHandler) Record(c echo.Context) error {
	var req recordRequest
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}
	d, err := h.svc.Validate(service.MintDetails{
		WalletAddress:      req.WalletAddress,
		Username:           req.Username,
		NftImageURL:        req.NftImageURL,
		PfpURL:             req.PfpURL,
		CastText:           req.CastText,
		CastHash:           req.CastHash,
		CastTimestamp:      req.CastTimestamp,
		TxHash:             req.TxHash,
		TokenBalanceAtMint: req.TokenBalanceAtMint,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusAccepted, h.svc.Record(c.Request().Context(), d))
}
