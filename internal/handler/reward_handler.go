package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tabledadrian/adrian-backend/internal/model"
	"github.com/tabledadrian/adrian-backend/internal/service"
)

type RewardHandler struct {
	responder
	svc service.RewardService
}

func NewRewardHandler(svc service.RewardService, dev bool) *RewardHandler {
	return &RewardHandler{responder: responder{dev: dev}, svc: svc}
}

type RewardResponse struct {
	SocialRewardClaimed   bool    `json:"socialRewardClaimed"`
	SocialRewardClaimedAt *string `json:"socialRewardClaimedAt,omitempty"`
	HolderBonusClaimed    bool    `json:"holderBonusClaimed"`
	HolderBonusClaimedAt  *string `json:"holderBonusClaimedAt,omitempty"`
	TotalRewardsEarned    int64   `json:"totalRewardsEarned"`
}

func toRewardResponse(r *model.UserReward) RewardResponse {
	return RewardResponse{
		SocialRewardClaimed:   r.SocialRewardClaimed,
		SocialRewardClaimedAt: formatTime(r.SocialRewardClaimedAt),
		HolderBonusClaimed:    r.HolderBonusClaimed,
		HolderBonusClaimedAt:  formatTime(r.HolderBonusClaimedAt),
		TotalRewardsEarned:    r.TotalRewardsEarned,
	}
}

type claimRequest struct {
	WalletAddress string `json:"walletAddress"`
	Type          string `json:"type"`
}

func (h *RewardHandler) Claim(c echo.Context) error {
	var req claimRequest
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}
	r, err := h.svc.Claim(c.Request().Context(), req.WalletAddress, model.RewardKind(req.Type))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, toRewardResponse(r))
}

func (h *RewardHandler) Get(c echo.Context) error {
	r, err := h.svc.Get(c.Request().Context(), c.Param("wallet"))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, toRewardResponse(r))
}
