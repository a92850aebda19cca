package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tabledadrian/adrian-backend/internal/model"
	"github.com/tabledadrian/adrian-backend/internal/service"
)

type UserHandler struct {
	responder
	svc service.UserService
}

func NewUserHandler(svc service.UserService, dev bool) *UserHandler {
	return &UserHandler{responder: responder{dev: dev}, svc: svc}
}

type UserResponse struct {
	ID                uint64  `json:"id"`
	WalletAddress     string  `json:"walletAddress"`
	FarcasterUsername *string `json:"farcasterUsername,omitempty"`
	PfpURL            *string `json:"pfpUrl,omitempty"`
	TokenBalance      string  `json:"tokenBalance"`
	AssessmentCount   int     `json:"assessmentCount"`
	CreatedAt         string  `json:"createdAt"`
	LastAccessedAt    string  `json:"lastAccessedAt"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		WalletAddress:     u.WalletAddress,
		FarcasterUsername: u.FarcasterUsername,
		PfpURL:            u.PfpURL,
		TokenBalance:      u.TokenBalance,
		AssessmentCount:   u.AssessmentCount,
		CreatedAt:         u.CreatedAt.Format(time.RFC3339),
		LastAccessedAt:    u.LastAccessedAt.Format(time.RFC3339),
	}
}

type upsertUserRequest struct {
	WalletAddress     string  `json:"walletAddress"`
	FarcasterUsername *string `json:"farcasterUsername"`
	PfpURL            *string `json:"pfpUrl"`
}

func (h *UserHandler) Upsert(c echo.Context) error {
	var req upsertUserRequest
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}
	u, err := h.svc.Upsert(c.Request().Context(), service.UpsertUserInput{
		WalletAddress:     req.WalletAddress,
		FarcasterUsername: req.FarcasterUsername,
		PfpURL:            req.PfpURL,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, toUserResponse(u))
}

func (h *UserHandler) Get(c echo.Context) error {
	u, err := h.svc.Get(c.Request().Context(), c.Param("wallet"))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, toUserResponse(u))
}
