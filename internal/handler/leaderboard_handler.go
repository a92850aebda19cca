package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tabledadrian/adrian-backend/internal/service"
)

type LeaderboardHandler struct {
	svc service.LeaderboardService
}

func NewLeaderboardHandler(svc service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc}
}

func (h *LeaderboardHandler) Leaderboard(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, degraded := h.svc.Leaderboard(c.Request().Context(), limit)
	markDegraded(c, degraded)
	return ok(c, http.StatusOK, entries)
}

func (h *LeaderboardHandler) Gallery(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	page, degraded := h.svc.Gallery(c.Request().Context(), limit, offset)
	markDegraded(c, degraded)
	return ok(c, http.StatusOK, page)
}

// HeaderDegraded marks a 200 that carries a placeholder instead of real data.
// Caches must not store such responses.
const HeaderDegraded = "X-Degraded"

func markDegraded(c echo.Context, degraded bool) {
	if degraded {
		c.Response().Header().Set(HeaderDegraded, "true")
	}
}
