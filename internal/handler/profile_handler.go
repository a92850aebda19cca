package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tabledadrian/adrian-backend/internal/profile"
	"github.com/tabledadrian/adrian-backend/internal/service"
)

type ProfileHandler struct {
	responder
	svc service.ProfileService
}

func NewProfileHandler(svc service.ProfileService, dev bool) *ProfileHandler {
	return &ProfileHandler{responder: responder{dev: dev}, svc: svc}
}

// Get resolves ?username=, ?address= or ?fid=. ?casts=true adds recent posts.
func (h *ProfileHandler) Get(c echo.Context) error {
	q := profile.Query{
		Username: strings.TrimSpace(c.QueryParam("username")),
		Address:  strings.TrimSpace(c.QueryParam("address")),
	}
	if raw := strings.TrimSpace(c.QueryParam("fid")); raw != "" {
		fid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || fid == 0 {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "fid must be a positive integer"))
		}
		q.FID = fid
	}
	withCasts, _ := strconv.ParseBool(c.QueryParam("casts"))
	v, err := h.svc.Lookup(c.Request().Context(), q, withCasts)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, v)
}
