package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tabledadrian/adrian-backend/internal/ai"
	"github.com/tabledadrian/adrian-backend/internal/genctx"
	"github.com/tabledadrian/adrian-backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, SuccessResponse{Success: true, Data: data})
}

// responder writes service errors as JSON envelopes. Dev mode adds the raw
// error as detail.
type responder struct {
	dev bool
}

func (r responder) fail(c echo.Context, err error) error {
	status, resp := r.classify(err)
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("rid=%s path=%s status=%d err=%v", genctx.RID(c.Request().Context()), c.Path(), status, err)
	}
	return c.JSON(status, resp)
}

func (r responder) classify(err error) (int, ErrorResponse) {
	var (
		status int
		resp   ErrorResponse
		gerr   *ai.GenerationError
	)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status, resp = http.StatusBadRequest, NewErrorResponse("invalid_input", err.Error())
	case errors.Is(err, service.ErrNotFound):
		status, resp = http.StatusNotFound, NewErrorResponse("not_found", err.Error())
	case errors.Is(err, service.ErrNotEligible):
		status, resp = http.StatusForbidden, NewErrorResponse("not_eligible", err.Error())
	case errors.Is(err, service.ErrAlreadyClaimed):
		status, resp = http.StatusConflict, NewErrorResponse("already_claimed", err.Error())
	case errors.Is(err, service.ErrExpired):
		status, resp = http.StatusGone, NewErrorResponse("expired", err.Error())
	case errors.As(err, &gerr):
		status, resp = http.StatusBadGateway, NewErrorResponse("generation_"+string(gerr.Kind), gerr.UserMessage())
	case errors.Is(err, service.ErrUpstream):
		status, resp = http.StatusBadGateway, NewErrorResponse("upstream_error", "an upstream service is unavailable, please try again")
	case errors.Is(err, service.ErrConfiguration):
		status, resp = http.StatusInternalServerError, NewErrorResponse("configuration_error", err.Error())
	case errors.Is(err, service.ErrRender):
		status, resp = http.StatusInternalServerError, NewErrorResponse("render_error", "could not build your document, please try again")
	case errors.Is(err, service.ErrPersistence):
		status, resp = http.StatusInternalServerError, NewErrorResponse("persistence_error", "could not save or load your data")
	default:
		status, resp = http.StatusInternalServerError, NewErrorResponse("internal_error", "something went wrong")
	}
	if r.dev {
		resp.Error.Detail = err.Error()
	}
	return status, resp
}

func badJSON(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid json"))
}
