package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tabledadrian/adrian-backend/internal/service"
)

type AssessmentHandler struct {
	responder
	svc service.AssessmentService
}

func NewAssessmentHandler(svc service.AssessmentService, dev bool) *AssessmentHandler {
	return &AssessmentHandler{responder: responder{dev: dev}, svc: svc}
}

type AssessmentResponse struct {
	ID           uint64  `json:"id"`
	Goal         string  `json:"goal"`
	Challenges   string  `json:"challenges"`
	Lifestyle    string  `json:"lifestyle"`
	Dietary      string  `json:"dietary"`
	Conditions   *string `json:"conditions,omitempty"`
	PDFGenerated bool    `json:"pdfGenerated"`
	PDFURL       *string `json:"pdfUrl,omitempty"`
	IPFSHash     *string `json:"ipfsHash,omitempty"`
	PDFExpiresAt *string `json:"pdfExpiresAt,omitempty"`
	PDFExpired   bool    `json:"pdfExpired"`
	DownloadedAt *string `json:"downloadedAt,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

// toAssessmentResponse exposes the link only while it is downloadable.
func toAssessmentResponse(v *service.AssessmentView) AssessmentResponse {
	a := v.Assessment
	resp := AssessmentResponse{
		ID:           a.ID,
		Goal:         a.Goal,
		Challenges:   a.Challenges,
		Lifestyle:    a.Lifestyle,
		Dietary:      a.Dietary,
		Conditions:   a.Conditions,
		PDFGenerated: a.PDFGenerated,
		IPFSHash:     a.IPFSHash,
		PDFExpiresAt: formatTime(a.PDFExpiresAt),
		PDFExpired:   v.Expired,
		DownloadedAt: formatTime(a.DownloadedAt),
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
	if v.DownloadURL != "" {
		url := v.DownloadURL
		resp.PDFURL = &url
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

type createAssessmentRequest struct {
	WalletAddress string  `json:"walletAddress"`
	Goal          string  `json:"goal"`
	Challenges    string  `json:"challenges"`
	Lifestyle     string  `json:"lifestyle"`
	Dietary       string  `json:"dietary"`
	Conditions    *string `json:"conditions"`
}

func (h *AssessmentHandler) Create(c echo.Context) error {
	var req createAssessmentRequest
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}
	v, err := h.svc.Create(c.Request().Context(), service.CreateAssessmentInput{
		WalletAddress: req.WalletAddress,
		Goal:          req.Goal,
		Challenges:    req.Challenges,
		Lifestyle:     req.Lifestyle,
		Dietary:       req.Dietary,
		Conditions:    req.Conditions,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusCreated, toAssessmentResponse(v))
}

// Get reads the owner wallet from ?walletAddress=.
func (h *AssessmentHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid id"))
	}
	v, err := h.svc.Get(c.Request().Context(), id, c.QueryParam("walletAddress"))
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, toAssessmentResponse(v))
}

func (h *AssessmentHandler) GeneratePDF(c echo.Context) error {
	return h.withOwner(c, h.svc.GeneratePDF)
}

func (h *AssessmentHandler) Download(c echo.Context) error {
	return h.withOwner(c, h.svc.MarkDownloaded)
}

func (h *AssessmentHandler) withOwner(c echo.Context, fn func(ctx context.Context, id uint64, wallet string) (*service.AssessmentView, error)) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", "invalid id"))
	}
	var req walletRequest
	if err := c.Bind(&req); err != nil {
		return badJSON(c)
	}
	v, err := fn(c.Request().Context(), id, req.WalletAddress)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, http.StatusOK, toAssessmentResponse(v))
}
