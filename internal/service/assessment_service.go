package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tabledadrian/adrian-backend/internal/ai"
	"github.com/tabledadrian/adrian-backend/internal/genctx"
	"github.com/tabledadrian/adrian-backend/internal/model"
	"github.com/tabledadrian/adrian-backend/internal/pdf"
	"github.com/tabledadrian/adrian-backend/internal/repository"
)

// PDFLifetime is how long a generated PDF link stays downloadable after the assessment is created.
const PDFLifetime = 24 * time.Hour

const maxAnswerLen = 2000

type PlanWriter interface {
	Write(ctx context.Context, a ai.Answers) ai.Plan
}

// Publisher pins a file and turns its hash into a public URL.
type Publisher interface {
	Pin(ctx context.Context, data []byte, filename string) (string, error)
	GatewayURL(hash string) string
}

type CreateAssessmentInput struct {
	WalletAddress string
	Goal          string
	Challenges    string
	Lifestyle     string
	Dietary       string
	Conditions    *string
}

// AssessmentView carries the derived expiry state. DownloadURL is empty
// whenever the link must not be offered.
type AssessmentView struct {
	Assessment  *model.Assessment
	Expired     bool
	DownloadURL string
}

type AssessmentService interface {
	Create(ctx context.Context, in CreateAssessmentInput) (*AssessmentView, error)
	Get(ctx context.Context, id uint64, wallet string) (*AssessmentView, error)
	GeneratePDF(ctx context.Context, id uint64, wallet string) (*AssessmentView, error)
	MarkDownloaded(ctx context.Context, id uint64, wallet string) (*AssessmentView, error)
}

type assessmentService struct {
	repo      repository.AssessmentRepository
	users     repository.UserRepository
	writer    PlanWriter
	publisher Publisher
	render    func(a model.Assessment, plan ai.Plan, wallet string) ([]byte, error)
	now       func() time.Time
}

func NewAssessmentService(repo repository.AssessmentRepository, users repository.UserRepository, writer PlanWriter, publisher Publisher) AssessmentService {
	return &assessmentService{repo: repo, users: users, writer: writer, publisher: publisher, render: pdf.RenderAssessment, now: time.Now}
}

// IsExpired reports whether expiresAt has passed at now. A missing expiry never expires.
func IsExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return !now.Before(*expiresAt)
}

func (s *assessmentService) Create(ctx context.Context, in CreateAssessmentInput) (*AssessmentView, error) {
	addr, err := normalizeWallet(in.WalletAddress)
	if err != nil {
		return nil, err
	}
	a := &model.Assessment{
		Goal:       strings.TrimSpace(in.Goal),
		Challenges: strings.TrimSpace(in.Challenges),
		Lifestyle:  strings.TrimSpace(in.Lifestyle),
		Dietary:    strings.TrimSpace(in.Dietary),
		Conditions: trimmedOrNil(in.Conditions),
	}
	for _, f := range []struct{ name, value string }{
		{"goal", a.Goal},
		{"challenges", a.Challenges},
		{"lifestyle", a.Lifestyle},
		{"dietary", a.Dietary},
	} {
		if f.value == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
		if len(f.value) > maxAnswerLen {
			return nil, fmt.Errorf("%w: %s is too long", ErrInvalidInput, f.name)
		}
	}
	if len(deref(a.Conditions)) > maxAnswerLen {
		return nil, fmt.Errorf("%w: conditions is too long", ErrInvalidInput)
	}

	u, err := s.users.Upsert(ctx, &model.User{WalletAddress: addr, LastAccessedAt: s.now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	a.UserID = u.ID
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	log.Printf("[assessment] rid=%s stage=created id=%d user=%d", genctx.RID(ctx), a.ID, u.ID)
	return s.view(a), nil
}

func (s *assessmentService) Get(ctx context.Context, id uint64, wallet string) (*AssessmentView, error) {
	a, err := s.owned(ctx, id, wallet)
	if err != nil {
		return nil, err
	}
	return s.view(a), nil
}

func (s *assessmentService) GeneratePDF(ctx context.Context, id uint64, wallet string) (*AssessmentView, error) {
	a, err := s.owned(ctx, id, wallet)
	if err != nil {
		return nil, err
	}
	expiresAt := a.CreatedAt.Add(PDFLifetime)
	if IsExpired(&expiresAt, s.now()) {
		return nil, fmt.Errorf("%w: assessment %d can no longer produce a pdf", ErrExpired, id)
	}
	if a.PDFGenerated && a.PDFURL != nil {
		return s.view(a), nil
	}
	if s.publisher == nil {
		return nil, fmt.Errorf("%w: PINATA_JWT is not set", ErrConfiguration)
	}

	rid := genctx.RID(ctx)
	plan := s.writer.Write(ctx, ai.Answers{
		Goal:       a.Goal,
		Challenges: a.Challenges,
		Lifestyle:  a.Lifestyle,
		Dietary:    a.Dietary,
		Conditions: deref(a.Conditions),
	})
	addr, _ := normalizeWallet(wallet)
	doc, err := s.render(*a, plan, addr)
	if err != nil {
		log.Printf("[assessment] rid=%s stage=render_fail id=%d err=%v", rid, a.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	hash, err := s.publisher.Pin(ctx, doc, fmt.Sprintf("assessment-%d.pdf", a.ID))
	if err != nil {
		log.Printf("[assessment] rid=%s stage=pin_fail id=%d err=%v", rid, a.ID, err)
		return nil, fmt.Errorf("%w: pdf upload failed", ErrUpstream)
	}
	url := s.publisher.GatewayURL(hash)
	if err := s.repo.SavePDF(ctx, a.ID, url, hash, expiresAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	a.PDFGenerated = true
	a.PDFURL = &url
	a.IPFSHash = &hash
	a.PDFExpiresAt = &expiresAt
	log.Printf("[assessment] rid=%s stage=pdf_ok id=%d hash=%s bytes=%d", rid, a.ID, hash, len(doc))
	return s.view(a), nil
}

func (s *assessmentService) MarkDownloaded(ctx context.Context, id uint64, wallet string) (*AssessmentView, error) {
	a, err := s.owned(ctx, id, wallet)
	if err != nil {
		return nil, err
	}
	if !a.PDFGenerated || a.PDFURL == nil {
		return nil, fmt.Errorf("%w: pdf has not been generated", ErrInvalidInput)
	}
	if IsExpired(a.PDFExpiresAt, s.now()) {
		return nil, fmt.Errorf("%w: pdf link expired", ErrExpired)
	}
	at := s.now().UTC()
	if err := s.repo.MarkDownloaded(ctx, a.ID, at); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	a.DownloadedAt = &at
	return s.view(a), nil
}

// owned loads an assessment and hides it from every wallet but its owner.
func (s *assessmentService) owned(ctx context.Context, id uint64, wallet string) (*model.Assessment, error) {
	addr, err := normalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if a == nil {
		return nil, fmt.Errorf("%w: assessment %d", ErrNotFound, id)
	}
	u, err := findUser(ctx, s.users, addr)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: assessment %d", ErrNotFound, id)
		}
		return nil, err
	}
	if u.ID != a.UserID {
		return nil, fmt.Errorf("%w: assessment %d", ErrNotFound, id)
	}
	return a, nil
}

func (s *assessmentService) view(a *model.Assessment) *AssessmentView {
	v := &AssessmentView{Assessment: a, Expired: IsExpired(a.PDFExpiresAt, s.now())}
	if a.PDFGenerated && a.PDFURL != nil && !v.Expired {
		v.DownloadURL = *a.PDFURL
	}
	return v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
