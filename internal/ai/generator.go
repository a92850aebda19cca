package ai

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tabledadrian/adrian-backend/internal/genctx"
)

// ImageStore re-hosts inline images so callers get a short URL.
type ImageStore interface {
	PutImage(ctx context.Context, data []byte, contentType, objectPath string) (string, error)
}

type Request struct {
	PortraitURL string
	Username    string
	Casts       []string
}

type Result struct {
	ImageURL          string `json:"imageUrl"`
	Provider          string `json:"provider"`
	LikenessPreserved bool   `json:"likenessPreserved"`
}

type Generator struct {
	providers  []Provider
	store      ImageStore
	httpClient *http.Client
	timeout    time.Duration
	now        func() time.Time
}

type GeneratorOption func(*Generator)

func WithImageStore(s ImageStore) GeneratorOption {
	return func(g *Generator) { g.store = s }
}

func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator keeps providers in the given order. Providers that edit a
// portrait should come before prompt-only ones.
func NewGenerator(providers []Provider, httpClient *http.Client, timeout time.Duration, opts ...GeneratorOption) *Generator {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	g := &Generator{providers: providers, httpClient: httpClient, timeout: timeout, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate walks the chain one provider at a time and returns the first valid image.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	ctx = genctx.EnsureRID(ctx)
	rid := genctx.RID(ctx)
	start := time.Now()

	var src *Source
	if portrait := strings.TrimSpace(req.PortraitURL); portrait != "" {
		clean := StripCacheBust(portrait)
		fctx, cancel := context.WithTimeout(ctx, g.timeout)
		s, err := fetchSource(fctx, g.httpClient, clean)
		cancel()
		if err != nil {
			log.Printf("[nft] rid=%s stage=source_fail url=%q err=%v", rid, truncate(clean, 120), err)
		} else {
			src = s
			log.Printf("[nft] rid=%s stage=source_ok bytes=%d mime=%s", rid, len(s.Bytes), s.MimeType)
		}
	}

	stylePrompt := BuildStylePrompt(req.Username, req.Casts)
	textPrompt := BuildPromptOnly(req.Username, req.Casts, strings.TrimSpace(req.PortraitURL) != "")

	var attempts []AttemptError
	for _, p := range g.providers {
		in := Input{Prompt: textPrompt, Username: req.Username}
		if p.NeedsSource() {
			if src == nil {
				continue
			}
			in.Prompt = stylePrompt
			in.Source = src
		}

		pctx, cancel := context.WithTimeout(ctx, g.timeout)
		pstart := time.Now()
		log.Printf("[nft] rid=%s stage=provider_start provider=%s", rid, p.Name())
		out, err := p.Attempt(pctx, in)
		cancel()
		if err == nil && !ValidImageRef(out) {
			err = fmt.Errorf("%w: %q", ErrInvalidOutput, truncate(out, 80))
		}
		if err != nil {
			kind := classify(err)
			if kind == FailureGeneric && ctx.Err() == nil && pctx.Err() == context.DeadlineExceeded {
				kind = FailureTimeout
			}
			attempts = append(attempts, AttemptError{Provider: p.Name(), Kind: kind, Err: err})
			log.Printf("[nft] rid=%s stage=provider_fail provider=%s kind=%s ms=%d err=%v", rid, p.Name(), kind, time.Since(pstart).Milliseconds(), err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		url := g.finalize(ctx, out)
		log.Printf("[nft] rid=%s stage=provider_ok provider=%s ms=%d totalMs=%d", rid, p.Name(), time.Since(pstart).Milliseconds(), time.Since(start).Milliseconds())
		return &Result{ImageURL: url, Provider: p.Name(), LikenessPreserved: p.NeedsSource()}, nil
	}

	gerr := &GenerationError{Kind: overallKind(attempts), Attempts: attempts}
	log.Printf("[nft] rid=%s stage=exhausted kind=%s attempts=%d totalMs=%d", rid, gerr.Kind, len(attempts), time.Since(start).Milliseconds())
	return nil, gerr
}

// finalize re-hosts data URIs when a store is configured and cache-busts URLs.
func (g *Generator) finalize(ctx context.Context, out string) string {
	out = strings.TrimSpace(out)
	if !strings.HasPrefix(out, "data:") {
		return AddCacheBust(out, g.now())
	}
	if g.store == nil {
		return out
	}
	mime, data, err := DecodeDataURI(out)
	if err != nil {
		return out
	}
	ext := strings.TrimPrefix(mime, "image/")
	path := fmt.Sprintf("nft/%s/%s.%s", g.now().UTC().Format("2006-01-02"), uuid.NewString(), ext)
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 20*time.Second)
	defer cancel()
	url, err := g.store.PutImage(sctx, data, mime, path)
	if err != nil {
		log.Printf("[nft] rid=%s stage=store_fail path=%s err=%v", genctx.RID(ctx), path, err)
		return out
	}
	return url
}
