package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeminiImageClient edits an image through the generateContent REST endpoint.
type GeminiImageClient struct {
	apiKey      string
	model       string
	baseURL     string
	httpClient  *http.Client
	contentType string
}

type ImageEditRequest struct {
	Image    []byte
	MimeType string
	Prompt   string
}

type ImageEditResult struct {
	Image     []byte
	MimeType  string
	ElapsedMs int64
}

func NewGeminiImageClient(apiKey, model string, httpClient *http.Client) *GeminiImageClient {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 55 * time.Second,
		}
	}
	if model == "" {
		model = "models/gemini-2.5-flash-image"
	}
	return &GeminiImageClient{
		apiKey:      apiKey,
		model:       model,
		baseURL:     "https://generativelanguage.googleapis.com",
		httpClient:  httpClient,
		contentType: "application/json",
	}
}

type geminiInline struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *geminiInline `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEditBody struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature        float64  `json:"temperature"`
		ResponseModalities []string `json:"responseModalities"`
	} `json:"generationConfig"`
}

type geminiEditResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Edit sends the prompt and the source image in one turn and returns the
// first inline image of the reply.
func (c *GeminiImageClient) Edit(ctx context.Context, req ImageEditRequest) (*ImageEditResult, error) {
	if c.apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	if len(req.Image) == 0 {
		return nil, errors.New("image is required")
	}
	mimeType := strings.TrimSpace(req.MimeType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	var body geminiEditBody
	body.Contents = []geminiContent{{Parts: []geminiPart{
		{Text: req.Prompt},
		{InlineData: &geminiInline{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(req.Image)}},
	}}}
	body.GenerationConfig.Temperature = 0.4
	body.GenerationConfig.ResponseModalities = []string{"TEXT", "IMAGE"}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", c.contentType)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	elapsed := time.Since(start).Milliseconds()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, truncate(string(raw), 500))
	}

	var parsed geminiEditResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: gemini response: %v", ErrInvalidOutput, err)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: gemini blocked the prompt (%s)", ErrInvalidOutput, parsed.PromptFeedback.BlockReason)
	}
	img, mime, ok := firstInlineImage(parsed)
	if !ok {
		return nil, fmt.Errorf("%w: gemini response did not include inlineData image", ErrInvalidOutput)
	}
	return &ImageEditResult{Image: img, MimeType: mime, ElapsedMs: elapsed}, nil
}

func firstInlineImage(r geminiEditResponse) ([]byte, string, bool) {
	for _, cand := range r.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			img, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				continue
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return img, mime, true
		}
	}
	return nil, "", false
}

// GeminiEditProvider adapts GeminiImageClient to the generation chain.
type GeminiEditProvider struct {
	client *GeminiImageClient
}

func NewGeminiEditProvider(client *GeminiImageClient) *GeminiEditProvider {
	return &GeminiEditProvider{client: client}
}

func (p *GeminiEditProvider) Name() string      { return "gemini_edit" }
func (p *GeminiEditProvider) NeedsSource() bool { return true }

func (p *GeminiEditProvider) Attempt(ctx context.Context, in Input) (string, error) {
	if in.Source == nil {
		return "", errors.New("source image is required")
	}
	res, err := p.client.Edit(ctx, ImageEditRequest{Image: in.Source.Bytes, MimeType: in.Source.MimeType, Prompt: in.Prompt})
	if err != nil {
		return "", err
	}
	return DataURI(res.MimeType, res.Image), nil
}
