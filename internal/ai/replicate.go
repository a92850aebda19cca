package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ReplicateClient runs model predictions and waits for their output.
type ReplicateClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	pollEvery  time.Duration
}

func NewReplicateClient(baseURL, token string, httpClient *http.Client) *ReplicateClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ReplicateClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		pollEvery:  1500 * time.Millisecond,
	}
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  interface{}     `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// Predict posts to /v1/models/{model}/predictions and returns the first output URL.
func (c *ReplicateClient) Predict(ctx context.Context, model string, input map[string]interface{}) (string, error) {
	if c == nil || c.token == "" {
		return "", errors.New("REPLICATE_API_TOKEN is not set")
	}
	payload, _ := json.Marshal(map[string]interface{}{"input": input})
	endpoint := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait=55")

	var p prediction
	if err := c.do(req, &p); err != nil {
		return "", err
	}
	for !terminal(p.Status) {
		if p.URLs.Get == "" {
			return "", fmt.Errorf("prediction %s pending without poll url", p.ID)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollEvery):
		}
		poll, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URLs.Get, nil)
		if err != nil {
			return "", err
		}
		if err := c.do(poll, &p); err != nil {
			return "", err
		}
	}
	if p.Status != "succeeded" {
		return "", fmt.Errorf("prediction %s %s: %v", p.ID, p.Status, p.Error)
	}
	return firstOutput(p.Output)
}

func (c *ReplicateClient) do(req *http.Request, out *prediction) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("replicate status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}
	return json.Unmarshal(body, out)
}

func terminal(status string) bool {
	switch status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

// firstOutput accepts either a single string or a list of strings.
func firstOutput(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: empty output", ErrInvalidOutput)
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], nil
	}
	return "", fmt.Errorf("%w: unexpected output %s", ErrInvalidOutput, truncate(string(raw), 80))
}

const negativePrompt = "text, watermark, logo, extra people, deformed face, blurry, lowres, cartoon"

// InstantIDProvider preserves facial identity.
type InstantIDProvider struct {
	client          *ReplicateClient
	model           string
	adapterScale    float64
	controlnetScale float64
	guidance        float64
}

func NewInstantIDProvider(client *ReplicateClient, model string, adapterScale, controlnetScale, guidance float64) *InstantIDProvider {
	return &InstantIDProvider{client: client, model: model, adapterScale: adapterScale, controlnetScale: controlnetScale, guidance: guidance}
}

func (p *InstantIDProvider) Name() string      { return "instant_id" }
func (p *InstantIDProvider) NeedsSource() bool { return true }

func (p *InstantIDProvider) Attempt(ctx context.Context, in Input) (string, error) {
	if in.Source == nil {
		return "", errors.New("source image is required")
	}
	return p.client.Predict(ctx, p.model, map[string]interface{}{
		"image":                         in.Source.DataURI(),
		"prompt":                        in.Prompt,
		"negative_prompt":               negativePrompt,
		"ip_adapter_scale":              p.adapterScale,
		"controlnet_conditioning_scale": p.controlnetScale,
		"guidance_scale":                p.guidance,
		"num_inference_steps":           30,
		"output_format":                 "png",
	})
}

// Img2ImgProvider is a general-purpose image-to-image model.
type Img2ImgProvider struct {
	client   *ReplicateClient
	model    string
	strength float64
}

func NewImg2ImgProvider(client *ReplicateClient, model string, strength float64) *Img2ImgProvider {
	return &Img2ImgProvider{client: client, model: model, strength: strength}
}

func (p *Img2ImgProvider) Name() string      { return "img2img" }
func (p *Img2ImgProvider) NeedsSource() bool { return true }

func (p *Img2ImgProvider) Attempt(ctx context.Context, in Input) (string, error) {
	if in.Source == nil {
		return "", errors.New("source image is required")
	}
	return p.client.Predict(ctx, p.model, map[string]interface{}{
		"image":           in.Source.DataURI(),
		"prompt":          in.Prompt,
		"negative_prompt": negativePrompt,
		"prompt_strength": p.strength,
		"num_outputs":     1,
	})
}
