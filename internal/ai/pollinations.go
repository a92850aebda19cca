package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// PollinationsProvider needs no credential: the image is addressed by its prompt.
type PollinationsProvider struct {
	baseURL    string
	httpClient *http.Client
}

func NewPollinationsProvider(baseURL string, httpClient *http.Client) *PollinationsProvider {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &PollinationsProvider{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (p *PollinationsProvider) Name() string      { return "pollinations" }
func (p *PollinationsProvider) NeedsSource() bool { return false }

// Attempt renders the image once so the returned URL is warm in the provider cache.
func (p *PollinationsProvider) Attempt(ctx context.Context, in Input) (string, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(in.Username + "|" + in.Prompt))
	q := url.Values{}
	q.Set("width", "1024")
	q.Set("height", "1024")
	q.Set("nologo", "true")
	q.Set("seed", fmt.Sprint(h.Sum32()))
	imageURL := fmt.Sprintf("%s/prompt/%s?%s", p.baseURL, url.PathEscape(in.Prompt), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxSourceBytes))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pollinations status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%w: content type %q", ErrInvalidOutput, ct)
	}
	return imageURL, nil
}
