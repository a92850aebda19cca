package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const maxSourceBytes = 10 << 20

var cacheBustParams = []string{"t", "_", "v", "cb", "ts", "cache", "cachebust", "timestamp"}

var ErrInvalidOutput = errors.New("provider returned an invalid image reference")

// StripCacheBust removes cache-busting query parameters and leaves the rest intact.
func StripCacheBust(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.RawQuery == "" {
		return strings.TrimSpace(raw)
	}
	q := u.Query()
	for _, p := range cacheBustParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// AddCacheBust sets a fresh t= parameter on http(s) URLs. Data URIs pass through.
func AddCacheBust(raw string, now time.Time) string {
	if strings.HasPrefix(raw, "data:") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

// ValidImageRef accepts absolute http(s) URLs and base64 image data URIs.
func ValidImageRef(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "data:") {
		_, _, err := DecodeDataURI(s)
		return err == nil
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func DataURI(mime string, data []byte) string {
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI parses data:image/<x>;base64,<payload>.
func DecodeDataURI(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errors.New("not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data uri without payload")
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if !strings.HasPrefix(mime, "image/") || enc != "base64" {
		return "", nil, fmt.Errorf("unsupported data uri %q", meta)
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	if len(b) == 0 {
		return "", nil, errors.New("empty data uri")
	}
	return mime, b, nil
}

// Source is a fetched portrait.
type Source struct {
	URL      string
	Bytes    []byte
	MimeType string
}

func (s *Source) DataURI() string {
	return DataURI(s.MimeType, s.Bytes)
}

func fetchSource(ctx context.Context, client *http.Client, rawURL string) (*Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source image status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, errors.New("source image is empty")
	}
	if len(b) > maxSourceBytes {
		return nil, errors.New("source image too large")
	}
	mime := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(b)
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("source is not an image (%s)", mime)
	}
	return &Source{URL: rawURL, Bytes: b, MimeType: mime}, nil
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return clip(s, n) + "..."
}

// clip cuts s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
