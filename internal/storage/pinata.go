package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"unicode/utf8"
)

var ErrNotConfigured = errors.New("storage is not configured")

// Pinner pins a file to IPFS and returns its content hash.
type Pinner interface {
	Pin(ctx context.Context, data []byte, filename string) (string, error)
}

type PinataPinner struct {
	baseURL        string
	jwt            string
	gatewayPattern string
	httpClient     *http.Client
}

func NewPinataPinner(baseURL, jwt, gatewayPattern string, httpClient *http.Client) *PinataPinner {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if gatewayPattern == "" || !strings.Contains(gatewayPattern, "%s") {
		gatewayPattern = "https://gateway.pinata.cloud/ipfs/%s"
	}
	return &PinataPinner{
		baseURL:        strings.TrimRight(baseURL, "/"),
		jwt:            jwt,
		gatewayPattern: gatewayPattern,
		httpClient:     httpClient,
	}
}

func (p *PinataPinner) Pin(ctx context.Context, data []byte, filename string) (string, error) {
	if p == nil || p.jwt == "" {
		return "", fmt.Errorf("%w: PINATA_JWT is not set", ErrNotConfigured)
	}
	if len(data) == 0 {
		return "", errors.New("nothing to pin")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	meta, _ := json.Marshal(map[string]string{"name": filename})
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.jwt)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	resBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("pinata status %d: %s", resp.StatusCode, truncate(string(resBody), 300))
	}

	var parsed struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.Unmarshal(resBody, &parsed); err != nil {
		return "", err
	}
	if parsed.IpfsHash == "" {
		return "", errors.New("pinata response without IpfsHash")
	}
	return parsed.IpfsHash, nil
}

// GatewayURL templates hash into the configured gateway pattern.
func (p *PinataPinner) GatewayURL(hash string) string {
	return fmt.Sprintf(p.gatewayPattern, hash)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
