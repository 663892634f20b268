package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// HTTPStrategy posts the file as multipart form data to a file-sharing
// endpoint and reads the link from the response.
type HTTPStrategy struct {
	Endpoint string
	Field    string
	Client   *http.Client
}

// NewHTTPStrategy returns a strategy for endpoint; field defaults to "file".
func NewHTTPStrategy(endpoint, field string) *HTTPStrategy {
	if field == "" {
		field = "file"
	}
	return &HTTPStrategy{Endpoint: endpoint, Field: field, Client: http.DefaultClient}
}

// Name identifies the endpoint in metrics, logs and breaker keys. Query,
// fragment and userinfo are left out; they may carry tokens.
func (h *HTTPStrategy) Name() string {
	u, err := url.Parse(h.Endpoint)
	if err != nil || u.Host == "" {
		return "http:invalid-endpoint"
	}
	return u.Scheme + "://" + u.Host + u.Path
}

func (h *HTTPStrategy) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(h.Field, filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := h.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(b)), 200), Endpoint: h.Name()}
	}
	link := parseLink(b)
	if link == "" {
		return "", fmt.Errorf("no link in response from %s", h.Name())
	}
	return link, nil
}

// parseLink extracts the download link from a JSON body (data.url, url or
// link) or a plain-text body that is itself a URL.
func parseLink(b []byte) string {
	var payload struct {
		URL  string `json:"url"`
		Link string `json:"link"`
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &payload); err == nil {
		for _, v := range []string{payload.Data.URL, payload.URL, payload.Link} {
			if v != "" {
				return v
			}
		}
		return ""
	}
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if i := strings.IndexAny(s, " \r\n\t"); i >= 0 {
			s = s[:i]
		}
		return s
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
