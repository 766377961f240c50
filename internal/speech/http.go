package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTPRecognizer asks a local recognizer service to record and transcribe
// one phrase. The service answers POST /listen with a JSON transcript, or
// 204 when nothing was said.
type HTTPRecognizer struct {
	baseURL  string
	language string
	client   *http.Client
}

// NewHTTPRecognizer creates a recognizer for the service at baseURL.
func NewHTTPRecognizer(baseURL, language string) *HTTPRecognizer {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:    4,
		IdleConnTimeout: time.Minute,
	}
	return &HTTPRecognizer{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		client:   &http.Client{Transport: tr},
	}
}

type listenRequest struct {
	Language  string `json:"language,omitempty"`
	TimeoutMs int64  `json:"timeout_ms,omitempty"`
}

// Recognize implements Recognizer.
func (h *HTTPRecognizer) Recognize(ctx context.Context) (Transcript, error) {
	body := listenRequest{Language: h.language}
	if deadline, ok := ctx.Deadline(); ok {
		body.TimeoutMs = time.Until(deadline).Milliseconds()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Transcript{}, fmt.Errorf("encode listen request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/listen", bytes.NewReader(payload))
	if err != nil {
		return Transcript{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Transcript{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return Transcript{}, ErrNoSpeech
	}

	if resp.StatusCode != http.StatusOK {
		const maxErr = 4096
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErr))
		return Transcript{}, fmt.Errorf("speech %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var out Transcript
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Transcript{}, fmt.Errorf("speech decode: %w", err)
	}
	if out.Language == "" {
		out.Language = h.language
	}
	return out, nil
}
