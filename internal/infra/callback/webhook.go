// Package callback delivers session outcomes to the submitter's webhook.
package callback

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/inancsarica/boom-guru/internal/domain/analysis"
)

// Header names fixed by the external API contract.
const (
	apiKeyHeader   = "Boom724ExternalApiKey"
	languageHeader = "Language"
	languageValue  = "en"
)

// Webhook posts callback payloads. One attempt per session, never retried;
// the caller logs the outcome.
type Webhook struct {
	client *http.Client
	apiKey string
}

// New builds a webhook sender. insecure disables TLS verification for
// customer endpoints with self-signed certificates.
func New(apiKey string, timeout time.Duration, insecure bool) *Webhook {
	transport := http.DefaultTransport
	if insecure {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Webhook{
		client: &http.Client{Timeout: timeout, Transport: transport},
		apiKey: apiKey,
	}
}

// Send posts the payload as JSON. A transport failure or non-2xx response is
// returned as an error; delivery is still considered attempted.
func (w *Webhook) Send(ctx context.Context, webhookURL string, p *analysis.CallbackPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "callback: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "callback: build request")
	}
	req.Header.Set(apiKeyHeader, w.apiKey)
	req.Header.Set(languageHeader, languageValue)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "callback: post")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return eris.Errorf("callback: status %d: %s", resp.StatusCode, string(text))
	}
	return nil
}
