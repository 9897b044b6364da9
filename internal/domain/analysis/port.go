package analysis

import "context"

// Repository port for the audit record. One best-effort insert per session;
// Latest backs the operator listing endpoint.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Latest(ctx context.Context, limit int) ([]*Record, error)
}

// Notifier port for webhook delivery. Implementations attempt delivery
// exactly once and report non-2xx outcomes as errors; they never retry.
type Notifier interface {
	Send(ctx context.Context, webhookURL string, p *CallbackPayload) error
}

// CodeResolver maps fault codes to human readable descriptions. Must be
// total: unknown or malformed codes yield the not-found sentinel, never an
// error.
type CodeResolver interface {
	Describe(codeType, code string) string
}

// ImageArchive stores the fetched image bytes for later audit. Optional and
// best-effort; failures never affect the session outcome.
type ImageArchive interface {
	Store(ctx context.Context, sessionID string, data []byte, contentType string) (string, error)
}
