package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/inancsarica/boom-guru/internal/application/analysis"
	"github.com/inancsarica/boom-guru/internal/domain/ai"
	domain "github.com/inancsarica/boom-guru/internal/domain/analysis"
	"github.com/inancsarica/boom-guru/internal/infra/ai/prompt"
	"github.com/inancsarica/boom-guru/internal/infra/imagefetch"
	"github.com/inancsarica/boom-guru/internal/infra/refdata"
	"github.com/inancsarica/boom-guru/internal/worker"
)

// otherChat always dispatches to the rejection branch, which keeps the
// pipeline to a single model call per session.
type otherChat struct{}

func (otherChat) Chat(context.Context, string, []ai.Message, float32) (string, error) {
	return `{"category": "other"}`, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []*domain.CallbackPayload
}

func (n *recordingNotifier) Send(_ context.Context, _ string, p *domain.CallbackPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
	return nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, string) (*imagefetch.Image, error) {
	return &imagefetch.Image{Data: []byte{0xff}, Extension: "jpeg"}, nil
}

type stubRepo struct {
	latest []*domain.Record
}

func (r *stubRepo) Save(context.Context, *domain.Record) error { return nil }

func (r *stubRepo) Latest(context.Context, int) ([]*domain.Record, error) {
	return r.latest, nil
}

type rejectingQueue struct{}

func (rejectingQueue) Submit(worker.Task) bool { return false }

func testService(notifier *recordingNotifier) *appanalysis.Service {
	return &appanalysis.Service{
		Chat: otherChat{},
		Prompts: prompt.FromMap(map[string]string{
			prompt.Dispatcher:     "dispatch",
			prompt.Authenticity:   "auth",
			prompt.ErrorCodes:     "codes",
			prompt.Humanize:       "humanize",
			prompt.General:        "general",
			prompt.PartClassifier: "parts",
		}),
		Codes:    refdata.New(nil, nil, nil),
		Notifier: notifier,
		Fetcher:  stubFetcher{},
	}
}

func submissionBody() string {
	return `{
		"image_url": "https://img.example.com/a.jpg",
		"image_id": "img-1",
		"serial_number": "SN-42",
		"form_id": "form-7",
		"question_id": "q-3",
		"webhook_url": "https://hooks.example.com/done",
		"language": "tr"
	}`
}

func TestSubmitAcksThenDelivers(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewRouter(testService(notifier), worker.SyncQueue{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/boom_guru", strings.NewReader(submissionBody()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var ack struct {
		SessionID    string `json:"session_id"`
		ImageID      string `json:"image_id"`
		SerialNumber string `json:"serial_number"`
		WebhookURL   string `json:"webhook_url"`
		Language     string `json:"language"`
		Status       string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "processing", ack.Status)
	assert.Equal(t, "img-1", ack.ImageID)
	assert.Equal(t, "SN-42", ack.SerialNumber)
	assert.Equal(t, "https://hooks.example.com/done", ack.WebhookURL)
	assert.Equal(t, "tr", ack.Language)
	_, err := uuid.Parse(ack.SessionID)
	assert.NoError(t, err)

	// with the synchronous queue the terminal callback already happened
	require.Len(t, notifier.payloads, 1)
	p := notifier.payloads[0]
	assert.Equal(t, ack.SessionID, p.SessionID)
	assert.Equal(t, domain.StatusDone, p.Status)
	assert.Equal(t, domain.RejectionMessage, p.Answer)
}

func TestSubmitRejectsInvalidJSON(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewRouter(testService(notifier), worker.SyncQueue{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/boom_guru", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, notifier.payloads)
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewRouter(testService(notifier), worker.SyncQueue{}, nil, nil)

	body := `{"webhook_url": "https://hooks.example.com/done"}`
	req := httptest.NewRequest(http.MethodPost, "/boom_guru", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "image_url")
	assert.Empty(t, notifier.payloads)
}

func TestSubmitQueueFullSendsFailureCallback(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewRouter(testService(notifier), rejectingQueue{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/boom_guru", strings.NewReader(submissionBody()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// the ack still goes out, the session fails over the webhook
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, notifier.payloads, 1)
	p := notifier.payloads[0]
	assert.Equal(t, domain.StatusFailed, p.Status)
	assert.Equal(t, "Service overloaded, please retry", p.Answer)
	assert.Equal(t, []string{}, p.PartCategories)
}

func TestListAnalyses(t *testing.T) {
	repo := &stubRepo{latest: []*domain.Record{
		{SessionID: "sess-1", Category: "working_machine", PartCategory: "LASTIK"},
	}}
	svc := testService(&recordingNotifier{})
	svc.Repo = repo
	h := NewRouter(svc, worker.SyncQueue{}, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/analyses?limit=5", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
}

func TestListAnalysesWithoutRepo(t *testing.T) {
	h := NewRouter(testService(&recordingNotifier{}), worker.SyncQueue{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/analyses", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLiveness(t *testing.T) {
	h := NewRouter(testService(&recordingNotifier{}), worker.SyncQueue{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
