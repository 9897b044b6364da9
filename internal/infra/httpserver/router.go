package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appanalysis "github.com/inancsarica/boom-guru/internal/application/analysis"
	domain "github.com/inancsarica/boom-guru/internal/domain/analysis"
	"github.com/inancsarica/boom-guru/internal/middleware"
	"github.com/inancsarica/boom-guru/internal/worker"
)

type Router struct {
	svc   *appanalysis.Service
	queue worker.Queue
	repo  domain.Repository
}

// NewRouter builds the HTTP front door. repo may be nil when persistence is
// not configured; the listing endpoint then returns 404.
func NewRouter(svc *appanalysis.Service, queue worker.Queue, repo domain.Repository, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{svc: svc, queue: queue, repo: repo}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	mux.Use(middleware.Logging)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Post("/boom_guru", r.wrap(r.handleSubmit))
	mux.Get("/analyses", r.wrap(r.handleListAnalyses))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// ackResponse echoes the submission and assigns a session id.
type ackResponse struct {
	SessionID    string `json:"session_id"`
	ImageID      string `json:"image_id"`
	SerialNumber string `json:"serial_number"`
	FormID       string `json:"form_id"`
	QuestionID   string `json:"question_id"`
	WebhookURL   string `json:"webhook_url"`
	Language     string `json:"language"`
	Status       string `json:"status"`
}

// POST /boom_guru
// Accepts a submission, responds with the processing ack, then schedules the
// pipeline. The ack is written before the task is submitted, so the caller
// observes it before (or concurrently with) the callback — never after.
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	var sub domain.Submission
	if err := json.NewDecoder(req.Body).Decode(&sub); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return nil
	}
	if err := middleware.ValidateSubmission(&sub); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	sessionID := uuid.New().String()
	zap.L().Info("received image description request",
		zap.String("session_id", sessionID),
		zap.String("image_id", sub.ImageID),
		zap.String("serial_number", sub.SerialNumber),
		zap.String("form_id", sub.FormID),
		zap.String("question_id", sub.QuestionID),
		zap.String("image_url", sub.ImageURL))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ackResponse{
		SessionID:    sessionID,
		ImageID:      sub.ImageID,
		SerialNumber: sub.SerialNumber,
		FormID:       sub.FormID,
		QuestionID:   sub.QuestionID,
		WebhookURL:   sub.WebhookURL,
		Language:     sub.Language,
		Status:       string(domain.StatusProcessing),
	}); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	middleware.IncrementSessionsStarted()
	accepted := r.queue.Submit(func(ctx context.Context) {
		payload := r.svc.Process(ctx, sessionID, sub)
		if payload.Status == domain.StatusFailed {
			middleware.IncrementSessionsFailed()
		} else {
			middleware.IncrementSessionsSucceeded()
		}
	})
	if !accepted {
		// Ack already went out; the queue being full still owes the caller a
		// terminal callback.
		zap.L().Error("task queue rejected session, sending failure callback",
			zap.String("session_id", sessionID))
		middleware.IncrementSessionsFailed()
		worker.SyncQueue{}.Submit(func(ctx context.Context) {
			r.svc.Fail(ctx, sessionID, sub, "Service overloaded, please retry")
		})
	}
	return nil
}

// GET /analyses?limit=20
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	if r.repo == nil {
		http.Error(w, "persistence not configured", http.StatusNotFound)
		return nil
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.repo.Latest(req.Context(), limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}
