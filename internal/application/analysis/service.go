// Package analysis implements the multi-stage image classification pipeline:
// dispatch, authenticity gate, category-specific analysis, part-category
// consensus voting, persistence and callback delivery.
package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inancsarica/boom-guru/internal/domain/ai"
	domain "github.com/inancsarica/boom-guru/internal/domain/analysis"
	"github.com/inancsarica/boom-guru/internal/infra/ai/prompt"
	"github.com/inancsarica/boom-guru/internal/infra/imagefetch"
	"github.com/inancsarica/boom-guru/internal/jsonx"
)

// defaultAttempts is the number of independent part classifier votes.
const defaultAttempts = 3

// PromptResolver resolves a named template with placeholder substitutions.
type PromptResolver interface {
	Resolve(name string, subs map[string]string) (string, error)
}

// ImageFetcher downloads a submission image.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*imagefetch.Image, error)
}

// Service runs one session end to end. Safe for concurrent use; every field
// it touches is either read-only or owned by the session.
type Service struct {
	Chat     ai.Client
	Prompts  PromptResolver
	Codes    domain.CodeResolver
	Repo     domain.Repository    // nil disables persistence
	Notifier domain.Notifier
	Fetcher  ImageFetcher
	Archive  domain.ImageArchive // nil disables image archiving
	Attempts int                 // part classifier attempts, 0 means defaultAttempts
}

// Process executes the full pipeline for one accepted submission and always
// makes exactly one callback delivery attempt, success or failure. Nothing
// escapes this boundary: any stage error becomes a "failed" payload.
// The terminal payload is returned for metrics and tests.
func (s *Service) Process(ctx context.Context, sessionID string, sub domain.Submission) *domain.CallbackPayload {
	payload := &domain.CallbackPayload{
		SessionID:      sessionID,
		ImageID:        sub.ImageID,
		SerialNumber:   sub.SerialNumber,
		FormID:         sub.FormID,
		QuestionID:     sub.QuestionID,
		PartCategories: []string{},
	}

	res, err := s.run(ctx, sessionID, sub)
	if err != nil {
		zap.L().Error("session failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		payload.Status = domain.StatusFailed
		payload.Answer = err.Error()
	} else {
		s.persist(ctx, sessionID, sub, res)
		payload.Status = domain.StatusDone
		payload.Answer = res.Answer
		payload.PartCategories = res.PartCategories
	}

	s.deliver(ctx, sessionID, sub.WebhookURL, payload)
	return payload
}

// Fail short-circuits a session that could not be scheduled: it emits the
// mandatory failure callback without running the pipeline, preserving the
// one-terminal-callback-per-session invariant.
func (s *Service) Fail(ctx context.Context, sessionID string, sub domain.Submission, reason string) {
	s.deliver(ctx, sessionID, sub.WebhookURL, &domain.CallbackPayload{
		SessionID:      sessionID,
		ImageID:        sub.ImageID,
		SerialNumber:   sub.SerialNumber,
		FormID:         sub.FormID,
		QuestionID:     sub.QuestionID,
		Answer:         reason,
		Status:         domain.StatusFailed,
		PartCategories: []string{},
	})
}

// run walks the stage machine and returns the session result. Errors
// returned here are the fatal ones; recoverable conditions degrade to
// documented defaults inside each stage.
func (s *Service) run(ctx context.Context, sessionID string, sub domain.Submission) (*domain.Result, error) {
	languageName := domain.LanguageName(sub.Language)

	img, err := s.Fetcher.Fetch(ctx, sub.ImageURL)
	if err != nil {
		return nil, err
	}
	zap.L().Info("image downloaded",
		zap.String("session_id", sessionID),
		zap.Int("bytes", len(img.Data)))
	dataURI := img.DataURI()

	s.archiveImage(ctx, sessionID, img)

	category, err := s.dispatch(ctx, sessionID, dataURI)
	if err != nil {
		return nil, err
	}

	if category == domain.CategoryWorkingMachine && !s.isRealPhoto(ctx, sessionID, dataURI) {
		zap.L().Info("photo judged not real, overriding category",
			zap.String("session_id", sessionID))
		category = domain.CategoryOther
	}

	res := &domain.Result{Category: category, PartCategories: []string{}}

	switch category {
	case domain.CategoryOther:
		res.Answer = domain.RejectionMessage
	case domain.CategoryErrorCode:
		res.Answer, err = s.analyzeErrorCodes(ctx, sessionID, dataURI, languageName)
		if err != nil {
			return nil, err
		}
	default:
		res.Answer, err = s.analyzeMachine(ctx, sessionID, dataURI, languageName)
		if err != nil {
			return nil, err
		}
	}

	if category != domain.CategoryOther {
		res.PartCategories = s.classifyParts(ctx, sessionID, dataURI, res.Answer)
	}
	return res, nil
}

// dispatch buckets the image into a category. Malformed model output is not
// fatal: the documented default is working_machine.
func (s *Service) dispatch(ctx context.Context, sessionID, dataURI string) (domain.Category, error) {
	sys, err := s.Prompts.Resolve(prompt.Dispatcher, nil)
	if err != nil {
		return "", err
	}
	text, err := s.Chat.Chat(ctx, sessionID,
		[]ai.Message{ai.SystemText(sys), ai.UserImage(dataURI)}, ai.DefaultTemperature)
	if err != nil {
		return "", err
	}

	var out struct {
		Category string `json:"category"`
	}
	if err := jsonx.Unmarshal(text, &out); err != nil {
		zap.L().Warn("malformed dispatcher response, defaulting to working_machine",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return domain.CategoryWorkingMachine, nil
	}

	category := domain.Category(out.Category)
	switch category {
	case domain.CategoryWorkingMachine, domain.CategoryErrorCode, domain.CategoryOther:
		zap.L().Info("predicted category",
			zap.String("session_id", sessionID),
			zap.String("category", out.Category))
		return category, nil
	default:
		zap.L().Warn("unknown dispatcher category, defaulting to working_machine",
			zap.String("session_id", sessionID),
			zap.String("category", out.Category))
		return domain.CategoryWorkingMachine, nil
	}
}

// isRealPhoto runs the authenticity gate. Fail-open: any failure to complete
// the check counts as real. Reviewed business rule, do not tighten silently.
func (s *Service) isRealPhoto(ctx context.Context, sessionID, dataURI string) bool {
	sys, err := s.Prompts.Resolve(prompt.Authenticity, nil)
	if err != nil {
		zap.L().Warn("authenticity prompt unavailable, assuming real",
			zap.String("session_id", sessionID), zap.Error(err))
		return true
	}
	text, err := s.Chat.Chat(ctx, sessionID,
		[]ai.Message{ai.SystemText(sys), ai.UserImage(dataURI)}, ai.DefaultTemperature)
	if err != nil {
		zap.L().Warn("authenticity check failed, assuming real",
			zap.String("session_id", sessionID), zap.Error(err))
		return true
	}

	var out map[string]any
	if err := jsonx.Unmarshal(text, &out); err != nil {
		zap.L().Warn("malformed authenticity response, assuming real",
			zap.String("session_id", sessionID), zap.Error(err))
		return true
	}
	v, ok := out["is_real_photo"]
	if !ok {
		return true
	}
	real, ok := jsonx.CoerceBool(v)
	if !ok {
		return true
	}
	return real
}

// analyzeErrorCodes extracts fault codes from the screen, enriches them from
// the reference tables and humanizes the result in the target language.
func (s *Service) analyzeErrorCodes(ctx context.Context, sessionID, dataURI, languageName string) (string, error) {
	sys, err := s.Prompts.Resolve(prompt.ErrorCodes, map[string]string{"language_name": languageName})
	if err != nil {
		return "", err
	}
	text, err := s.Chat.Chat(ctx, sessionID,
		[]ai.Message{ai.SystemText(sys), ai.UserImage(dataURI)}, ai.DefaultTemperature)
	if err != nil {
		return "", err
	}

	var extracted struct {
		Errors         []domain.ErrorEntry `json:"errors"`
		AdditionalInfo string              `json:"additional_info"`
	}
	if err := jsonx.Unmarshal(text, &extracted); err != nil {
		zap.L().Warn("malformed error code response, continuing with empty list",
			zap.String("session_id", sessionID), zap.Error(err))
		extracted.Errors = nil
		extracted.AdditionalInfo = ""
	} else {
		zap.L().Info("extracted error codes",
			zap.String("session_id", sessionID),
			zap.Int("count", len(extracted.Errors)))
	}

	for i := range extracted.Errors {
		extracted.Errors[i].Name = s.Codes.Describe(extracted.Errors[i].Type, extracted.Errors[i].Code)
	}

	enriched, err := json.Marshal(map[string]any{
		"errors":          extracted.Errors,
		"additional_info": extracted.AdditionalInfo,
	})
	if err != nil {
		return "", err
	}

	final, err := s.Prompts.Resolve(prompt.Humanize, map[string]string{
		"final_json_str":  string(enriched),
		"target_language": languageName,
	})
	if err != nil {
		return "", err
	}
	return s.Chat.Chat(ctx, sessionID, []ai.Message{
		ai.SystemText(final),
		ai.UserText("Please generate a response based on the provided error codes."),
	}, ai.DefaultTemperature)
}

// analyzeMachine runs the general working-machine analysis.
func (s *Service) analyzeMachine(ctx context.Context, sessionID, dataURI, languageName string) (string, error) {
	sys, err := s.Prompts.Resolve(prompt.General, map[string]string{"language_name": languageName})
	if err != nil {
		return "", err
	}
	return s.Chat.Chat(ctx, sessionID,
		[]ai.Message{ai.SystemText(sys), ai.UserImage(dataURI)}, ai.DefaultTemperature)
}

// classifyParts runs the configured number of independent part classifier
// attempts concurrently and unions the valid answers, first seen first, in
// attempt order. Individual attempt failures only lose that attempt's vote.
func (s *Service) classifyParts(ctx context.Context, sessionID, dataURI, answer string) []string {
	sys, err := s.Prompts.Resolve(prompt.PartClassifier, nil)
	if err != nil {
		zap.L().Error("part classifier prompt unavailable",
			zap.String("session_id", sessionID), zap.Error(err))
		return []string{}
	}

	attempts := s.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	votes := make([][]string, attempts)
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		i := i
		g.Go(func() error {
			votes[i] = s.partAttempt(ctx, sessionID, i+1, sys, dataURI, answer)
			return nil
		})
	}
	_ = g.Wait()

	union := []string{}
	seen := make(map[string]struct{})
	for _, vote := range votes {
		for _, category := range vote {
			if _, dup := seen[category]; dup {
				continue
			}
			seen[category] = struct{}{}
			union = append(union, category)
		}
	}

	if len(union) > 0 {
		zap.L().Info("predicted part categories",
			zap.String("session_id", sessionID),
			zap.Strings("part_categories", union))
	} else {
		zap.L().Info("no part categories predicted",
			zap.String("session_id", sessionID))
	}
	return union
}

// partAttempt performs a single low-temperature classification vote. Any
// failure drops only this vote.
func (s *Service) partAttempt(ctx context.Context, sessionID string, attempt int, sysPrompt, dataURI, answer string) []string {
	msgs := []ai.Message{
		ai.SystemText(sysPrompt),
		{Role: ai.RoleUser, Parts: []ai.Part{
			{ImageURL: dataURI},
			{Text: "The following analysis captures the extracted findings about the machine or fault:\n" + answer},
		}},
	}

	text, err := s.Chat.Chat(ctx, sessionID, msgs, ai.LowTemperature)
	if err != nil {
		zap.L().Error("part classifier call failed",
			zap.String("session_id", sessionID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return nil
	}

	var out map[string]any
	if err := jsonx.UnmarshalKeepNewlines(text, &out); err != nil {
		zap.L().Error("malformed part classifier response",
			zap.String("session_id", sessionID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return nil
	}

	var candidates []string
	switch v := out["part_categories"].(type) {
	case string:
		candidates = []string{v}
	case []any:
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				zap.L().Warn("discarding non-string part category",
					zap.String("session_id", sessionID),
					zap.Int("attempt", attempt))
				continue
			}
			candidates = append(candidates, str)
		}
	default:
		zap.L().Warn("unexpected part_categories shape",
			zap.String("session_id", sessionID),
			zap.Int("attempt", attempt))
		return nil
	}

	var valid []string
	seen := make(map[string]struct{})
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if !domain.IsValidPartCategory(candidate) {
			zap.L().Warn("invalid part category",
				zap.String("session_id", sessionID),
				zap.String("part_category", candidate))
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		valid = append(valid, candidate)
	}
	return valid
}

// persist writes the audit row. Best-effort: failures are logged and the
// callback still fires.
func (s *Service) persist(ctx context.Context, sessionID string, sub domain.Submission, res *domain.Result) {
	if s.Repo == nil {
		return
	}
	rec := &domain.Record{
		SessionID:    sessionID,
		SerialNumber: sub.SerialNumber,
		ImageID:      sub.ImageID,
		FormID:       sub.FormID,
		QuestionID:   sub.QuestionID,
		Category:     string(res.Category),
		PartCategory: strings.Join(res.PartCategories, ", "),
		FinalAnswer:  res.Answer,
	}
	if err := s.Repo.Save(ctx, rec); err != nil {
		zap.L().Error("failed to persist analysis record",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

// deliver makes the single callback attempt and logs the outcome.
func (s *Service) deliver(ctx context.Context, sessionID, webhookURL string, p *domain.CallbackPayload) {
	if err := s.Notifier.Send(ctx, webhookURL, p); err != nil {
		zap.L().Error("callback delivery failed",
			zap.String("session_id", sessionID),
			zap.String("webhook_url", webhookURL),
			zap.Error(err))
		return
	}
	zap.L().Info("callback delivered",
		zap.String("session_id", sessionID),
		zap.String("status", string(p.Status)))
}

// archiveImage stores the fetched bytes for audit. Best-effort.
func (s *Service) archiveImage(ctx context.Context, sessionID string, img *imagefetch.Image) {
	if s.Archive == nil {
		return
	}
	url, err := s.Archive.Store(ctx, sessionID, img.Data, img.ContentType())
	if err != nil {
		zap.L().Warn("image archive failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}
	zap.L().Info("image archived",
		zap.String("session_id", sessionID),
		zap.String("url", url))
}
