package middleware

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/inancsarica/boom-guru/internal/domain/analysis"
)

// Input validation for image submissions.

// ValidateURL checks that rawURL is a well-formed http(s) URL.
func ValidateURL(field, rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s scheme: %s (allowed: http, https)", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s: missing host", field)
	}
	return nil
}

// ValidateSubmission checks required fields of an incoming submission.
// The language code is NOT rejected here: unknown codes are accepted and
// fall back to English for prompt localization.
func ValidateSubmission(sub *analysis.Submission) error {
	if err := ValidateURL("image_url", sub.ImageURL); err != nil {
		return err
	}
	if err := ValidateURL("webhook_url", sub.WebhookURL); err != nil {
		return err
	}
	if strings.TrimSpace(sub.ImageID) == "" {
		return fmt.Errorf("image_id is required")
	}
	if strings.TrimSpace(sub.SerialNumber) == "" {
		return fmt.Errorf("serial_number is required")
	}
	return nil
}
