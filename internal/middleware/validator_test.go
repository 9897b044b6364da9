package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inancsarica/boom-guru/internal/domain/analysis"
)

func validSubmission() analysis.Submission {
	return analysis.Submission{
		ImageURL:     "https://img.example.com/a.jpg",
		ImageID:      "img-1",
		SerialNumber: "SN-42",
		WebhookURL:   "https://hooks.example.com/done",
		Language:     "tr",
	}
}

func TestValidateSubmission(t *testing.T) {
	sub := validSubmission()
	assert.NoError(t, ValidateSubmission(&sub))
}

func TestValidateSubmissionMissingFields(t *testing.T) {
	cases := map[string]func(*analysis.Submission){
		"image_url":     func(s *analysis.Submission) { s.ImageURL = "" },
		"webhook_url":   func(s *analysis.Submission) { s.WebhookURL = "" },
		"image_id":      func(s *analysis.Submission) { s.ImageID = "  " },
		"serial_number": func(s *analysis.Submission) { s.SerialNumber = "" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			sub := validSubmission()
			mutate(&sub)
			err := ValidateSubmission(&sub)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestValidateSubmissionAcceptsUnknownLanguage(t *testing.T) {
	sub := validSubmission()
	sub.Language = "xx"
	assert.NoError(t, ValidateSubmission(&sub))

	sub.Language = ""
	assert.NoError(t, ValidateSubmission(&sub))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("image_url", "http://example.com/a.jpg"))
	assert.NoError(t, ValidateURL("image_url", "https://example.com"))

	assert.Error(t, ValidateURL("image_url", ""))
	assert.Error(t, ValidateURL("image_url", "ftp://example.com/a.jpg"))
	assert.Error(t, ValidateURL("image_url", "not a url"))
	assert.Error(t, ValidateURL("image_url", "/relative/path.jpg"))
}
