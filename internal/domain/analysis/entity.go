package analysis

// Category buckets an image into one of three processing branches.
// The dispatcher decides it once per session; the authenticity gate may
// override it to CategoryOther. Immutable after that.
type Category string

const (
	CategoryWorkingMachine Category = "working_machine"
	CategoryErrorCode      Category = "error_code"
	CategoryOther          Category = "other"
)

// Status enum for the callback payload.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Error code types recognised by the extraction stage.
const (
	CodeTypeCIDFMI = "CID-FMI"
	CodeTypeEID    = "EID"
)

// RejectionMessage is returned verbatim when an image is classified as
// neither a machine nor an error screen.
const RejectionMessage = "Yüklenen görsel bir iş makinesi veya hata kodu olarak tanımlanamadı. " +
	"Lütfen bir makine ya da hata ekranı içeren alakalı bir görsel yükleyin."

// Submission is one accepted analysis request. Immutable once accepted and
// owned exclusively by a single pipeline run.
type Submission struct {
	ImageURL     string `json:"image_url"`
	ImageID      string `json:"image_id"`
	SerialNumber string `json:"serial_number"`
	FormID       string `json:"form_id"`
	QuestionID   string `json:"question_id"`
	WebhookURL   string `json:"webhook_url"`
	Language     string `json:"language"`
}

// ErrorEntry is one fault code extracted from an error screen, enriched with
// a human readable name from the reference tables.
type ErrorEntry struct {
	Code string `json:"code"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// Result is the terminal artifact of one session.
type Result struct {
	Category       Category
	Answer         string
	PartCategories []string
}

// CallbackPayload is the wire projection of a session outcome, emitted
// exactly once per session regardless of where processing failed.
type CallbackPayload struct {
	SessionID      string   `json:"session_id"`
	ImageID        string   `json:"image_id"`
	SerialNumber   string   `json:"serial_number"`
	FormID         string   `json:"form_id"`
	QuestionID     string   `json:"question_id"`
	Answer         string   `json:"answer"`
	Status         Status   `json:"status"`
	PartCategories []string `json:"part_categories"`
}

// Record is the persisted audit row for one finished session.
type Record struct {
	SessionID    string
	SerialNumber string
	ImageID      string
	FormID       string
	QuestionID   string
	Category     string
	PartCategory string
	FinalAnswer  string
}

// validPartCategories is the closed set of known mechanical part categories.
// Anything outside it is discarded by the part classifier.
var validPartCategories = map[string]struct{}{
	"ATASMANLAR-DIGER":                  {},
	"ATASMANLAR-KIRICI":                 {},
	"ATASMANLAR-KOVA":                   {},
	"HIDROLIK PARÇALARI - HORTUM / RAKOR": {},
	"HIDROLIK PARÇALARI - SILINDIR":     {},
	"ELEKTIRIK VE DIĞER PARÇALAR":       {},
	"SASE PARCALARI":                    {},
	"YÜRÜYÜŞ TAKIMI":                    {},
	"LASTIK":                            {},
}

// IsValidPartCategory reports whether s is in the part category allow-list.
func IsValidPartCategory(s string) bool {
	_, ok := validPartCategories[s]
	return ok
}

// languageNames maps accepted language codes to the names used inside
// prompt templates. Unknown codes fall back to English.
var languageNames = map[string]string{
	"en": "English",
	"tr": "Türkçe",
	"ru": "Russian",
	"ka": "Georgian",
	"az": "Azerbaijani",
	"kk": "Kazakh",
	"ky": "Kyrgyz",
}

// LanguageName resolves a language code to the prompt language name.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "English"
}

// SupportedLanguage reports whether code is one of the accepted codes.
func SupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}
