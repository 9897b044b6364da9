// Package prompt loads the markdown prompt templates and performs literal
// placeholder substitution before a template is sent to the model.
package prompt

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Template names used by the pipeline. Every name must resolve to a
// "<name>.md" file in the prompts directory at startup.
const (
	Dispatcher     = "dispatcher"
	Authenticity   = "authenticity"
	ErrorCodes     = "error_codes"
	Humanize       = "error_codes_prompt"
	General        = "prompt"
	PartClassifier = "part_classifier"
)

var required = []string{
	Dispatcher,
	Authenticity,
	ErrorCodes,
	Humanize,
	General,
	PartClassifier,
}

// Resolver holds the loaded templates. Immutable after Load; safe for
// concurrent sessions.
type Resolver struct {
	templates map[string]string
}

// Load reads every required template from dir. A missing or unreadable file
// is a fatal configuration error: the process must not start without its
// prompts.
func Load(dir string) (*Resolver, error) {
	templates := make(map[string]string, len(required))
	for _, name := range required {
		data, err := os.ReadFile(filepath.Join(dir, name+".md"))
		if err != nil {
			return nil, eris.Wrapf(err, "prompt: load template %q", name)
		}
		templates[name] = string(data)
	}
	return &Resolver{templates: templates}, nil
}

// FromMap builds a resolver from in-memory templates. Test constructor.
func FromMap(templates map[string]string) *Resolver {
	copied := make(map[string]string, len(templates))
	for k, v := range templates {
		copied[k] = v
	}
	return &Resolver{templates: copied}
}

// Resolve returns the named template with every "{key}" placeholder replaced
// by its substitution value. Substitution is literal text replacement; there
// is no templating control flow.
func (r *Resolver) Resolve(name string, subs map[string]string) (string, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return "", eris.Errorf("prompt: unknown template %q", name)
	}
	for key, val := range subs {
		tpl = strings.ReplaceAll(tpl, "{"+key+"}", val)
	}
	return tpl, nil
}
