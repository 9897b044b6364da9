package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresEveryTemplate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range required {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md"), []byte(name+" body"), 0o644))
	}

	r, err := Load(dir)
	require.NoError(t, err)

	got, err := r.Resolve(Dispatcher, nil)
	require.NoError(t, err)
	assert.Equal(t, "dispatcher body", got)
}

func TestLoadFailsOnMissingTemplate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range required {
		if name == PartClassifier {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md"), []byte("x"), 0o644))
	}

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), PartClassifier)
}

func TestResolveSubstitutions(t *testing.T) {
	r := FromMap(map[string]string{
		ErrorCodes: "Reply in {language_name}. Codes for {language_name} readers.",
		Humanize:   "Data: {final_json_str} -> {target_language}",
	})

	got, err := r.Resolve(ErrorCodes, map[string]string{"language_name": "Türkçe"})
	require.NoError(t, err)
	assert.Equal(t, "Reply in Türkçe. Codes for Türkçe readers.", got)

	got, err = r.Resolve(Humanize, map[string]string{
		"final_json_str":  `{"errors":[]}`,
		"target_language": "English",
	})
	require.NoError(t, err)
	assert.Equal(t, `Data: {"errors":[]} -> English`, got)
}

func TestResolveLeavesUnknownPlaceholders(t *testing.T) {
	r := FromMap(map[string]string{General: "Hello {language_name} and {unused}"})

	got, err := r.Resolve(General, map[string]string{"language_name": "English"})
	require.NoError(t, err)
	assert.Equal(t, "Hello English and {unused}", got)
}

func TestResolveUnknownTemplate(t *testing.T) {
	_, err := FromMap(nil).Resolve("nope", nil)
	assert.Error(t, err)
}

func TestShippedTemplatesResolve(t *testing.T) {
	r, err := Load(filepath.Join("..", "..", "..", "..", "prompts"))
	require.NoError(t, err)

	got, err := r.Resolve(General, map[string]string{"language_name": "English"})
	require.NoError(t, err)
	assert.NotContains(t, got, "{language_name}")
}
