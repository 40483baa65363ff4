package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nikogura/cv-customizer/pkg/apperr"
	"github.com/nikogura/cv-customizer/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportErrorSchema(t *testing.T) {
	_, err := schema.NewCoercer().Coerce("Sure! Here is your CV")
	require.Error(t, err)
	err = apperr.Wrap(apperr.Schema, err, "model did not return a valid resume record")

	var buf bytes.Buffer
	reportError(&buf, err)

	assert.Contains(t, buf.String(), "Error: model did not return a valid resume record")
	assert.Contains(t, buf.String(), "Model did not return valid JSON. Raw output:\nSure! Here is your CV\n")
	assert.Equal(t, 5, apperr.ExitCode(err))
}

func TestReportErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, apperr.Newf(apperr.Fetch, "failed to fetch https://example.com: HTTP status 404"))

	assert.Equal(t, "Error: failed to fetch https://example.com: HTTP status 404\n", buf.String())
}

func TestExactArgs(t *testing.T) {
	fn := exactArgs(1)

	assert.NoError(t, fn(tailorCmd, []string{"https://example.com/jobs/1"}))

	err := fn(tailorCmd, nil)
	require.Error(t, err)
	assert.Equal(t, 64, apperr.ExitCode(err))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "flag", firstNonEmpty("flag", "config", "default"))
	assert.Equal(t, "config", firstNonEmpty("", "config", "default"))
	assert.Equal(t, "default", firstNonEmpty("", "", "default"))
	assert.Empty(t, firstNonEmpty("", ""))
}

func TestInitCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"init", "--config", configPath})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		configFile = ""
	})

	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "Created: "+configPath)
	_, err := os.Stat(filepath.Join(tmpDir, "Prompt_Template.mkd"))
	require.NoError(t, err)

	err = rootCmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 64, apperr.ExitCode(err))
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	rootCmd.SetArgs([]string{"render", "--no-such-flag"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Equal(t, apperr.Usage, apperr.KindOf(err))
}

func TestRenderHelpNamesSupportedElementTags(t *testing.T) {
	assert.Contains(t, renderCmd.Long, "({%p ... %})")
	assert.Contains(t, renderCmd.Long, "({%tr ... %})")
	assert.Contains(t, renderCmd.Long, "({%tc ... %}) are rejected")
}
