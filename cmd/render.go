package cmd

import (
	"fmt"

	"github.com/nikogura/cv-customizer/pkg/config"
	"github.com/nikogura/cv-customizer/pkg/persist"
	"github.com/nikogura/cv-customizer/pkg/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var renderTemplate string

//nolint:gochecknoglobals // Cobra boilerplate
var renderData string

//nolint:gochecknoglobals // Cobra boilerplate
var renderOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var renderTimezone string

//nolint:gochecknoglobals // Cobra boilerplate
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a resume record into the DOCX template",
	Long: `Bind a resume record to a DOCX template, remove the blank paragraphs left by
template tags, and save the document as CV_Customized_<timestamp>.docx.

Templates use {{ field }}, {% for %}, and {% if %} tags. A tag alone in a paragraph
({%p ... %}) or table row ({%tr ... %}) controls that whole element. Cell tags
({%tc ... %}) are rejected.

Example:
  cv-customizer render
  cv-customizer render --data tailored_resume.json --output-dir ~/Documents`,
	Args: exactArgs(0),
	RunE: runRender,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(renderCmd)
	addRenderFlags(renderCmd)
	renderCmd.Flags().StringVar(&renderData, "data", "resume_data.json", "Resume record JSON")
}

// addRenderFlags registers the document flags shared by render and generate.
func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&renderTemplate, "template", "", "DOCX template (default from config, then CV_Template.docx)")
	cmd.Flags().StringVar(&renderOutputDir, "output-dir", "", "Output directory (default from config, then .)")
	cmd.Flags().StringVar(&renderTimezone, "timezone", "", "Timezone for the output timestamp (default from config, then Europe/London)")
}

func renderRequest(cfg config.Config, logger zerolog.Logger) (req pipeline.RenderRequest) {
	req = pipeline.RenderRequest{
		Template: firstNonEmpty(renderTemplate, cfg.Templates.Document),
		Persister: &persist.Persister{
			Dir:    firstNonEmpty(renderOutputDir, cfg.Defaults.OutputDir),
			Zone:   firstNonEmpty(renderTimezone, cfg.Defaults.Timezone),
			Logger: logger,
		},
	}
	return req
}

func runRender(cmd *cobra.Command, args []string) (err error) {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{Logger: logger}

	var path string
	path, err = p.RenderFile(renderRequest(cfg, logger), renderData)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", path)
	return err
}
