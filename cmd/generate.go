package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nikogura/cv-customizer/pkg/pipeline"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var generateModel modelFlags

//nolint:gochecknoglobals // Cobra boilerplate
var generatePrompt string

//nolint:gochecknoglobals // Cobra boilerplate
var generateCV string

//nolint:gochecknoglobals // Cobra boilerplate
var keepJSON string

//nolint:gochecknoglobals // Cobra boilerplate
var generateCmd = &cobra.Command{
	Use:   "generate <job-url>",
	Short: "Tailor your CV to a job and render it in one step",
	Long: `Run tailor and render back to back: fetch the job description, ask the model
for a tailored resume record, and render it into the DOCX template.

Example:
  cv-customizer generate https://example.com/jobs/123
  cv-customizer generate https://example.com/jobs/123 --keep-json tailored_resume.json`,
	Args: exactArgs(1),
	RunE: runGenerate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(generateCmd)
	addModelFlags(generateCmd, &generateModel)
	addRenderFlags(generateCmd)
	generateCmd.Flags().StringVar(&generatePrompt, "prompt", "", "Prompt template (default from config, then Prompt_Template.mkd)")
	generateCmd.Flags().StringVar(&generateCV, "cv", "", "CV file, URL, or PDF (default from config, then fullcv.mkd)")
	generateCmd.Flags().StringVar(&keepJSON, "keep-json", "", "Also write the tailored record to this JSON file")
}

func runGenerate(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	p, model, err := newPipeline(cfg, logger, generateModel, cfg.Models.Tailor)
	if err != nil {
		return err
	}

	var path string
	path, err = p.Generate(ctx, pipeline.TailorRequest{
		JobURL:         args[0],
		PromptTemplate: firstNonEmpty(generatePrompt, cfg.Templates.Prompt),
		CV:             firstNonEmpty(generateCV, cfg.Sources.CV),
		Model:          model,
	}, renderRequest(cfg, logger), keepJSON)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", path)
	return err
}
