package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nikogura/cv-customizer/pkg/pipeline"
	"github.com/nikogura/cv-customizer/pkg/schema"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var tailorModel modelFlags

//nolint:gochecknoglobals // Cobra boilerplate
var tailorPrompt string

//nolint:gochecknoglobals // Cobra boilerplate
var tailorCV string

//nolint:gochecknoglobals // Cobra boilerplate
var tailorOut string

//nolint:gochecknoglobals // Cobra boilerplate
var tailorCmd = &cobra.Command{
	Use:   "tailor <job-url>",
	Short: "Tailor your CV to a job description",
	Long: `Fetch a job description, merge it with your CV into the prompt template, and ask
the model for a tailored resume record. The record is written as JSON and its path
is printed.

The CV can be a markdown or text file, a URL, or a PDF.

Example:
  cv-customizer tailor https://example.com/jobs/123
  cv-customizer tailor https://example.com/jobs/123 --cv Profile.pdf --provider anthropic`,
	Args: exactArgs(1),
	RunE: runTailor,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(tailorCmd)
	addModelFlags(tailorCmd, &tailorModel)
	tailorCmd.Flags().StringVar(&tailorPrompt, "prompt", "", "Prompt template (default from config, then Prompt_Template.mkd)")
	tailorCmd.Flags().StringVar(&tailorCV, "cv", "", "CV file, URL, or PDF (default from config, then fullcv.mkd)")
	tailorCmd.Flags().StringVar(&tailorOut, "out", "tailored_resume.json", "Where to write the JSON output")
}

func runTailor(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	p, model, err := newPipeline(cfg, logger, tailorModel, cfg.Models.Tailor)
	if err != nil {
		return err
	}

	var rec schema.Record
	rec, err = p.Tailor(ctx, pipeline.TailorRequest{
		JobURL:         args[0],
		PromptTemplate: firstNonEmpty(tailorPrompt, cfg.Templates.Prompt),
		CV:             firstNonEmpty(tailorCV, cfg.Sources.CV),
		Model:          model,
	})
	if err != nil {
		return err
	}

	err = pipeline.WriteRecord(tailorOut, rec)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), tailorOut)
	return err
}
