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
var importModel modelFlags

//nolint:gochecknoglobals // Cobra boilerplate
var importPDF string

//nolint:gochecknoglobals // Cobra boilerplate
var importURL string

//nolint:gochecknoglobals // Cobra boilerplate
var importText string

//nolint:gochecknoglobals // Cobra boilerplate
var importOut string

//nolint:gochecknoglobals // Cobra boilerplate
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Build resume_data.json from a LinkedIn profile",
	Long: `Normalize a LinkedIn PDF export, a profile URL, or a plain text profile into a
structured resume record. Exactly one source is required.

PDFs are read with pdftotext -layout when it is installed, and with a built-in
extractor otherwise.

Example:
  cv-customizer import --pdf Profile.pdf
  cv-customizer import --text profile.txt --out resume_data.json`,
	Args: exactArgs(0),
	RunE: runImport,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(importCmd)
	addModelFlags(importCmd, &importModel)
	importCmd.Flags().StringVar(&importPDF, "pdf", "", "Path to a LinkedIn profile PDF export")
	importCmd.Flags().StringVar(&importURL, "url", "", "Public URL containing your profile text")
	importCmd.Flags().StringVar(&importText, "text", "", "Path to a plain text file with your profile text")
	importCmd.Flags().StringVar(&importOut, "out", "resume_data.json", "Output JSON path to write")
}

func runImport(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	req := pipeline.ImportRequest{
		PDF:  importPDF,
		URL:  importURL,
		Text: importText,
	}
	err = req.Validate()
	if err != nil {
		return err
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	p, model, err := newPipeline(cfg, logger, importModel, cfg.Models.Import)
	if err != nil {
		return err
	}

	var rec schema.Record
	req.Model = model
	rec, err = p.Import(ctx, req)
	if err != nil {
		return err
	}

	err = pipeline.WriteRecord(importOut, rec)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), importOut)
	return err
}
