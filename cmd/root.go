package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/nikogura/cv-customizer/pkg/apperr"
	"github.com/nikogura/cv-customizer/pkg/config"
	"github.com/nikogura/cv-customizer/pkg/logging"
	"github.com/nikogura/cv-customizer/pkg/schema"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var logFormat string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "cv-customizer",
	Short: "Tailor a CV to a job and render it to DOCX",
	Long: `cv-customizer turns a CV or LinkedIn profile into a structured resume record,
tailors it to a job description with a language model, and renders the record into
a DOCX template.

Typical flow:
  cv-customizer import --pdf Profile.pdf
  cv-customizer tailor https://example.com/jobs/123
  cv-customizer render --data tailored_resume.json`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and exits with the code of the failure class.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(apperr.ExitCode(err))
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.cv-customizer/config.json)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: pretty or json (default from config)")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) (tagged error) {
		tagged = apperr.New(apperr.Usage, err)
		return tagged
	})
}

// reportError prints err, and for unparseable model output also the raw text.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var schemaErr *schema.Error
	if stderrors.As(err, &schemaErr) && schemaErr.Raw != "" {
		fmt.Fprintf(w, "Model did not return valid JSON. Raw output:\n%s\n", schemaErr.Raw)
	}
}

// exactArgs is cobra.ExactArgs with the failure tagged as a usage error.
func exactArgs(n int) (fn cobra.PositionalArgs) {
	fn = func(cmd *cobra.Command, args []string) (err error) {
		err = apperr.New(apperr.Usage, cobra.ExactArgs(n)(cmd, args))
		return err
	}
	return fn
}

// getVerbose returns the verbose flag value.
func getVerbose() (result bool) {
	result = verbose
	return result
}

// getConfigFile returns the config file path.
func getConfigFile() (result string) {
	result = configFile
	return result
}

// setup loads the configuration and builds the logger every command shares.
func setup() (cfg config.Config, logger zerolog.Logger, err error) {
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		return cfg, logger, err
	}

	level := cfg.Logging.Level
	if getVerbose() {
		level = zerolog.LevelDebugValue
	}

	format := cfg.Logging.Format
	if logFormat != "" {
		format = logFormat
	}

	logger, err = logging.New(logging.Options{Level: level, Format: format})
	if err != nil {
		return cfg, logger, err
	}

	logger.Debug().Str("config", getConfigFile()).Str("provider", cfg.Provider).Msg("configuration loaded")
	return cfg, logger, err
}

// firstNonEmpty returns the first value that is set.
func firstNonEmpty(values ...string) (result string) {
	for _, v := range values {
		if v != "" {
			result = v
			return result
		}
	}
	return result
}
