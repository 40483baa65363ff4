package cmd

import (
	"github.com/nikogura/cv-customizer/pkg/config"
	"github.com/nikogura/cv-customizer/pkg/llm"
	"github.com/nikogura/cv-customizer/pkg/pipeline"
	"github.com/nikogura/cv-customizer/pkg/schema"
	"github.com/nikogura/cv-customizer/pkg/source"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// modelFlags are the flags shared by every command that calls the model.
type modelFlags struct {
	provider   string
	model      string
	apiKey     string
	apiKeyFile string
	strict     bool
}

func addModelFlags(cmd *cobra.Command, f *modelFlags) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "Model provider: openai or anthropic (default from config)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name (default from config, then the provider default)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key (overrides config and environment)")
	cmd.Flags().StringVar(&f.apiKeyFile, "api-key-file", "", "Path to a file containing the API key")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Enforce date formats and bullet counts on the model output")
}

// newPipeline resolves the provider, model, and key, and builds the pipeline around them.
// configModel is the per-command model from the config file.
func newPipeline(cfg config.Config, logger zerolog.Logger, f modelFlags, configModel string) (p *pipeline.Pipeline, model string, err error) {
	provider := cfg.Provider
	if f.provider != "" {
		override := cfg
		override.Provider = f.provider
		err = override.Validate()
		if err != nil {
			return p, model, err
		}
		provider = override.Provider
	}

	model = firstNonEmpty(f.model, configModel, llm.DefaultModel(provider))

	var key string
	key, err = cfg.ResolveAPIKey(provider, config.Credentials{Key: f.apiKey, KeyFile: f.apiKeyFile})
	if err != nil {
		return p, model, err
	}

	var client llm.Completer
	client, err = llm.New(provider, key, model)
	if err != nil {
		return p, model, err
	}

	validation := schema.ValidateRequired
	if f.strict {
		validation = schema.ValidateStrict
	}

	before, after := progress()
	p = &pipeline.Pipeline{
		Model:          client,
		JobFetcher:     source.NewFetcher(source.JobSpecTimeout),
		ProfileFetcher: source.NewFetcher(source.ProfileTimeout),
		PDF:            &source.PDFExtractor{Logger: logger},
		Coercer:        schema.NewCoercer(schema.WithValidation(validation)),
		Logger:         logger,
		BeforeModel:    before,
		AfterModel:     after,
	}

	logger.Debug().Str("provider", provider).Str("model", model).Msg("model client ready")
	return p, model, err
}
