package llm

import (
	"github.com/nikogura/cv-customizer/pkg/apperr"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Completion settings used by the pipeline.
const (
	TailorTemperature = 0.2
	ImportTemperature = 0.1
	MaxTokens         = 2000
)

// New returns the client for a provider name.
func New(provider, apiKey, model string) (c Completer, err error) {
	switch provider {
	case ProviderOpenAI, "":
		c = NewOpenAIClient(apiKey, model)
	case ProviderAnthropic:
		c = NewAnthropicClient(apiKey, model)
	default:
		err = apperr.Newf(apperr.Usage, "unknown provider %q (want %s or %s)", provider, ProviderOpenAI, ProviderAnthropic)
	}
	return c, err
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) (model string) {
	model = OpenAIModel
	if provider == ProviderAnthropic {
		model = AnthropicModel
	}
	return model
}
