package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/nikogura/cv-customizer/pkg/apperr"
)

// AnthropicModel is the default Claude model.
const AnthropicModel = "claude-sonnet-4-20250514"

// AnthropicClient calls the Anthropic messages API through the official SDK.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient creates a Claude client. The SDK's own retries are disabled; a
// failed call ends the run. Extra options, such as a base URL, are applied last.
func NewAnthropicClient(apiKey, model string, opts ...option.RequestOption) (client *AnthropicClient) {
	if model == "" {
		model = AnthropicModel
	}

	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	client = &AnthropicClient{
		client: anthropic.NewClient(all...),
		model:  model,
	}
	return client
}

// Complete sends the prompt as a single user message and joins the text blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (text string, err error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: req.Prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	var msg *anthropic.Message
	msg, err = c.client.Messages.New(ctx, params)
	if err != nil {
		err = apperr.Wrap(apperr.Model, err, "Anthropic request failed")
		return text, err
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}

	text = strings.TrimSpace(b.String())
	if text == "" {
		err = apperr.Newf(apperr.EmptyResponse, "empty response from Anthropic")
		return text, err
	}

	return text, err
}
