package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nikogura/cv-customizer/pkg/apperr"
	"github.com/pkg/errors"
)

const (
	// OpenAIEndpoint is the chat completions endpoint.
	OpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	// OpenAIModel is the default model.
	OpenAIModel = "gpt-4o-mini"
)

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	endpoint   string
}

// NewOpenAIClient creates a new OpenAI client. An empty model selects OpenAIModel.
func NewOpenAIClient(apiKey, model string) (client *OpenAIClient) {
	if model == "" {
		model = OpenAIModel
	}
	client = &OpenAIClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: OpenAIEndpoint,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	return client
}

// Complete sends one system and one user message and returns the trimmed reply.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (text string, err error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	chatReq := ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var reqBody []byte
	reqBody, err = json.Marshal(chatReq)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal request")
		return text, err
	}

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return text, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		err = apperr.Wrap(apperr.Model, err, "OpenAI request failed")
		return text, err
	}
	defer resp.Body.Close()

	var respBody []byte
	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = apperr.Wrap(apperr.Model, err, "failed to read OpenAI response body")
		return text, err
	}

	if resp.StatusCode != http.StatusOK {
		err = apperr.New(apperr.Model, errors.Errorf("OpenAI request failed with status %d: %s", resp.StatusCode, apiErrorMessage(respBody)))
		return text, err
	}

	var chatResp ChatResponse
	err = json.Unmarshal(respBody, &chatResp)
	if err != nil {
		err = apperr.Wrapf(apperr.Model, err, "failed to parse OpenAI response: %s", string(respBody))
		return text, err
	}

	if len(chatResp.Choices) > 0 {
		text = strings.TrimSpace(chatResp.Choices[0].Message.Content)
	}
	if text == "" {
		err = apperr.Newf(apperr.EmptyResponse, "empty response from OpenAI")
		return text, err
	}

	return text, err
}

func apiErrorMessage(body []byte) (msg string) {
	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
		return msg
	}
	msg = string(body)
	return msg
}
