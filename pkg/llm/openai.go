package llm

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const systemPrompt = `You are an emergency triage assistant. Given a caller
transcript (and optionally a video analysis summary), classify the situation
as one of: Critical, Medium, Low. Respond with a JSON object:
{"severity": "...", "reasoning": "..."} and nothing else.`

// chatCompleter is the slice of the OpenAI client the classifier needs.
// Narrowing it here lets tests substitute a canned implementation.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClassifier implements Classifier on any OpenAI-compatible
// chat completions endpoint (OpenAI, DashScope, vLLM, Ollama, ...).
type OpenAIClassifier struct {
	client chatCompleter
	model  string
	logger *logrus.Logger
}

// NewOpenAIClassifier creates a classifier. baseURL may be empty for the
// default OpenAI endpoint.
func NewOpenAIClassifier(apiKey, baseURL, model string, logger *logrus.Logger) *OpenAIClassifier {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// Classify asks the model for a severity. Any failure along the way
// (transport, refusal, unparseable output, invalid severity) degrades
// to the critical fallback rather than surfacing an error.
func (c *OpenAIClassifier) Classify(ctx context.Context, transcript, videoAnalysis string) Result {
	var sb strings.Builder
	sb.WriteString("Transcript:\n")
	sb.WriteString(transcript)
	if videoAnalysis != "" {
		sb.WriteString("\n\nVideo analysis:\n")
		sb.WriteString(videoAnalysis)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		Temperature: 0,
	})
	if err != nil {
		c.logger.Warnf("severity classification failed: %v", err)
		return FallbackResult()
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("severity classification returned no choices")
		return FallbackResult()
	}

	return parseResult(resp.Choices[0].Message.Content, c.logger)
}

// parseResult decodes the model output, tolerating fenced code blocks.
func parseResult(content string, logger *logrus.Logger) Result {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var r Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &r); err != nil {
		logger.Warnf("unparseable classification output: %v", err)
		return FallbackResult()
	}
	if !r.Severity.Valid() {
		logger.Warnf("model returned invalid severity %q", r.Severity)
		return FallbackResult()
	}
	if r.Reasoning == "" {
		r.Reasoning = "no reasoning provided"
	}
	return r
}

var _ Classifier = (*OpenAIClassifier)(nil)
