package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"HibiscusSOS/internal/models"
)

type cannedCompleter struct {
	content string
	err     error
}

func (c *cannedCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: c.content}},
		},
	}, nil
}

func newCannedClassifier(content string, err error) *OpenAIClassifier {
	return &OpenAIClassifier{
		client: &cannedCompleter{content: content, err: err},
		model:  "test-model",
		logger: logrus.New(),
	}
}

func TestClassifyParsesModelOutput(t *testing.T) {
	c := newCannedClassifier(`{"severity":"Medium","reasoning":"minor injury reported"}`, nil)

	r := c.Classify(context.Background(), "my ankle hurts", "")
	assert.Equal(t, models.SeverityMedium, r.Severity)
	assert.Equal(t, "minor injury reported", r.Reasoning)
}

func TestClassifyToleratesCodeFence(t *testing.T) {
	c := newCannedClassifier("```json\n{\"severity\":\"Low\",\"reasoning\":\"noise complaint\"}\n```", nil)

	r := c.Classify(context.Background(), "loud music next door", "")
	assert.Equal(t, models.SeverityLow, r.Severity)
}

func TestClassifyFallsBackOnTransportError(t *testing.T) {
	c := newCannedClassifier("", errors.New("connection refused"))

	r := c.Classify(context.Background(), "help", "")
	assert.Equal(t, models.SeverityCritical, r.Severity)
	assert.Equal(t, "defaulted due to analysis error", r.Reasoning)
}

func TestClassifyFallsBackOnGarbage(t *testing.T) {
	c := newCannedClassifier("I cannot classify this.", nil)

	r := c.Classify(context.Background(), "help", "")
	assert.Equal(t, FallbackResult(), r)
}

func TestClassifyFallsBackOnInvalidSeverity(t *testing.T) {
	c := newCannedClassifier(`{"severity":"Extreme","reasoning":"x"}`, nil)

	r := c.Classify(context.Background(), "help", "")
	assert.Equal(t, FallbackResult(), r)
}
