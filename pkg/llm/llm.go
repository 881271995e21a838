package llm

import (
	"context"

	"HibiscusSOS/internal/models"
)

// Result is the outcome of analysing an incoming distress report.
type Result struct {
	Severity  models.Severity `json:"severity"`
	Reasoning string          `json:"reasoning"`
}

// Classifier assigns a severity level to a distress transcript.
type Classifier interface {
	// Classify analyses the transcript (and optional video analysis text)
	// and returns a severity with a short reasoning string. Implementations
	// must not return an error for model-side failures: when analysis is
	// impossible the caller still needs a usable severity, so they degrade
	// to Critical instead.
	Classify(ctx context.Context, transcript, videoAnalysis string) Result
}

// FallbackResult is what every classifier returns when analysis fails.
// Treating unknown situations as critical keeps a broken upstream from
// silently downgrading real emergencies.
func FallbackResult() Result {
	return Result{
		Severity:  models.SeverityCritical,
		Reasoning: "defaulted due to analysis error",
	}
}
