package llm

import (
	"context"
	"fmt"
	"os"
)

// Provider wraps the generative model behind the one call the pipeline
// needs: audio plus prompt in, raw text out. Implementations decide how
// the audio reaches the model (inline bytes or an uploaded resource with
// readiness polling).
type Provider interface {
	AnalyzeAudio(ctx context.Context, audio []byte, mimeType, prompt string) (string, error)
	Close() error
}

// NewProvider builds the backend selected by LLM_PROVIDER ("gemini",
// the default, or "vertex").
func NewProvider(ctx context.Context) (Provider, error) {
	switch provider := os.Getenv("LLM_PROVIDER"); provider {
	case "", "gemini":
		return NewGemini(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL"))
	case "vertex":
		return NewVertexGemini(ctx,
			os.Getenv("VERTEX_PROJECT_ID"),
			os.Getenv("VERTEX_LOCATION"),
			os.Getenv("GEMINI_MODEL"))
	default:
		return nil, fmt.Errorf("unknown LLM provider %q: supported providers are gemini, vertex", provider)
	}
}
