package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"

	"github.com/darkruden/mock-interview-ai/internal/utils"
)

// VertexGemini is the Vertex AI backend. Vertex has no Files API, so audio
// always travels inline with the request.
type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	if projectID == "" {
		return nil, errors.New("VERTEX_PROJECT_ID is not set")
	}
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	m.GenerationConfig.ResponseMIMEType = "application/json"
	m.SetTemperature(0.5)

	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) AnalyzeAudio(ctx context.Context, audio []byte, mimeType, prompt string) (string, error) {
	const op = "VertexGemini.AnalyzeAudio"

	resp, err := v.model.GenerateContent(ctx,
		vertexgenai.Blob{MIMEType: mimeType, Data: audio},
		vertexgenai.Text(prompt),
	)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "generate content", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", utils.E(utils.CodeInternal, op, "empty response text", nil)
	}
	return text, nil
}
