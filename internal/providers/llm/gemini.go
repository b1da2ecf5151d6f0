package llm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/darkruden/mock-interview-ai/internal/utils"
)

// Audio payloads above this size go through the Files API instead of
// inline request bytes.
const inlineAudioLimit = 20 << 20

// fileService is the slice of the Files API the upload path uses.
// Satisfied by *genai.Files.
type fileService interface {
	Upload(ctx context.Context, r io.Reader, config *genai.UploadFileConfig) (*genai.File, error)
	Get(ctx context.Context, name string, config *genai.GetFileConfig) (*genai.File, error)
	Delete(ctx context.Context, name string, config *genai.DeleteFileConfig) (*genai.DeleteFileResponse, error)
}

// Gemini talks to the Gemini API backend. Small audio is sent inline;
// larger audio is uploaded and polled until the file reports ready, with a
// hard bound so a stuck provider surfaces as TIMEOUT instead of an
// execution that never ends.
type Gemini struct {
	client *genai.Client
	files  fileService
	model  string

	pollInterval time.Duration
	maxPolls     int
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &Gemini{
		client:       client,
		files:        client.Files,
		model:        model,
		pollInterval: time.Second,
		maxPolls:     60,
	}, nil
}

func (g *Gemini) Close() error { return nil }

func (g *Gemini) AnalyzeAudio(ctx context.Context, audio []byte, mimeType, prompt string) (string, error) {
	const op = "Gemini.AnalyzeAudio"

	var audioPart *genai.Part
	if len(audio) > inlineAudioLimit {
		file, err := g.uploadAndWait(ctx, audio, mimeType)
		if err != nil {
			return "", err
		}
		defer func() {
			_, _ = g.files.Delete(ctx, file.Name, nil)
		}()
		audioPart = genai.NewPartFromURI(file.URI, file.MIMEType)
	} else {
		audioPart = genai.NewPartFromBytes(audio, mimeType)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			audioPart,
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.5),
	})
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "generate content", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", utils.E(utils.CodeInternal, op, "empty response text", nil)
	}
	return text, nil
}

// uploadAndWait pushes the audio to the Files API and polls at a fixed
// interval until the file leaves PROCESSING. The poll is bounded: running
// out of attempts is a provider timeout, not an infinite loop.
func (g *Gemini) uploadAndWait(ctx context.Context, audio []byte, mimeType string) (*genai.File, error) {
	const op = "Gemini.uploadAndWait"

	file, err := g.files.Upload(ctx, bytes.NewReader(audio), &genai.UploadFileConfig{
		MIMEType: mimeType,
	})
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "upload audio", err)
	}

	for i := 0; i < g.maxPolls; i++ {
		switch file.State {
		case genai.FileStateActive:
			return file, nil
		case genai.FileStateFailed:
			return nil, utils.E(utils.CodeUnavailable, op, "audio processing failed on provider side", nil)
		}

		select {
		case <-ctx.Done():
			return nil, utils.E(utils.CodeTimeout, op, "canceled while waiting for file readiness", ctx.Err())
		case <-time.After(g.pollInterval):
		}

		file, err = g.files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, utils.E(utils.CodeUnavailable, op, "poll file state", err)
		}
	}

	return nil, utils.E(utils.CodeTimeout, op, "provider timeout waiting for file readiness", nil)
}
