package workers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/darkruden/mock-interview-ai/internal/logger"
	"github.com/darkruden/mock-interview-ai/internal/models"
	"github.com/darkruden/mock-interview-ai/internal/providers/llm"
	postgresrepo "github.com/darkruden/mock-interview-ai/internal/repositories/postgres"
	"github.com/darkruden/mock-interview-ai/internal/services"
	"github.com/darkruden/mock-interview-ai/internal/storage"
	"github.com/darkruden/mock-interview-ai/internal/utils"
)

// ProcessInput is one workflow execution's payload. All three fields are
// required; a missing field is a contract violation, never retried.
type ProcessInput struct {
	SessionID string `json:"session_id"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
}

// ProcessResult is returned on any run that did not crash, including the
// business-error path (inaudible audio): the pipeline itself completed.
type ProcessResult struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// Processor runs the audio-to-feedback pipeline for one session. All
// collaborators are injected; the struct holds no mutable state, so one
// Processor serves any number of concurrent executions.
type Processor struct {
	Sessions  services.SessionService
	Questions postgresrepo.QuestionRepository // optional
	Store     storage.Downloader
	LLM       llm.Provider
	Logger    *logrus.Logger

	// ScratchDir holds per-session download files; defaults to the OS
	// temp dir.
	ScratchDir string
}

// Process executes the full pipeline. A nil error means the session record
// is in a terminal state (COMPLETED, or ERROR for a model-reported
// business failure). A non-nil error is a system failure: the record is
// left in PROCESSING and the orchestrator decides on retry via
// utils.Retryable.
func (p *Processor) Process(ctx context.Context, in ProcessInput) (*ProcessResult, error) {
	const op = "Processor.Process"

	if in.SessionID == "" || in.Bucket == "" || in.Key == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id, bucket, and key are required", nil)
	}

	log := logger.WithSession(p.Logger, in.SessionID).WithField("key", in.Key)

	// Context fetch. A missing or unreadable record is tolerated: the
	// upload is still processed, just without job-description context.
	jobDescription := ""
	questionID := ""
	if sess, err := p.Sessions.Get(ctx, in.SessionID); err != nil {
		log.WithError(err).Warn("session record unavailable, processing without context")
	} else {
		jobDescription = sess.JobDesc
		questionID = sess.QuestionID
	}

	if err := p.Sessions.Transition(ctx, in.SessionID, models.StatusProcessing, ""); err != nil {
		if utils.IsCode(err, utils.CodeConflict) {
			// Already terminal: a stale redelivery raced a finished run.
			// Reprocessing would overwrite a durable result.
			log.Warn("session already terminal, skipping duplicate execution")
			return &ProcessResult{Status: "COMPLETED", SessionID: in.SessionID}, nil
		}
		return nil, err
	}

	scratch := p.scratchPath(in.SessionID, in.Key)
	defer func() {
		if err := os.Remove(scratch); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warn("failed to remove scratch audio file")
		}
	}()

	if err := p.Store.DownloadToFile(ctx, in.Bucket, in.Key, scratch); err != nil {
		// Record stays PROCESSING: the orchestrator's bounded retry may
		// still succeed, and a false terminal state is worse than a
		// transiently stale one.
		return nil, err
	}

	audio, err := os.ReadFile(scratch)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "read scratch audio", err)
	}

	prompt := buildPrompt(p.questionText(ctx, questionID), jobDescription)

	log.WithField("audio_bytes", len(audio)).Info("invoking inference")
	raw, err := p.LLM.AnalyzeAudio(ctx, audio, mimeTypeForKey(in.Key), prompt)
	if err != nil {
		return nil, err
	}

	cleaned := stripCodeFence(raw)

	var sentinel struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(cleaned), &sentinel); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "model response is not a valid JSON object", err)
	}

	if sentinel.Error != "" {
		// Business outcome, not a system failure: record it and report
		// the pipeline as completed so nothing retries.
		log.WithField("error_message", sentinel.Error).Info("model reported business error")
		if err := p.Sessions.Fail(ctx, in.SessionID, sentinel.Error); err != nil {
			return nil, err
		}
		return &ProcessResult{Status: "COMPLETED", SessionID: in.SessionID}, nil
	}

	var fb models.Feedback
	if err := json.Unmarshal([]byte(cleaned), &fb); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "model response does not match the feedback schema", err)
	}

	if err := p.Sessions.Complete(ctx, in.SessionID, &fb); err != nil {
		return nil, err
	}

	log.WithField("technical_score", fb.TechnicalScore).Info("session completed")
	return &ProcessResult{Status: "COMPLETED", SessionID: in.SessionID}, nil
}

// scratchPath is deterministic per session so concurrent executions of
// different sessions never collide, and a retried execution of the same
// session reuses (and overwrites) its own slot.
func (p *Processor) scratchPath(sessionID, key string) string {
	dir := p.ScratchDir
	if dir == "" {
		dir = os.TempDir()
	}
	ext := filepath.Ext(key)
	if ext == "" {
		ext = ".mp3"
	}
	return filepath.Join(dir, "interview-"+sessionID+ext)
}

func (p *Processor) questionText(ctx context.Context, questionID string) string {
	if p.Questions == nil || questionID == "" {
		return ""
	}
	q, err := p.Questions.GetByID(ctx, questionID)
	if err != nil {
		// Degrade to a context-free prompt; the bank is an enrichment,
		// not a dependency.
		return ""
	}
	return q.Text
}

func mimeTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	default:
		return "audio/mp3"
	}
}

// stripCodeFence removes markdown fencing some model responses wrap
// around the JSON object.
func stripCodeFence(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
