package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/darkruden/mock-interview-ai/internal/events"
	"github.com/darkruden/mock-interview-ai/internal/models"
	mongorepo "github.com/darkruden/mock-interview-ai/internal/repositories/mongo"
	"github.com/darkruden/mock-interview-ai/internal/storage"
	"github.com/darkruden/mock-interview-ai/internal/utils"
)

// Hard cap, in runes, applied silently to job_description at initiation.
const maxJobDescription = 5000

const (
	uploadURLTTL = 5 * time.Minute
	sessionTTL   = 24 * time.Hour
)

type InitiateInput struct {
	CandidateName  string
	QuestionID     string
	JobDescription string
}

type InitiatedSession struct {
	SessionID string `json:"session_id"`
	UploadURL string `json:"upload_url"`
}

type SessionService interface {
	// Initiate creates a PENDING_UPLOAD record and returns the signed PUT
	// URL for the client's direct upload.
	Initiate(ctx context.Context, in InitiateInput) (*InitiatedSession, error)

	Get(ctx context.Context, sessionID string) (*models.Session, error)

	// Transition moves the session to status, enforcing the allowed
	// transition table. errorMessage is recorded only for StatusError.
	// Every status writer in the system goes through here.
	Transition(ctx context.Context, sessionID string, status models.Status, errorMessage string) error

	// Complete records the terminal feedback in one atomic update.
	Complete(ctx context.Context, sessionID string, fb *models.Feedback) error

	// Fail records a terminal business or exhaustion error.
	Fail(ctx context.Context, sessionID, errorMessage string) error
}

type sessionService struct {
	sessions  mongorepo.SessionRepository
	signer    storage.Signer
	publisher events.Publisher // optional
}

func NewSessionService(sessions mongorepo.SessionRepository, signer storage.Signer, publisher events.Publisher) SessionService {
	return &sessionService{sessions: sessions, signer: signer, publisher: publisher}
}

func (s *sessionService) Initiate(ctx context.Context, in InitiateInput) (*InitiatedSession, error) {
	const op = "SessionService.Initiate"

	if in.CandidateName == "" {
		in.CandidateName = "Anonymous"
	}
	if in.QuestionID == "" {
		in.QuestionID = "Q1"
	}
	in.JobDescription = truncateRunes(in.JobDescription, maxJobDescription)

	now := time.Now().UTC()
	sessionID := uuid.NewString()
	objectKey := fmt.Sprintf("uploads/%s/audio.mp3", sessionID)

	session := &models.Session{
		SessionID:     sessionID,
		Status:        models.StatusPendingUpload,
		CandidateName: in.CandidateName,
		QuestionID:    in.QuestionID,
		JobDesc:       in.JobDescription,
		S3Key:         objectKey,
		ExpireAt:      now.Add(sessionTTL),
		CreatedAt:     now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}

	uploadURL, err := s.signer.SignedPutURL(ctx, objectKey, "audio/mpeg", uploadURLTTL)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to sign upload url", err)
	}

	return &InitiatedSession{SessionID: sessionID, UploadURL: uploadURL}, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *sessionService) Transition(ctx context.Context, sessionID string, status models.Status, errorMessage string) error {
	const op = "SessionService.Transition"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if len(models.AllowedFrom(status)) == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "no transition leads to status "+string(status), nil)
	}
	if status != models.StatusError {
		errorMessage = ""
	}

	if err := s.sessions.SetStatus(ctx, sessionID, status, errorMessage); err != nil {
		if errors.Is(err, mongorepo.ErrStaleTransition) {
			return utils.E(utils.CodeConflict, op, "session not in an allowed state for "+string(status), err)
		}
		return utils.E(utils.CodeUnavailable, op, "failed to update status", err)
	}

	s.notify(ctx, sessionID, status, errorMessage)
	return nil
}

func (s *sessionService) Complete(ctx context.Context, sessionID string, fb *models.Feedback) error {
	const op = "SessionService.Complete"

	if sessionID == "" || fb == nil {
		return utils.E(utils.CodeInvalidArgument, op, "session_id and feedback are required", nil)
	}

	if err := s.sessions.Complete(ctx, sessionID, fb); err != nil {
		if errors.Is(err, mongorepo.ErrStaleTransition) {
			return utils.E(utils.CodeConflict, op, "session not in PROCESSING", err)
		}
		return utils.E(utils.CodeUnavailable, op, "failed to record feedback", err)
	}

	s.notify(ctx, sessionID, models.StatusCompleted, "")
	return nil
}

func (s *sessionService) Fail(ctx context.Context, sessionID, errorMessage string) error {
	return s.Transition(ctx, sessionID, models.StatusError, errorMessage)
}

// truncateRunes caps s at max runes, never splitting a multi-byte
// character mid-sequence.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func (s *sessionService) notify(ctx context.Context, sessionID string, status models.Status, errorMessage string) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.PublishStatus(ctx, events.StatusEvent{
		SessionID:    sessionID,
		Status:       status,
		ErrorMessage: errorMessage,
	})
}
