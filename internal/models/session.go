package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the session lifecycle state. Transitions are forward-only,
// except that ERROR is reachable from any state.
type Status string

const (
	StatusPendingUpload Status = "PENDING_UPLOAD"
	StatusProcessing    Status = "PROCESSING"
	StatusCompleted     Status = "COMPLETED"
	StatusError         Status = "ERROR"
)

// ErrorInaudible is the sentinel the model returns when the audio carries
// no usable speech. It is recorded verbatim as the session's error_message.
const ErrorInaudible = "AUDIO_INAUDIVEL"

// CanTransition reports whether from -> to is an allowed lifecycle move.
// PROCESSING -> PROCESSING is permitted so an orchestrator retry can
// re-mark progress idempotently.
func CanTransition(from, to Status) bool {
	if to == StatusError {
		return true
	}
	switch from {
	case StatusPendingUpload:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusProcessing || to == StatusCompleted
	default:
		return false
	}
}

// AllowedFrom returns the set of states a record may be in for a guarded
// update to the given target status.
func AllowedFrom(to Status) []Status {
	switch to {
	case StatusProcessing:
		return []Status{StatusPendingUpload, StatusProcessing}
	case StatusCompleted:
		return []Status{StatusProcessing}
	case StatusError:
		return []Status{StatusPendingUpload, StatusProcessing, StatusCompleted, StatusError}
	default:
		return nil
	}
}

// Session is one candidate's single-question interview attempt, tracked
// through upload, processing, and result stages. session_id is the sole
// join key between the object store, the record store, and the workflow
// execution name; it never changes after creation.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4

	Status        Status `bson:"status" json:"status"`
	CandidateName string `bson:"candidate_name" json:"candidate_name"`
	QuestionID    string `bson:"question_id" json:"question_id"`
	JobDesc       string `bson:"job_description" json:"job_description"`

	// Object key, always uploads/{session_id}/audio.mp3. The second path
	// segment being the session id is a contract the upload trigger
	// depends on.
	S3Key string `bson:"s3_key" json:"s3_key"`

	// Advisory expiry hint. Stored as a date so the Mongo TTL index can
	// garbage-collect stale records; nothing else reads it.
	ExpireAt time.Time `bson:"expire_at" json:"expire_at"`

	// Exactly one of AIFeedback / ErrorMessage is set on a terminal record.
	AIFeedback   *Feedback `bson:"ai_feedback,omitempty" json:"ai_feedback,omitempty"`
	ErrorMessage string    `bson:"error_message,omitempty" json:"error_message,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// Feedback is the structured evaluation the model returns for an audible
// answer.
type Feedback struct {
	TechnicalScore   int      `bson:"technical_score" json:"technical_score"`
	ClarityScore     int      `bson:"clarity_score" json:"clarity_score"`
	Summary          string   `bson:"summary" json:"summary"`
	Strengths        []string `bson:"strengths" json:"strengths"`
	Weaknesses       []string `bson:"weaknesses" json:"weaknesses"`
	Feedback         string   `bson:"feedback" json:"feedback"`
	FollowUpQuestion string   `bson:"follow_up_question" json:"follow_up_question"`
	Transcription    string   `bson:"transcription,omitempty" json:"transcription,omitempty"`
}
