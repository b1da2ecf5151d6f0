package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/darkruden/mock-interview-ai/internal/models"
	"github.com/darkruden/mock-interview-ai/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStaleTransition is returned when a guarded status update matched no
// record in an allowed source state (the record exists but has already
// moved on).
var ErrStaleTransition = errors.New("session not in an allowed source state")

type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error)

	// SetStatus performs a guarded, field-level partial update: the record
	// must currently be in one of the states allowed for the target status.
	// A missing record is upserted so orphan uploads still have somewhere
	// to land. errorMessage, when non-empty, is written alongside the
	// status and ai_feedback is unset.
	SetStatus(ctx context.Context, sessionID string, to models.Status, errorMessage string) error

	// Complete atomically writes status, ai_feedback, and updated_at, and
	// unsets error_message. Guarded like SetStatus.
	Complete(ctx context.Context, sessionID string, fb *models.Feedback) error
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func statusFilter(sessionID string, to models.Status) bson.M {
	return bson.M{
		"session_id": sessionID,
		"$or": bson.A{
			bson.M{"status": bson.M{"$in": models.AllowedFrom(to)}},
			bson.M{"status": bson.M{"$exists": false}}, // upserted orphan
		},
	}
}

func (r *sessionRepo) SetStatus(ctx context.Context, sessionID string, to models.Status, errorMessage string) error {
	set := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if errorMessage != "" {
		set["error_message"] = errorMessage
		update["$unset"] = bson.M{"ai_feedback": ""}
	}

	res, err := r.col.UpdateOne(ctx, statusFilter(sessionID, to), update,
		options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Upsert raced the guard: the record exists in a disallowed state.
			return ErrStaleTransition
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrStaleTransition
	}
	return nil
}

func (r *sessionRepo) Complete(ctx context.Context, sessionID string, fb *models.Feedback) error {
	update := bson.M{
		"$set": bson.M{
			"status":      models.StatusCompleted,
			"ai_feedback": fb,
			"updated_at":  time.Now().UTC(),
		},
		"$unset": bson.M{"error_message": ""},
	}

	res, err := r.col.UpdateOne(ctx, statusFilter(sessionID, models.StatusCompleted), update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStaleTransition
	}
	return nil
}
