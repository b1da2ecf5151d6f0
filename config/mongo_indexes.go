package config

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureMongoIndexes creates the sessions collection indexes:
//
//  1. a unique index on session_id — the record store is keyed by it;
//  2. a TTL index on expire_at — the external garbage collector for the
//     advisory 24h expiry hint written at initiation. No application code
//     enforces expiry; Mongo reaps the record when the date passes.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sessions := db.Collection("sessions")
	_, err := sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_session_id").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expire_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_expire_at").
				SetExpireAfterSeconds(0),
		},
	})
	return err
}
