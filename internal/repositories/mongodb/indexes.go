package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes the idempotency invariants depend
// on. Called once at startup; index creation is itself idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	specs := map[string][]mongo.IndexModel{
		"matches": {
			{Keys: bson.D{{Key: "league", Value: 1}, {Key: "externalId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "league", Value: 1}, {Key: "startTime", Value: 1}}},
			{Keys: bson.D{{Key: "state", Value: 1}}},
		},
		"selection_cycles": {
			{Keys: bson.D{{Key: "league", Value: 1}, {Key: "cycleDate", Value: 1}}, Options: unique},
		},
		"predictions": {
			{Keys: bson.D{{Key: "matchId", Value: 1}}, Options: unique},
		},
		"purchases": {
			{Keys: bson.D{{Key: "matchId", Value: 1}, {Key: "buyerAddress", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "buyerAddress", Value: 1}}},
		},
		"raffles": {
			{Keys: bson.D{{Key: "matchId", Value: 1}}, Options: unique},
		},
		"operators": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
