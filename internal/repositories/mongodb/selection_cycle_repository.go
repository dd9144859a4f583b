package mongodb

import (
	"context"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/models"
	"github.com/sportpicks/sportpicks-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SelectionCycleRepository implements the repositories.SelectionCycleRepository interface
type SelectionCycleRepository struct {
	collection *mongo.Collection
}

// NewSelectionCycleRepository creates a new SelectionCycleRepository
func NewSelectionCycleRepository(db *mongo.Database) repositories.SelectionCycleRepository {
	return &SelectionCycleRepository{
		collection: db.Collection("selection_cycles"),
	}
}

// FindByLeagueAndDate finds the cycle for a league's selection day
func (r *SelectionCycleRepository) FindByLeagueAndDate(ctx context.Context, league string, cycleDate time.Time) (*models.SelectionCycle, error) {
	var cycle models.SelectionCycle
	filter := bson.M{"league": league, "cycleDate": cycleDate}
	err := r.collection.FindOne(ctx, filter).Decode(&cycle)
	if err != nil {
		return nil, err // mongo.ErrNoDocuments when absent
	}
	return &cycle, nil
}

// FindByLeague finds all cycles ever locked for a league, newest first
func (r *SelectionCycleRepository) FindByLeague(ctx context.Context, league string) ([]*models.SelectionCycle, error) {
	opts := options.Find().SetSort(bson.M{"cycleDate": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"league": league}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var cycles []*models.SelectionCycle
	if err := cursor.All(ctx, &cycles); err != nil {
		return nil, err
	}
	if cycles == nil {
		cycles = []*models.SelectionCycle{}
	}
	return cycles, nil
}

// AppendMatchIDs merges ids into the cycle's locked set atomically. $addToSet
// makes concurrent invocations for the same (league, cycleDate) commutative:
// the set only ever grows, never shrinks and never holds duplicates, so the
// selection job stays idempotent without application-level locking.
func (r *SelectionCycleRepository) AppendMatchIDs(ctx context.Context, league string, cycleDate time.Time, ids []primitive.ObjectID) (*models.SelectionCycle, error) {
	now := time.Now()
	filter := bson.M{"league": league, "cycleDate": cycleDate}
	update := bson.M{
		"$addToSet": bson.M{"matchIds": bson.M{"$each": ids}},
		"$set":      bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{
			"league":    league,
			"cycleDate": cycleDate,
			"lockedAt":  now,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var cycle models.SelectionCycle
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cycle); err != nil {
		return nil, err
	}
	return &cycle, nil
}
