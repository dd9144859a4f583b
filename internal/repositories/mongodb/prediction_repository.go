package mongodb

import (
	"context"
	"time"

	"github.com/sportpicks/sportpicks-backend/internal/models"
	"github.com/sportpicks/sportpicks-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PredictionRepository implements the repositories.PredictionRepository interface
type PredictionRepository struct {
	collection *mongo.Collection
}

// NewPredictionRepository creates a new PredictionRepository
func NewPredictionRepository(db *mongo.Database) repositories.PredictionRepository {
	return &PredictionRepository{
		collection: db.Collection("predictions"),
	}
}

// Create inserts a prediction. The unique index on matchId rejects a second
// record for the same match even if two generators race past the existence check.
func (r *PredictionRepository) Create(ctx context.Context, prediction *models.Prediction) error {
	prediction.CreatedAt = time.Now()
	prediction.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, prediction)
	if err != nil {
		return err
	}
	prediction.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByMatchID finds the prediction for a match
func (r *PredictionRepository) FindByMatchID(ctx context.Context, matchID primitive.ObjectID) (*models.Prediction, error) {
	var prediction models.Prediction
	err := r.collection.FindOne(ctx, bson.M{"matchId": matchID}).Decode(&prediction)
	if err != nil {
		return nil, err
	}
	return &prediction, nil
}

// ExistsByMatchID reports whether a prediction already exists for a match
func (r *PredictionRepository) ExistsByMatchID(ctx context.Context, matchID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"matchId": matchID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindUnresolved finds predictions whose actual result has not been written yet
func (r *PredictionRepository) FindUnresolved(ctx context.Context) ([]*models.Prediction, error) {
	filter := bson.M{"actualWinner": bson.M{"$exists": false}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var predictions []*models.Prediction
	if err := cursor.All(ctx, &predictions); err != nil {
		return nil, err
	}
	if predictions == nil {
		predictions = []*models.Prediction{}
	}
	return predictions, nil
}

// SetResult writes the actual outcome once. The filter requires actualWinner
// to be absent, so a concurrent or repeated reconcile pass matches zero
// documents and is reported as repositories.ErrResultAlreadySet instead of
// overwriting.
func (r *PredictionRepository) SetResult(ctx context.Context, matchID primitive.ObjectID, actualWinner string, homeScore, awayScore int, isCorrect bool, finalizedAt time.Time) error {
	filter := bson.M{
		"matchId":      matchID,
		"actualWinner": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"actualWinner":    actualWinner,
		"actualHomeScore": homeScore,
		"actualAwayScore": awayScore,
		"isCorrect":       isCorrect,
		"finalizedAt":     finalizedAt,
		"updatedAt":       time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrResultAlreadySet
	}
	return nil
}
