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

// RaffleRepository implements the repositories.RaffleRepository interface
type RaffleRepository struct {
	collection *mongo.Collection
}

// NewRaffleRepository creates a new RaffleRepository
func NewRaffleRepository(db *mongo.Database) repositories.RaffleRepository {
	return &RaffleRepository{
		collection: db.Collection("raffles"),
	}
}

// Create inserts a raffle record. The unique index on matchId closes the race
// between two near-simultaneous settlement triggers: the second insert fails
// and the draw is never re-run.
func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	raffle.CreatedAt = time.Now()
	raffle.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, raffle)
	if err != nil {
		return err
	}
	raffle.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByMatchID finds the raffle for a match
func (r *RaffleRepository) FindByMatchID(ctx context.Context, matchID primitive.ObjectID) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.collection.FindOne(ctx, bson.M{"matchId": matchID}).Decode(&raffle)
	if err != nil {
		return nil, err
	}
	return &raffle, nil
}

// ExistsByMatchID reports whether a raffle was already drawn for a match
func (r *RaffleRepository) ExistsByMatchID(ctx context.Context, matchID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"matchId": matchID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists raffles with pagination, newest first
func (r *RaffleRepository) FindAll(ctx context.Context, page, limit int) ([]*models.Raffle, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"drawnAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raffles []*models.Raffle
	if err := cursor.All(ctx, &raffles); err != nil {
		return nil, err
	}
	if raffles == nil {
		raffles = []*models.Raffle{}
	}
	return raffles, nil
}

// Count counts all raffles
func (r *RaffleRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// UpdatePayout records the outcome of a payout attempt for an existing raffle
func (r *RaffleRepository) UpdatePayout(ctx context.Context, matchID primitive.ObjectID, status models.PayoutStatus, payoutRef string) error {
	update := bson.M{"$set": bson.M{
		"payoutStatus": status,
		"payoutRef":    payoutRef,
		"updatedAt":    time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"matchId": matchID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetResult back-fills the actual match outcome once, same guard as predictions
func (r *RaffleRepository) SetResult(ctx context.Context, matchID primitive.ObjectID, actualWinner string, homeScore, awayScore int, correct bool) error {
	filter := bson.M{
		"matchId":      matchID,
		"actualWinner": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"actualWinner":      actualWinner,
		"actualHomeScore":   homeScore,
		"actualAwayScore":   awayScore,
		"predictionCorrect": correct,
		"updatedAt":         time.Now(),
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
