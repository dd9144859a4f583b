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

// PurchaseRepository implements the repositories.PurchaseRepository interface
type PurchaseRepository struct {
	collection *mongo.Collection
}

// NewPurchaseRepository creates a new PurchaseRepository
func NewPurchaseRepository(db *mongo.Database) repositories.PurchaseRepository {
	return &PurchaseRepository{
		collection: db.Collection("purchases"),
	}
}

// Create inserts a purchase. The unique compound index on
// (matchId, buyerAddress) is the real duplicate guard; the service-level
// existence check only exists to produce a friendlier conflict error.
func (r *PurchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	purchase.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, purchase)
	if err != nil {
		return err
	}
	purchase.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ExistsByMatchAndBuyer reports whether the buyer already purchased this match
func (r *PurchaseRepository) ExistsByMatchAndBuyer(ctx context.Context, matchID primitive.ObjectID, buyer string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"matchId": matchID, "buyerAddress": buyer})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByMatchID finds all purchases for a match
func (r *PurchaseRepository) FindByMatchID(ctx context.Context, matchID primitive.ObjectID) ([]*models.Purchase, error) {
	return r.find(ctx, bson.M{"matchId": matchID})
}

// Find lists purchases filtered by match id and/or buyer address
func (r *PurchaseRepository) Find(ctx context.Context, matchID *primitive.ObjectID, buyer string) ([]*models.Purchase, error) {
	filter := bson.M{}
	if matchID != nil {
		filter["matchId"] = *matchID
	}
	if buyer != "" {
		filter["buyerAddress"] = buyer
	}
	return r.find(ctx, filter)
}

func (r *PurchaseRepository) find(ctx context.Context, filter bson.M) ([]*models.Purchase, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var purchases []*models.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, err
	}
	if purchases == nil {
		purchases = []*models.Purchase{}
	}
	return purchases, nil
}

// CountByMatchID counts purchases for a match
func (r *PurchaseRepository) CountByMatchID(ctx context.Context, matchID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"matchId": matchID})
}

// DistinctBuyers lists the distinct buyer addresses for a match
func (r *PurchaseRepository) DistinctBuyers(ctx context.Context, matchID primitive.ObjectID) ([]string, error) {
	raw, err := r.collection.Distinct(ctx, "buyerAddress", bson.M{"matchId": matchID})
	if err != nil {
		return nil, err
	}
	buyers := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			buyers = append(buyers, s)
		}
	}
	return buyers, nil
}

// MatchIDsWithPurchases lists the distinct match ids that have at least one purchase
func (r *PurchaseRepository) MatchIDsWithPurchases(ctx context.Context) ([]primitive.ObjectID, error) {
	raw, err := r.collection.Distinct(ctx, "matchId", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
