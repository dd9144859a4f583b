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

// MatchRepository implements the repositories.MatchRepository interface
type MatchRepository struct {
	collection *mongo.Collection
	archive    *mongo.Collection
}

// NewMatchRepository creates a new MatchRepository
func NewMatchRepository(db *mongo.Database) repositories.MatchRepository {
	return &MatchRepository{
		collection: db.Collection("matches"),
		archive:    db.Collection("matches_archive"),
	}
}

// UpsertByExternalID creates or refreshes a match keyed by (league, externalId).
// Score, status and timing fields are refreshed on every normalizer pass; the
// finalization state is only set on insert so the selection/settlement owners
// keep control of it afterwards.
func (r *MatchRepository) UpsertByExternalID(ctx context.Context, match *models.Match) error {
	now := time.Now()
	filter := bson.M{"league": match.League, "externalId": match.ExternalID}
	update := bson.M{
		"$set": bson.M{
			"homeTeam":  match.HomeTeam,
			"awayTeam":  match.AwayTeam,
			"startTime": match.StartTime,
			"venue":     match.Venue,
			"status":    match.Status,
			"homeScore": match.HomeScore,
			"awayScore": match.AwayScore,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"league":     match.League,
			"externalId": match.ExternalID,
			"state":      models.StateUpcoming,
			"createdAt":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	return r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(match)
}

// FindByID finds a match by ID
func (r *MatchRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Match, error) {
	var match models.Match
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&match)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// FindByIDs finds all matches whose id is in the given set
func (r *MatchRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Match, error) {
	if len(ids) == 0 {
		return []*models.Match{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []*models.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	return matches, nil
}

// FindByLeague finds all cached matches for a league
func (r *MatchRepository) FindByLeague(ctx context.Context, league string) ([]*models.Match, error) {
	opts := options.Find().SetSort(bson.M{"startTime": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"league": league}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []*models.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	return matches, nil
}

// FindUpcomingByLeague finds not-yet-started matches within a start-time range
func (r *MatchRepository) FindUpcomingByLeague(ctx context.Context, league string, from, to time.Time) ([]*models.Match, error) {
	filter := bson.M{
		"league":    league,
		"status":    models.MatchStatusScheduled,
		"startTime": bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.M{"startTime": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []*models.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	return matches, nil
}

// FindByState finds matches in a given finalization state
func (r *MatchRepository) FindByState(ctx context.Context, state models.FinalizationState) ([]*models.Match, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"state": state})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []*models.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	return matches, nil
}

// UpdateState moves a match to a new finalization state
func (r *MatchRepository) UpdateState(ctx context.Context, id primitive.ObjectID, state models.FinalizationState) error {
	update := bson.M{"$set": bson.M{"state": state, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// UpdateResult writes the final score and status for a match
func (r *MatchRepository) UpdateResult(ctx context.Context, id primitive.ObjectID, homeScore, awayScore int, status models.MatchStatus) error {
	update := bson.M{"$set": bson.M{
		"homeScore": homeScore,
		"awayScore": awayScore,
		"status":    status,
		"updatedAt": time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// Archive copies the match into the append-only archive collection. The copy
// keeps the original id so purchases and raffles still resolve against it.
func (r *MatchRepository) Archive(ctx context.Context, match *models.Match) error {
	match.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := r.archive.ReplaceOne(ctx, bson.M{"_id": match.ID}, match, opts)
	return err
}

// FindArchivedByLeague lists archived matches for the historical view
func (r *MatchRepository) FindArchivedByLeague(ctx context.Context, league string, page, limit int) ([]*models.Match, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"startTime": -1})

	cursor, err := r.archive.Find(ctx, bson.M{"league": league}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []*models.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	return matches, nil
}
