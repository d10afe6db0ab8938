package db

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"arguebank/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on top of two collections: rounds and messages.
type MongoStore struct {
	client   *mongo.Client
	rounds   *mongo.Collection
	messages *mongo.Collection
}

// extractDBName parses the database name from the URI, defaulting to "arguebank"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "arguebank"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // Trim leading '/'
	}
	return "arguebank"
}

// ConnectMongo establishes a connection to MongoDB using the provided URI
func ConnectMongo(uri string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	log.Printf("Using database: %s", dbName)

	database := client.Database(dbName)
	return &MongoStore{
		client:   client,
		rounds:   database.Collection("rounds"),
		messages: database.Collection("messages"),
	}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func parseRoundID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

func (s *MongoStore) CreateRound(ctx context.Context, belief, shortDesc string) (*models.Round, error) {
	round := &models.Round{
		ID:        primitive.NewObjectID(),
		Belief:    belief,
		ShortDesc: shortDesc,
		Completed: false,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.rounds.InsertOne(ctx, round); err != nil {
		return nil, fmt.Errorf("%w: insert round: %v", ErrUnavailable, err)
	}
	return round, nil
}

func (s *MongoStore) GetRound(ctx context.Context, id string) (*models.Round, error) {
	oid, err := parseRoundID(id)
	if err != nil {
		return nil, err
	}
	var round models.Round
	err = s.rounds.FindOne(ctx, bson.M{"_id": oid}).Decode(&round)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find round: %v", ErrUnavailable, err)
	}
	return &round, nil
}

func (s *MongoStore) LatestRound(ctx context.Context) (*models.Round, error) {
	opts := options.FindOne().SetSort(bson.M{"createdAt": -1})
	var round models.Round
	err := s.rounds.FindOne(ctx, bson.M{}, opts).Decode(&round)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoRounds
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find latest round: %v", ErrUnavailable, err)
	}
	return &round, nil
}

func (s *MongoStore) MarkCompleted(ctx context.Context, id string) error {
	oid, err := parseRoundID(id)
	if err != nil {
		return err
	}
	res, err := s.rounds.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"completed": true}})
	if err != nil {
		return fmt.Errorf("%w: mark completed: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("%w: insert message: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *MongoStore) ListMessages(ctx context.Context, roundID string) ([]models.ChatMessage, error) {
	oid, err := parseRoundID(roundID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := s.messages.Find(ctx, bson.M{"roundId": oid}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("%w: decode messages: %v", ErrUnavailable, err)
	}
	return messages, nil
}

func (s *MongoStore) CountMessages(ctx context.Context, roundID string) (int64, error) {
	oid, err := parseRoundID(roundID)
	if err != nil {
		return 0, err
	}
	count, err := s.messages.CountDocuments(ctx, bson.M{"roundId": oid})
	if err != nil {
		return 0, fmt.Errorf("%w: count messages: %v", ErrUnavailable, err)
	}
	return count, nil
}

func (s *MongoStore) SumCost(ctx context.Context, roundID string) (int64, error) {
	oid, err := parseRoundID(roundID)
	if err != nil {
		return 0, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"roundId": oid}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$cost"}}}},
	}
	cursor, err := s.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("%w: sum cost: %v", ErrUnavailable, err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("%w: decode cost sum: %v", ErrUnavailable, err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
