package cartstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/cart"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

// sessionDoc is the persisted shape: one document per guest session.
type sessionDoc struct {
	SessionID  string            `bson:"session_id"`
	Items      []domain.LineItem `bson:"items"`
	BoundVenue string            `bson:"bound_venue"`
	Note       string            `bson:"note"`
	CreatedAt  time.Time         `bson:"created_at"`
	UpdatedAt  time.Time         `bson:"updated_at"`
}

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection("cart_sessions"),
	}
}

func (m *MongoStore) Load(ctx context.Context, sessionID string) (*domain.CartState, error) {
	var doc sessionDoc

	filter := bson.M{"session_id": sessionID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cart.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to load cart state: %w", err)
	}

	return &domain.CartState{
		SessionID:  doc.SessionID,
		Items:      doc.Items,
		BoundVenue: doc.BoundVenue,
		Note:       doc.Note,
	}, nil
}

func (m *MongoStore) Save(ctx context.Context, state *domain.CartState) error {
	now := time.Now()

	filter := bson.M{"session_id": state.SessionID}
	update := bson.M{
		"$set": bson.M{
			"items":       state.Items,
			"bound_venue": state.BoundVenue,
			"note":        state.Note,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"session_id": state.SessionID,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save cart state: %w", err)
	}

	return nil
}

func (m *MongoStore) Delete(ctx context.Context, sessionID string) error {
	filter := bson.M{"session_id": sessionID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart state: %w", err)
	}

	if result.DeletedCount == 0 {
		return cart.ErrStateNotFound
	}

	return nil
}

// CreateIndexes sets up the unique session index and an abandonment
// TTL: carts untouched for a week are dropped server-side.
func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7 * 24 * 60 * 60),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
