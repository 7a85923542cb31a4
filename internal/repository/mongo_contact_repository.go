package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const contactCollection = "contact_messages"

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// MongoContactRepository keeps contact messages as documents instead of SQL rows.
type MongoContactRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoContactRepository(db *mongo.Database) *MongoContactRepository {
	return &MongoContactRepository{collection: db.Collection(contactCollection), now: time.Now}
}

// EnsureIndexes creates the your_name index used by ExistsByName.
func (m *MongoContactRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "your_name", Value: 1}},
	})
	if err != nil {
		return storeErr("failed to create contact index", err)
	}
	return nil
}

func (m *MongoContactRepository) Create(ctx context.Context, msg *domain.ContactMessage) error {
	msg.ID = uuid.NewString()
	msg.CreatedAt = m.now().UTC()

	if _, err := m.collection.InsertOne(ctx, msg); err != nil {
		msg.ID = ""
		return storeErr("failed to insert contact message", err)
	}
	return nil
}

func (m *MongoContactRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{"your_name": name}, options.Count().SetLimit(1))
	if err != nil {
		return false, storeErr("failed to count contact messages", err)
	}
	return n > 0, nil
}

func (m *MongoContactRepository) Close(ctx context.Context) error {
	return m.collection.Database().Client().Disconnect(ctx)
}
