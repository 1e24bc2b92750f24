package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"stockroom/internal/core"
)

const (
	mongoUsersCollection    = "users"
	mongoCountersCollection = "counters"
)

type mongoUserDocument struct {
	ID           int64     `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	IsStaff      bool      `bson:"is_staff"`
	IsSuperuser  bool      `bson:"is_superuser"`
	DateJoined   time.Time `bson:"date_joined"`
}

func (d mongoUserDocument) toUser() *core.User {
	return &core.User{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		IsStaff:      d.IsStaff,
		IsSuperuser:  d.IsSuperuser,
		DateJoined:   d.DateJoined.UTC(),
	}
}

// MongoDBStore stores users in MongoDB, sharing the id counters collection
// with the item store.
type MongoDBStore struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMongoDBStore creates the unique username index if needed.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}

	coll := database.Collection(mongoUsersCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("create users index: %w", err)
	}

	return &MongoDBStore{
		collection: coll,
		counters:   database.Collection(mongoCountersCollection),
	}, nil
}

// Create inserts a new user.
func (s *MongoDBStore) Create(ctx context.Context, user *core.User) error {
	if err := validateForCreate(user); err != nil {
		return err
	}

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": mongoUsersCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return fmt.Errorf("allocate user id: %w", err)
	}

	doc := mongoUserDocument{
		ID:           counter.Seq,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		IsStaff:      user.IsStaff,
		IsSuperuser:  user.IsSuperuser,
		DateJoined:   user.DateJoined.UTC(),
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert user %s: %w", user.Username, ErrDuplicateUsername)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = doc.ID
	return nil
}

// GetByID returns a user by id.
func (s *MongoDBStore) GetByID(ctx context.Context, id int64) (*core.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByUsername returns a user by username.
func (s *MongoDBStore) GetByUsername(ctx context.Context, username string) (*core.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoDBStore) findOne(ctx context.Context, filter bson.M) (*core.User, error) {
	var doc mongoUserDocument
	if err := s.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return doc.toUser(), nil
}

// Close is a no-op; Mongo client lifecycle is managed by storage layer.
func (s *MongoDBStore) Close() error {
	return nil
}
