package inventory

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
	mongoItemsCollection    = "items"
	mongoCountersCollection = "counters"
)

type mongoItemDocument struct {
	ID          int64  `bson:"_id"`
	ProductName string `bson:"product_name"`
	SKU         string `bson:"sku"`
	Quantity    int    `bson:"quantity"`
	Price       string `bson:"price"`
	Category    string `bson:"category"`
	ImageURL    string `bson:"image_url"`
}

func toMongoItem(item *core.Item) mongoItemDocument {
	return mongoItemDocument{
		ID:          item.ID,
		ProductName: item.ProductName,
		SKU:         item.SKU,
		Quantity:    item.Quantity,
		Price:       item.Price.String(),
		Category:    item.Category,
		ImageURL:    item.ImageURL,
	}
}

func (d mongoItemDocument) toItem() (*core.Item, error) {
	price, err := core.NewMoney(d.Price)
	if err != nil {
		return nil, err
	}
	return &core.Item{
		ID:          d.ID,
		ProductName: d.ProductName,
		SKU:         d.SKU,
		Quantity:    d.Quantity,
		Price:       price,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
	}, nil
}

// MongoDBStore stores items in MongoDB. Integer ids come from a counters
// collection so they match the SQL backends.
type MongoDBStore struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMongoDBStore creates collection indexes if needed.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}

	coll := database.Collection(mongoItemsCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sku", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create items indexes: %w", err)
	}

	return &MongoDBStore{
		collection: coll,
		counters:   database.Collection(mongoCountersCollection),
	}, nil
}

func (s *MongoDBStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": mongoItemsCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate item id: %w", err)
	}
	return counter.Seq, nil
}

// Create inserts a new item.
func (s *MongoDBStore) Create(ctx context.Context, item *core.Item) error {
	if err := validateForWrite(item); err != nil {
		return err
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return err
	}

	doc := toMongoItem(item)
	doc.ID = id
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert item %s: %w", item.SKU, ErrDuplicateSKU)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	item.ID = id
	return nil
}

// Get returns an item by id.
func (s *MongoDBStore) Get(ctx context.Context, id int64) (*core.Item, error) {
	var doc mongoItemDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	item, err := doc.toItem()
	if err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return item, nil
}

// List returns matching items ordered by id.
func (s *MongoDBStore) List(ctx context.Context, filter ListFilter) ([]*core.Item, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.QuantityBelow > 0 {
		query["quantity"] = bson.M{"$lt": filter.QuantityBelow}
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*core.Item, 0)
	for cursor.Next(ctx) {
		var doc mongoItemDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode item document: %w", err)
		}
		item, err := doc.toItem()
		if err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		items = append(items, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate items cursor: %w", err)
	}
	return items, nil
}

// Update replaces a stored item.
func (s *MongoDBStore) Update(ctx context.Context, item *core.Item) error {
	if err := validateForWrite(item); err != nil {
		return err
	}

	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": item.ID}, toMongoItem(item))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("update item %s: %w", item.SKU, ErrDuplicateSKU)
		}
		return fmt.Errorf("update item: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an item by id.
func (s *MongoDBStore) Delete(ctx context.Context, id int64) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every item. The id counter is left untouched so ids are not reused.
func (s *MongoDBStore) DeleteAll(ctx context.Context) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete all items: %w", err)
	}
	return result.DeletedCount, nil
}

// Close is a no-op; Mongo client lifecycle is managed by storage layer.
func (s *MongoDBStore) Close() error {
	return nil
}
