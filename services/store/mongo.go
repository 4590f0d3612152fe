package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"budgetmanager/priceworker/internal/catalog"
	"budgetmanager/priceworker/pkg/errors"
)

const (
	productsCollection   = "products"
	imageCacheCollection = "image_cache"
	settingsCollection   = "settings"

	syncStatusID = "sync-status"
)

// MongoStore implements ProductStore on MongoDB; its image cache view
// (see ImageCache) implements ImageCacheStore over the same database
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// MongoImageCache implements ImageCacheStore on the image_cache collection
type MongoImageCache struct {
	db *mongo.Database
}

// NewMongoStore connects to MongoDB and verifies the connection
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Close disconnects from MongoDB
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ImageCache returns the image cache view of the same database
func (s *MongoStore) ImageCache() *MongoImageCache {
	return &MongoImageCache{db: s.db}
}

// Upsert inserts or replaces a product by barcode. An empty image field
// never overwrites a previously resolved image.
func (s *MongoStore) Upsert(ctx context.Context, product catalog.CanonicalProduct) (UpsertOutcome, error) {
	set := bson.M{
		"name":          product.Name,
		"manufacturer":  product.Manufacturer,
		"category":      product.Category,
		"prices":        product.Prices,
		"cheapestPrice": product.CheapestPrice,
		"cheapestChain": product.CheapestProvider,
		"lastUpdated":   product.LastUpdated,
		"dataSource":    product.DataSource,
	}
	if product.Image != "" {
		set["image"] = product.Image
	}

	result, err := s.db.Collection(productsCollection).UpdateOne(
		ctx,
		bson.M{"barcode": product.ID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return OutcomeUpdated, errors.NewPersistence("", fmt.Sprintf("failed to upsert product %s", product.ID), err)
	}

	if result.UpsertedCount > 0 {
		return OutcomeInserted, nil
	}
	return OutcomeUpdated, nil
}

// ListMissingImages returns products without a stored image
func (s *MongoStore) ListMissingImages(ctx context.Context, limit int) ([]catalog.CanonicalProduct, error) {
	filter := bson.M{"$or": []bson.M{
		{"image": bson.M{"$exists": false}},
		{"image": ""},
		{"image": nil},
	}}

	cursor, err := s.db.Collection(productsCollection).Find(
		ctx, filter, options.Find().SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, errors.NewPersistence("", "failed to list products missing images", err)
	}
	defer cursor.Close(ctx)

	var products []catalog.CanonicalProduct
	if err := cursor.All(ctx, &products); err != nil {
		return nil, errors.NewPersistence("", "failed to decode products", err)
	}
	return products, nil
}

// SetImage stores a resolved image URL on a product
func (s *MongoStore) SetImage(ctx context.Context, productID, imageURL string) error {
	_, err := s.db.Collection(productsCollection).UpdateOne(
		ctx,
		bson.M{"barcode": productID},
		bson.M{"$set": bson.M{"image": imageURL}},
	)
	if err != nil {
		return errors.NewPersistence("", fmt.Sprintf("failed to set image for %s", productID), err)
	}
	return nil
}

// ClearImage removes a product's stored image field
func (s *MongoStore) ClearImage(ctx context.Context, productID string) error {
	_, err := s.db.Collection(productsCollection).UpdateOne(
		ctx,
		bson.M{"barcode": productID},
		bson.M{"$unset": bson.M{"image": ""}},
	)
	if err != nil {
		return errors.NewPersistence("", fmt.Sprintf("failed to clear image for %s", productID), err)
	}
	return nil
}

// SetSyncStatus records the outcome of an aggregation run
func (s *MongoStore) SetSyncStatus(ctx context.Context, status SyncStatus) error {
	_, err := s.db.Collection(settingsCollection).UpdateOne(
		ctx,
		bson.M{"_id": syncStatusID},
		bson.M{"$set": status},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.NewPersistence("", "failed to update sync status", err)
	}
	return nil
}

// Get returns the cache entry for a product, or nil on a miss
func (c *MongoImageCache) Get(ctx context.Context, productID string) (*ImageCacheEntry, error) {
	var entry ImageCacheEntry
	err := c.db.Collection(imageCacheCollection).FindOne(
		ctx, bson.M{"barcode": productID},
	).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewPersistence("", fmt.Sprintf("failed to read image cache for %s", productID), err)
	}
	return &entry, nil
}

// Upsert inserts or replaces a cache entry
func (c *MongoImageCache) Upsert(ctx context.Context, entry ImageCacheEntry) error {
	_, err := c.db.Collection(imageCacheCollection).UpdateOne(
		ctx,
		bson.M{"barcode": entry.ProductID},
		bson.M{"$set": bson.M{
			"imageUrl":    entry.ImageURL,
			"source":      entry.Source,
			"validatedAt": entry.ValidatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.NewPersistence("", fmt.Sprintf("failed to upsert image cache for %s", entry.ProductID), err)
	}
	return nil
}

// Delete removes a cache entry
func (c *MongoImageCache) Delete(ctx context.Context, productID string) error {
	_, err := c.db.Collection(imageCacheCollection).DeleteOne(ctx, bson.M{"barcode": productID})
	if err != nil {
		return errors.NewPersistence("", fmt.Sprintf("failed to delete image cache for %s", productID), err)
	}
	return nil
}

// ListStale returns entries validated before the cutoff or never validated
func (c *MongoImageCache) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]ImageCacheEntry, error) {
	filter := bson.M{"$or": []bson.M{
		{"validatedAt": bson.M{"$lt": olderThan}},
		{"validatedAt": bson.M{"$exists": false}},
		{"validatedAt": nil},
	}}

	cursor, err := c.db.Collection(imageCacheCollection).Find(
		ctx, filter, options.Find().SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, errors.NewPersistence("", "failed to list stale image cache entries", err)
	}
	defer cursor.Close(ctx)

	var entries []ImageCacheEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, errors.NewPersistence("", "failed to decode image cache entries", err)
	}
	return entries, nil
}

// Touch refreshes an entry's validation timestamp
func (c *MongoImageCache) Touch(ctx context.Context, productID string, at time.Time) error {
	_, err := c.db.Collection(imageCacheCollection).UpdateOne(
		ctx,
		bson.M{"barcode": productID},
		bson.M{"$set": bson.M{"validatedAt": at}},
	)
	if err != nil {
		return errors.NewPersistence("", fmt.Sprintf("failed to touch image cache for %s", productID), err)
	}
	return nil
}
