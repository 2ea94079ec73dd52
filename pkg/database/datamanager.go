package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrOffline is returned by reads while the database is unreachable
var ErrOffline = errors.New("database not connected")

// DataManagerOptions contains configuration for a DataManager
type DataManagerOptions struct {
	MaxCacheSize int
}

// DefaultDataManagerOptions returns default options for DataManager
func DefaultDataManagerOptions() DataManagerOptions {
	return DataManagerOptions{
		MaxCacheSize: 1000,
	}
}

// DataManager provides cached access to a MongoDB collection. Writes made
// while offline are queued on the Database.
type DataManager[T any] struct {
	name       string
	dbInstance *Database
	cache      *lru.Cache[string, *T]
}

// NewDataManager creates a new DataManager for a collection
func NewDataManager[T any](collectionName string, db *Database, opts ...DataManagerOptions) *DataManager[T] {
	dmOptions := DefaultDataManagerOptions()
	if len(opts) > 0 {
		dmOptions = opts[0]
	}
	if dmOptions.MaxCacheSize <= 0 {
		dmOptions.MaxCacheSize = 1
	}

	cache, _ := lru.New[string, *T](dmOptions.MaxCacheSize)
	return &DataManager[T]{
		name:       collectionName,
		dbInstance: db,
		cache:      cache,
	}
}

// Name is the collection name
func (dm *DataManager[T]) Name() string {
	return dm.name
}

func (dm *DataManager[T]) collection() *mongo.Collection {
	if dm.dbInstance == nil || !dm.dbInstance.Connected() {
		return nil
	}
	return dm.dbInstance.GetCollection(dm.name)
}

// generateCacheKey creates a deterministic key from a query, sorting its keys
func (dm *DataManager[T]) generateCacheKey(query bson.M) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, query[k]))
	}

	return fmt.Sprintf("%s:{%s}", dm.name, strings.Join(parts, ","))
}

// Get retrieves a document from cache or database. A missing document is nil
// without error.
func (dm *DataManager[T]) Get(ctx context.Context, query bson.M) (*T, error) {
	key := dm.generateCacheKey(query)
	if v, ok := dm.cache.Get(key); ok {
		return v, nil
	}

	col := dm.collection()
	if col == nil {
		return nil, ErrOffline
	}

	var result T
	if err := col.FindOne(ctx, query).Decode(&result); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	dm.cache.Add(key, &result)
	return &result, nil
}

// Find returns up to limit documents matching query, newest first by sortField.
// Results are not cached.
func (dm *DataManager[T]) Find(ctx context.Context, query bson.M, sortField string, limit int64) ([]*T, error) {
	col := dm.collection()
	if col == nil {
		return nil, ErrOffline
	}

	opts := options.Find()
	if sortField != "" {
		opts.SetSort(bson.D{{Key: sortField, Value: -1}})
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []*T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		results = append(results, &doc)
	}
	return results, cursor.Err()
}

// Count returns the number of documents matching query
func (dm *DataManager[T]) Count(ctx context.Context, query bson.M) (int64, error) {
	col := dm.collection()
	if col == nil {
		return 0, ErrOffline
	}
	return col.CountDocuments(ctx, query)
}

// Insert stores a new document, queueing it while offline
func (dm *DataManager[T]) Insert(ctx context.Context, doc *T) error {
	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Queueing insert into '%s'", dm.name), "DataManager")
		dm.enqueue(doc)
		return nil
	}

	if _, err := col.InsertOne(ctx, doc); err != nil {
		logger.Error(fmt.Sprintf("Insert into '%s' failed, queueing it: %v", dm.name, err), "DataManager")
		dm.enqueue(doc)
		return err
	}
	return nil
}

func (dm *DataManager[T]) enqueue(doc *T) {
	if dm.dbInstance == nil {
		return
	}
	dm.dbInstance.AddToWriteQueue(QueuedOperation{
		CollectionName: dm.name,
		Operation:      OpInsert,
		Data:           doc,
	})
}

