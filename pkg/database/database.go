// Package database provides the MongoDB connection used by the moderation
// audit log. Writes issued while the database is unreachable are queued and
// replayed on reconnection.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// OpInsert is the only write the audit log makes
const OpInsert = "insert"

const reconnectInterval = 15 * time.Second

// QueuedOperation represents a pending database operation
type QueuedOperation struct {
	CollectionName string
	Operation      string
	Data           interface{}
}

// Database manages the MongoDB connection and the offline write queue
type Database struct {
	client          *mongo.Client
	db              *mongo.Database
	connected       bool
	writeQueue      []QueuedOperation
	reconnectTicker *time.Ticker
	stopReconnect   chan struct{}
	stopOnce        sync.Once
	mu              sync.RWMutex
	queueMu         sync.Mutex
	collections     map[string]*mongo.Collection
}

var (
	database *Database
	dbOnce   sync.Once
)

// Init initializes the global database instance. A failed first connection
// leaves the instance in offline mode, retrying in the background.
func Init(mongoURL, dbName string) (*Database, error) {
	var err error
	dbOnce.Do(func() {
		database = NewDatabase()
		err = database.Connect(mongoURL, dbName)
	})
	return database, err
}

// Get returns the global database instance
func Get() *Database {
	return database
}

// NewDatabase creates a new, disconnected Database
func NewDatabase() *Database {
	return &Database{
		writeQueue:    make([]QueuedOperation, 0),
		stopReconnect: make(chan struct{}),
		collections:   make(map[string]*mongo.Collection),
	}
}

// Connect establishes a connection to MongoDB
func (d *Database) Connect(mongoURL, dbName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}

	logger.System("Connecting to the database...", "DB")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(mongoURL).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		logger.Critical("Could not connect to the database: "+err.Error(), "DB")
		d.startReconnect(mongoURL, dbName)
		return err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Critical("Database did not answer the ping: "+err.Error(), "DB")
		_ = client.Disconnect(ctx)
		d.startReconnect(mongoURL, dbName)
		return err
	}

	d.client = client
	d.db = client.Database(dbName)
	d.collections = make(map[string]*mongo.Collection)
	d.connected = true

	logger.Success("Connected to the database "+dbName, "DB")

	if d.reconnectTicker != nil {
		d.reconnectTicker.Stop()
		d.reconnectTicker = nil
	}

	go d.syncOfflineWrites()

	return nil
}

// startReconnect retries the connection in the background until it succeeds
// or Disconnect is called. The caller holds d.mu.
func (d *Database) startReconnect(mongoURL, dbName string) {
	if d.connected {
		d.connected = false
		logger.Warn("Lost the database connection. Switching to offline mode.", "DB")
	}
	if d.reconnectTicker != nil {
		return
	}

	ticker := time.NewTicker(reconnectInterval)
	d.reconnectTicker = ticker
	go func() {
		for {
			select {
			case <-ticker.C:
				logger.Info("Reconnecting to the database...", "DB")
				if err := d.Connect(mongoURL, dbName); err == nil {
					return
				}
			case <-d.stopReconnect:
				return
			}
		}
	}()
}

// Disconnect closes the database connection
func (d *Database) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reconnectTicker != nil {
		d.reconnectTicker.Stop()
		d.reconnectTicker = nil
	}
	d.stopOnce.Do(func() { close(d.stopReconnect) })

	if d.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.client.Disconnect(ctx); err != nil {
			return err
		}
		d.connected = false
		logger.Warn("Database disconnected", "DB")
	}
	return nil
}

// Connected reports whether the database is reachable
func (d *Database) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Ping measures the database response time
func (d *Database) Ping(ctx context.Context) (time.Duration, error) {
	d.mu.RLock()
	client := d.client
	connected := d.connected
	d.mu.RUnlock()

	if !connected || client == nil {
		return 0, fmt.Errorf("not connected to database")
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := client.Ping(ctx, readpref.Primary())
	return time.Since(start), err
}

// GetStatus returns a printable connection status
func (d *Database) GetStatus() (string, bool) {
	if d == nil {
		return "🔴 | Non configurato", false
	}
	if _, err := d.Ping(context.Background()); err != nil {
		return "🔴 | Disconnesso", false
	}
	return "🟢 | Online", true
}

// GetCollection returns a MongoDB collection, or nil while offline
func (d *Database) GetCollection(name string) *mongo.Collection {
	d.mu.RLock()
	if col, exists := d.collections[name]; exists {
		d.mu.RUnlock()
		return col
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	col := d.db.Collection(name)
	d.collections[name] = col
	return col
}

// AddToWriteQueue adds an operation to the offline write queue
func (d *Database) AddToWriteQueue(op QueuedOperation) {
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	d.writeQueue = append(d.writeQueue, op)
}

// QueueLength returns the number of writes waiting for the database
func (d *Database) QueueLength() int {
	if d == nil {
		return 0
	}
	d.queueMu.Lock()
	defer d.queueMu.Unlock()
	return len(d.writeQueue)
}

// syncOfflineWrites replays queued operations; failed ones are queued again
func (d *Database) syncOfflineWrites() {
	d.queueMu.Lock()
	if len(d.writeQueue) == 0 {
		d.queueMu.Unlock()
		return
	}

	logger.System(fmt.Sprintf("Replaying %d queued operations...", len(d.writeQueue)), "DB-Sync")

	operations := d.writeQueue
	d.writeQueue = make([]QueuedOperation, 0)
	d.queueMu.Unlock()

	var failedOps []QueuedOperation
	for _, op := range operations {
		col := d.GetCollection(op.CollectionName)
		if col == nil {
			failedOps = append(failedOps, op)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := apply(ctx, col, op)
		cancel()

		if err != nil {
			logger.Error(fmt.Sprintf("Could not replay %s on '%s': %v", op.Operation, op.CollectionName, err), "DB-Sync")
			failedOps = append(failedOps, op)
		}
	}

	if len(failedOps) > 0 {
		d.queueMu.Lock()
		d.writeQueue = append(d.writeQueue, failedOps...)
		d.queueMu.Unlock()
		logger.Warn(fmt.Sprintf("%d operations will be retried.", len(failedOps)), "DB-Sync")
	} else {
		logger.Success("Queued operations replayed.", "DB-Sync")
	}
}

func apply(ctx context.Context, col *mongo.Collection, op QueuedOperation) error {
	var err error
	switch op.Operation {
	case OpInsert:
		_, err = col.InsertOne(ctx, op.Data)
		if mongo.IsDuplicateKeyError(err) {
			err = nil
		}
	default:
		err = fmt.Errorf("unknown operation %q", op.Operation)
	}
	return err
}
