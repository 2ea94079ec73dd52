package database

import (
	"context"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// AuditCollection stores the moderation log
const AuditCollection = "moderation"

// AuditStore is the moderation log: removed posts, blacklisted comments
type AuditStore struct {
	dm  *DataManager[models.ModerationRecord]
	now func() time.Time
}

// NewAuditStore creates an AuditStore on db
func NewAuditStore(db *Database) *AuditStore {
	return &AuditStore{
		dm:  NewDataManager[models.ModerationRecord](AuditCollection, db, DataManagerOptions{MaxCacheSize: 256}),
		now: time.Now,
	}
}

// Record stores rec, filling its id and timestamp when missing.
// While the database is offline the record is queued.
func (s *AuditStore) Record(ctx context.Context, rec models.ModerationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	return s.dm.Insert(ctx, &rec)
}

// Get returns the record with the given id, or nil
func (s *AuditStore) Get(ctx context.Context, id string) (*models.ModerationRecord, error) {
	return s.dm.Get(ctx, bson.M{"_id": id})
}

// Recent returns the newest records, optionally of a single kind
func (s *AuditStore) Recent(ctx context.Context, kind models.RecordKind, limit int64) ([]*models.ModerationRecord, error) {
	query := bson.M{}
	if kind != "" {
		query["kind"] = kind
	}
	return s.dm.Find(ctx, query, "created_at", limit)
}

// Count returns how many records of kind were stored
func (s *AuditStore) Count(ctx context.Context, kind models.RecordKind) (int64, error) {
	query := bson.M{}
	if kind != "" {
		query["kind"] = kind
	}
	return s.dm.Count(ctx, query)
}
