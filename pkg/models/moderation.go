package models

import "time"

// RecordKind is the type of moderation action being audited
type RecordKind string

const (
	RecordPostRemoved  RecordKind = "post_removed"
	RecordBlacklisted  RecordKind = "blacklisted"
	RecordRateLimited  RecordKind = "rate_limited"
	RecordCommandError RecordKind = "command_rejected"
)

// ModerationRecord is an entry of the audit log ("moderation" collection)
type ModerationRecord struct {
	ID        string     `bson:"_id" json:"id"`
	Kind      RecordKind `bson:"kind" json:"kind"`
	Scope     int64      `bson:"scope" json:"scope"`       // Telegram chat id
	Actor     string     `bson:"actor" json:"actor"`       // who triggered the action
	Target    string     `bson:"target" json:"target"`     // message id, post id or url
	Reason    string     `bson:"reason" json:"reason"`     // rule text, token, guard message
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
}
