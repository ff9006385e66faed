// Package store persists graph documents behind viewer sessions.
//
// A [Record] holds the document a session was created from, kept current
// after every modification and group toggle, plus the level of detail the
// session was last at. Stores let `flowlens serve` rebuild a session after a
// restart or on another instance.
//
// Backends:
//   - memory: in-process, for tests and single-instance servers
//   - file: one JSON file per record, for local use
//   - mongo: a MongoDB collection with a TTL index on expires_at
//
// Usage:
//
//	st, err := store.Open(ctx, cfg.Server)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	rec := store.NewRecord(doc, store.DefaultTTL)
//	err = st.Put(ctx, rec)
//	rec, err = st.Get(ctx, rec.ID) // ErrNotFound once expired or deleted
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/graph"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a record does not exist or has expired.
	ErrNotFound = errors.New("not found")
)

// DefaultTTL is how long an untouched record is kept.
const DefaultTTL = 7 * 24 * time.Hour

// Record is a stored graph document.
type Record struct {
	ID        string          `json:"id" bson:"_id"`
	Document  *graph.Document `json:"document" bson:"document"`
	LOD       int             `json:"lod" bson:"lod"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" bson:"updated_at"`
	ExpiresAt time.Time       `json:"expires_at" bson:"expires_at"`
}

// NewRecord returns a record with a fresh id expiring after ttl.
func NewRecord(doc *graph.Document, ttl time.Duration) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:        NewID(),
		Document:  doc,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Touch marks the record as updated and extends its expiry by ttl.
func (r *Record) Touch(ttl time.Duration) {
	r.UpdatedAt = time.Now().UTC()
	r.ExpiresAt = r.UpdatedAt.Add(ttl)
}

// IsExpired reports whether the record has passed its expiry.
func (r *Record) IsExpired() bool {
	return !r.ExpiresAt.IsZero() && time.Now().After(r.ExpiresAt)
}

// NewID returns a random record id.
func NewID() string { return uuid.NewString() }

// Store is the interface for record storage backends.
type Store interface {
	// Get returns the record with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Put creates or replaces a record.
	Put(ctx context.Context, rec *Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired records and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

// Open returns the store selected by cfg.Store.
func Open(ctx context.Context, cfg config.Server) (Store, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.StoreDir)
	case "mongo":
		return NewMongoStore(ctx, MongoConfig{URI: cfg.MongoURI, Database: cfg.Database})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
