package screenshots

import "context"

// SortKey picks the ordering of a listing.
type SortKey int

const (
	// SortSubmitted orders by submission time, newest first, then id.
	SortSubmitted SortKey = iota
	// SortDeleted orders by deletion time, newest first.
	SortDeleted
)

// Query filters a listing. Empty strings match everything.
type Query struct {
	OwnerUserID string
	OwnerEmail  string
	OwnerName   string
	Deleted     bool
	Sort        SortKey
	Limit       int // 0 means unbounded
	Offset      int
}

// Repository port (interface untuk persistence)
type Repository interface {
	Create(ctx context.Context, s *Screenshot) error
	Get(ctx context.Context, id ID) (*Screenshot, error)
	List(ctx context.Context, q Query) ([]*Screenshot, error)
	Count(ctx context.Context, q Query) (int64, error)

	// SetDeleted writes isDeleted and deletedAt together and returns the
	// updated record.
	SetDeleted(ctx context.Context, s *Screenshot) (*Screenshot, error)
	// Delete removes the record and returns what was removed.
	Delete(ctx context.Context, id ID) (*Screenshot, error)
}

// BlobStore port (interface untuk penyimpanan gambar)
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Broadcaster port. Publish must not block on delivery.
type Broadcaster interface {
	Publish(ctx context.Context, kind EventKind, p Payload) error
}
