package screenshots

import (
	"time"
)

// ID tipe untuk AnalyzedScreenshot
type ID string

const (
	// NumberNotFound is stored when no phone-like text was recognised.
	NumberNotFound = "Not Found"
	// Unknown is the default for caller-supplied metadata.
	Unknown = "Unknown"
)

// State of a persisted record.
type State string

const (
	StateActive      State = "active"
	StateSoftDeleted State = "soft_deleted"
)

// Owner is the submitting principal as seen at upload time. The copy on a
// record is a snapshot and is never re-synced with the principal's profile.
type Owner struct {
	UserID string
	Email  string
	Name   string
}

// Aggregate Root: Screenshot
type Screenshot struct {
	ID              ID
	Owner           Owner
	ImageURL        string
	ExtractedNumber string
	SubmittedAt     time.Time
	ToNumber        string
	Carrier         string
	IsSpam          bool
	IsDeleted       bool
	DeletedAt       *time.Time
	AnalyzedAt      time.Time
}

func (s *Screenshot) State() State {
	if s.IsDeleted {
		return StateSoftDeleted
	}
	return StateActive
}

// MarkDeleted flips the record into the soft-deleted state. Re-applying it
// refreshes DeletedAt.
func (s *Screenshot) MarkDeleted(at time.Time) {
	at = at.UTC()
	s.IsDeleted = true
	s.DeletedAt = &at
}

// Restore moves the record back to active. No-op on an active record.
func (s *Screenshot) Restore() {
	s.IsDeleted = false
	s.DeletedAt = nil
}
