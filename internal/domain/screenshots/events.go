package screenshots

import "time"

// EventKind names a realtime event.
type EventKind string

const (
	EventNew             EventKind = "screenshots:new"
	EventRestored        EventKind = "screenshots:update"
	EventSoftDeleted     EventKind = "screenshots:delete:soft"
	EventPermanentDelete EventKind = "screenshots:delete:permanent"
)

// Room names.
const (
	RoomAll    = "all"
	RoomAdmins = "admins"
)

func UserRoom(userID string) string { return "user:" + userID }
func EmailRoom(email string) string { return "email:" + email }

// Payload is the public-safe shape of a record, used for both HTTP
// responses and realtime events.
type Payload struct {
	ID              ID         `json:"id"`
	User            string     `json:"user"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	ScreenshotURL   string     `json:"screenshotUrl"`
	ExtractedNumber string     `json:"extractedNumber"`
	Time            time.Time  `json:"time"`
	ToNumber        string     `json:"toNumber"`
	Carrier         string     `json:"carrier"`
	IsSpam          bool       `json:"isSpam"`
	IsDeleted       bool       `json:"isDeleted"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
}

func Shape(s *Screenshot) Payload {
	return Payload{
		ID:              s.ID,
		User:            s.Owner.UserID,
		Name:            s.Owner.Name,
		Email:           s.Owner.Email,
		ScreenshotURL:   s.ImageURL,
		ExtractedNumber: s.ExtractedNumber,
		Time:            s.SubmittedAt,
		ToNumber:        s.ToNumber,
		Carrier:         s.Carrier,
		IsSpam:          s.IsSpam,
		IsDeleted:       s.IsDeleted,
		DeletedAt:       s.DeletedAt,
	}
}

func ShapeAll(list []*Screenshot) []Payload {
	out := make([]Payload, 0, len(list))
	for _, s := range list {
		out = append(out, Shape(s))
	}
	return out
}

// Rooms returns every room an event about p is delivered to.
func Rooms(p Payload) []string {
	rooms := []string{RoomAll}
	if p.User != "" {
		rooms = append(rooms, UserRoom(p.User))
	}
	if p.Email != "" {
		rooms = append(rooms, EmailRoom(p.Email))
	}
	return append(rooms, RoomAdmins)
}
