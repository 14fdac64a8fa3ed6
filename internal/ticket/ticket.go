package ticket

import "time"

// State is a ticket's position in its lifecycle.
type State string

const (
	StateDraft     State = "draft"
	StateValidated State = "validated"
	StateRejected  State = "rejected"
	StateActive    State = "active"
	StateExpired   State = "expired"
)

// Ticket is a time-boxed parking permit for one plate at one building.
type Ticket struct {
	ID           string
	PlateNumber  string
	Email        string
	UnitNumber   string
	BuildingID   string
	BuildingName string
	StartTime    time.Time
	EndTime      time.Time
	Nights       int
	State        State
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Request is the operator input for a new ticket. Nights is nil when the
// operator left it blank and the building's quota should be used.
type Request struct {
	BuildingID  string `json:"buildingId"`
	PlateNumber string `json:"plateNumber"`
	Email       string `json:"email"`
	UnitNumber  string `json:"unitNumber"`
	StartTime   string `json:"startTime"`
	Nights      *int   `json:"nights"`
}

// Expiry is start plus nights whole 24h days.
func Expiry(start time.Time, nights int) time.Time {
	return start.Add(time.Duration(nights) * 24 * time.Hour)
}
