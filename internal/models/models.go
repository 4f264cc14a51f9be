package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a coordinate plus the human-readable annotations riders
// attach to it (street address, entry notes for accessible pickups).
type Location struct {
	Geopoint Coord  `json:"geopoint"`
	Address  string `json:"address,omitempty"`
	Note     string `json:"note,omitempty"`
}

// EntrySide is the side of the vehicle a rider needs to board from.
type EntrySide string

const (
	EntryLeft   EntrySide = "left"
	EntryRight  EntrySide = "right"
	EntryEither EntrySide = "either"
)

// AccessibilityRequest is the normalized form of a rider's option tags.
type AccessibilityRequest struct {
	Wheelchair bool      `json:"wheelchair"`
	EntrySide  EntrySide `json:"entry_side"`
	Assistance bool      `json:"assistance"`
}

type RideStatus string

const (
	StatusSearching  RideStatus = "searching"
	StatusAssigned   RideStatus = "assigned"
	StatusArriving   RideStatus = "arriving"
	StatusInProgress RideStatus = "in_progress"
	StatusCompleted  RideStatus = "completed"
	StatusCancelled  RideStatus = "cancelled"
)

// ValidStatuses is the vocabulary accepted by the status-update endpoint.
// "searching" is only ever set at creation, so it is not in this set.
var ValidStatuses = map[RideStatus]bool{
	StatusAssigned:   true,
	StatusArriving:   true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

func (s RideStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Ride struct {
	ID            string               `json:"id"`
	RiderID       string               `json:"rider_id"`
	Pickup        Location             `json:"pickup"`
	Dropoff       Location             `json:"dropoff"`
	Status        RideStatus           `json:"status"`
	Fare          float64              `json:"fare"`
	Accessibility AccessibilityRequest `json:"accessibility"`
	ScheduledAt   *time.Time           `json:"scheduled_at,omitempty"` // nil means on-demand
	DriverID      string               `json:"driver_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type Vehicle struct {
	Make     string   `json:"make"`
	Model    string   `json:"model"`
	Color    string   `json:"color"`
	Plate    string   `json:"plate"`
	Features []string `json:"accessibility_features"`
}

// HasFeature reports whether the vehicle carries the given accessibility
// tag. Matching is case-sensitive and exact.
func (v Vehicle) HasFeature(tag string) bool {
	for _, f := range v.Features {
		if f == tag {
			return true
		}
	}
	return false
}

type Driver struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"` // account that owns this driver profile
	Name      string    `json:"name"`
	Photo     string    `json:"photo,omitempty"`
	Rating    float64   `json:"rating"` // 0..5
	Vehicle   Vehicle   `json:"vehicle"`
	Loc       Location  `json:"location"`
	Available bool      `json:"availability"`
	Updated   time.Time `json:"updated"`
}

// DriverSummary is the denormalized driver copy embedded in history rows.
type DriverSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Photo     string   `json:"photo,omitempty"`
	Rating    float64  `json:"rating"`
	Vehicle   Vehicle  `json:"vehicle"`
	Loc       Location `json:"location"`
	ETA       float64  `json:"eta"` // always zero in history, the trip is over
	Available bool     `json:"availability"`
}

func Summarize(d *Driver) *DriverSummary {
	return &DriverSummary{
		ID:        d.ID,
		Name:      d.Name,
		Photo:     d.Photo,
		Rating:    d.Rating,
		Vehicle:   d.Vehicle,
		Loc:       d.Loc,
		ETA:       0,
		Available: d.Available,
	}
}

// RideHistory is the immutable per-party trip snapshot written when a ride
// completes. One row per (ride, owning user).
type RideHistory struct {
	UserID    string         `json:"user_id"`
	RideID    string         `json:"ride_id"`
	Pickup    Location       `json:"pickup"`
	Dropoff   Location       `json:"dropoff"`
	Fare      float64        `json:"fare"`
	Driver    *DriverSummary `json:"driver,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Assignment is the offer payload pushed to a driver when a ride is
// assigned to them.
type Assignment struct {
	RideID string   `json:"ride_id"`
	Pickup Location `json:"pickup"`
	Fare   float64  `json:"fare"`
}
