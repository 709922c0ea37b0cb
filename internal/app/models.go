package app

import "time"

const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncFailed  = "failed"
)

// SlotDuration is the length of every bookable slot.
const SlotDuration = time.Hour

type Host struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
}

type Booking struct {
	ID              string    `json:"id"`
	HostID          string    `json:"host_id"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	AttendeeName    string    `json:"attendee_name"`
	AttendeeEmail   string    `json:"attendee_email"`
	Notes           string    `json:"notes,omitempty"`
	SyncStatus      string    `json:"sync_status"`
	SyncAttempts    int       `json:"-"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
	LastSyncError   string    `json:"-"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

type BookingRequest struct {
	AttendeeName  string
	AttendeeEmail string
	Notes         string
	StartAt       time.Time
}

// RuleInput is one weekly interval as submitted by a host.
type RuleInput struct {
	WeekDay     int `json:"week_day" validate:"min=0,max=6"`
	StartMinute int `json:"start_minute" validate:"min=0,max=1440,whole_hour"`
	EndMinute   int `json:"end_minute" validate:"min=0,max=1440,gtfield=StartMinute,whole_hour"`
}
