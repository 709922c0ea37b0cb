package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"

	"scheduling-service/internal/availability"
)

var (
	ErrHostNotFound    = errors.New("host not found")
	ErrSlotTaken       = errors.New("slot already booked")
	ErrNoCalendarToken = errors.New("host has no calendar token")
)

type HostStore interface {
	HostByUsername(ctx context.Context, username string) (Host, error)
}

type RuleStore interface {
	ListRules(ctx context.Context, hostID string) ([]availability.Rule, error)
	ReplaceRules(ctx context.Context, hostID string, rules []availability.Rule) ([]availability.Rule, error)
}

type BookingStore interface {
	// ListBookingStarts returns start instants in [from, to], both inclusive.
	ListBookingStarts(ctx context.Context, hostID string, from, to time.Time) ([]time.Time, error)
	// ListBookings returns bookings starting in [from, to). Zero bounds mean unbounded.
	ListBookings(ctx context.Context, hostID string, from, to time.Time) ([]Booking, error)
	// InsertBooking must return ErrSlotTaken when (host, start) already exists.
	InsertBooking(ctx context.Context, b *Booking) error
	MarkSynced(ctx context.Context, bookingID, eventID string) error
	MarkSyncFailed(ctx context.Context, bookingID, cause string) error
	// ListUnsynced returns bookings created before cutoff that still need a
	// calendar event and have fewer than maxAttempts tries.
	ListUnsynced(ctx context.Context, cutoff time.Time, maxAttempts, limit int) ([]Booking, error)
}

type TokenStore interface {
	HostToken(ctx context.Context, hostID string) (*oauth2.Token, error)
}
