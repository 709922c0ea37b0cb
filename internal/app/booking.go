package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scheduling-service/internal/apperrors"
	"scheduling-service/internal/availability"
	"scheduling-service/internal/events"
)

// CreateBooking books the hour containing req.StartAt for username.
//
// The booking is committed before the calendar call. When the call fails the
// booking stays with sync_status "failed", the caller receives an upstream
// error carrying the booking id, and the reconciler retries later.
func (a *App) CreateBooking(ctx context.Context, username string, req BookingRequest) (*Booking, error) {
	host, err := a.host(ctx, username)
	if err != nil {
		return nil, err
	}
	return a.book(ctx, host, req)
}

func (a *App) book(ctx context.Context, host Host, req BookingRequest) (*Booking, error) {
	start := availability.StartOfHour(req.StartAt.In(a.loc))
	if start.Before(a.now()) {
		return nil, apperrors.InvalidDate()
	}

	b := &Booking{
		ID:            uuid.NewString(),
		HostID:        host.ID,
		StartAt:       start,
		EndAt:         start.Add(SlotDuration),
		AttendeeName:  req.AttendeeName,
		AttendeeEmail: req.AttendeeEmail,
		Notes:         req.Notes,
		SyncStatus:    SyncPending,
	}
	if err := a.bookings.InsertBooking(ctx, b); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			a.log.Info("Booking conflict", "host_id", host.ID, "start_at", start)
			return nil, apperrors.Conflict("Scheduling already exists.")
		}
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	a.log.Info("Booking created",
		"booking_id", b.ID,
		"host_id", b.HostID,
		"start_at", b.StartAt,
	)

	syncErr := a.syncBooking(ctx, b)
	a.publishCreated(ctx, b)

	if syncErr != nil {
		return b, apperrors.UpstreamFailure("Calendar", syncErr).WithDetails(map[string]any{
			"booking_id":  b.ID,
			"sync_status": b.SyncStatus,
		})
	}
	return b, nil
}

// syncBooking creates the remote event and records the outcome on b and in
// the store. The calendar call is bounded by the sync timeout; the status
// update is not tied to the caller's cancellation.
func (a *App) syncBooking(ctx context.Context, b *Booking) error {
	callCtx, cancel := context.WithTimeout(ctx, a.syncTimeout)
	defer cancel()

	eventID, err := a.calendar.CreateEvent(callCtx, b.HostID, a.calendarEvent(b))
	storeCtx := context.WithoutCancel(ctx)
	b.SyncAttempts++
	if err != nil {
		b.SyncStatus = SyncFailed
		b.LastSyncError = err.Error()
		a.log.Warn("Calendar sync failed", "booking_id", b.ID, "host_id", b.HostID, "error", err)
		if markErr := a.bookings.MarkSyncFailed(storeCtx, b.ID, err.Error()); markErr != nil {
			a.log.Error("Failed to record sync failure", "booking_id", b.ID, "error", markErr)
		}
		return err
	}

	b.SyncStatus = SyncSynced
	b.CalendarEventID = eventID
	b.LastSyncError = ""
	if markErr := a.bookings.MarkSynced(storeCtx, b.ID, eventID); markErr != nil {
		a.log.Error("Failed to record sync success", "booking_id", b.ID, "error", markErr)
	}
	return nil
}

func (a *App) calendarEvent(b *Booking) CalendarEvent {
	return CalendarEvent{
		RequestID:     b.ID,
		Summary:       fmt.Sprintf("%s: %s", a.eventPrefix, b.AttendeeName),
		Description:   b.Notes,
		Start:         b.StartAt.In(a.loc),
		End:           b.StartAt.Add(SlotDuration).In(a.loc),
		TimeZone:      a.loc.String(),
		AttendeeName:  b.AttendeeName,
		AttendeeEmail: b.AttendeeEmail,
	}
}

func (a *App) publishCreated(ctx context.Context, b *Booking) {
	err := a.events.PublishBookingCreated(context.WithoutCancel(ctx), events.BookingCreated{
		BookingID:     b.ID,
		HostID:        b.HostID,
		StartAt:       b.StartAt,
		EndAt:         b.EndAt,
		AttendeeName:  b.AttendeeName,
		AttendeeEmail: b.AttendeeEmail,
		SyncStatus:    b.SyncStatus,
		OccurredAt:    a.now(),
	})
	if err != nil {
		a.log.Warn("Failed to publish booking event", "booking_id", b.ID, "error", err)
	}
}

// ListBookings returns the host's bookings starting in [from, to); zero
// bounds list everything.
func (a *App) ListBookings(ctx context.Context, username string, from, to time.Time) ([]Booking, error) {
	host, err := a.host(ctx, username)
	if err != nil {
		return nil, err
	}
	bookings, err := a.bookings.ListBookings(ctx, host.ID, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to list bookings", err)
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	return bookings, nil
}
