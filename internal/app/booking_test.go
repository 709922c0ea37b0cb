package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"scheduling-service/internal/apperrors"
)

func bookingAt(t time.Time) BookingRequest {
	return BookingRequest{
		AttendeeName:  "Bruno",
		AttendeeEmail: "bruno@example.com",
		Notes:         "intro call",
		StartAt:       t,
	}
}

func TestCreateBooking_TruncatesToHourAndSyncs(t *testing.T) {
	a, store, cal, pub := newTestApp(t)

	b, err := a.CreateBooking(context.Background(), "ana", bookingAt(nextMonday.Add(10*time.Hour+25*time.Minute)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := nextMonday.Add(10 * time.Hour)
	if !b.StartAt.Equal(wantStart) || !b.EndAt.Equal(wantStart.Add(time.Hour)) {
		t.Fatalf("booking spans %s - %s", b.StartAt, b.EndAt)
	}
	if b.ID == "" || b.HostID != "host-1" {
		t.Fatalf("unexpected booking %+v", b)
	}
	if b.SyncStatus != SyncSynced || b.CalendarEventID != "evt-"+b.ID {
		t.Fatalf("sync status = %s, event = %s", b.SyncStatus, b.CalendarEventID)
	}
	if stored := store.booking(b.ID); stored.SyncStatus != SyncSynced {
		t.Fatalf("stored sync status = %s", stored.SyncStatus)
	}

	if len(cal.calls) != 1 {
		t.Fatalf("expected one calendar call, got %d", len(cal.calls))
	}
	evt := cal.calls[0]
	if evt.Summary != "Call: Bruno" || evt.Description != "intro call" || evt.AttendeeEmail != "bruno@example.com" {
		t.Errorf("unexpected event %+v", evt)
	}
	if evt.RequestID != b.ID || !evt.Start.Equal(wantStart) || evt.End.Sub(evt.Start) != time.Hour {
		t.Errorf("unexpected event timing %+v", evt)
	}

	if len(pub.events) != 1 || pub.events[0].BookingID != b.ID || pub.events[0].SyncStatus != SyncSynced {
		t.Fatalf("unexpected published events %+v", pub.events)
	}
}

func TestCreateBooking_Conflict(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	ctx := context.Background()
	slot := nextMonday.Add(10 * time.Hour)

	if _, err := a.CreateBooking(ctx, "ana", bookingAt(slot)); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err := a.CreateBooking(ctx, "ana", bookingAt(slot.Add(15*time.Minute)))
	if !apperrors.Is(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if apperrors.As(err).HTTPStatus != http.StatusBadRequest {
		t.Fatalf("conflict should map to 400")
	}

	if _, err := a.CreateBooking(ctx, "ana", bookingAt(slot.Add(time.Hour))); err != nil {
		t.Fatalf("different hour should succeed: %v", err)
	}
}

func TestCreateBooking_PastInstant(t *testing.T) {
	a, store, cal, _ := newTestApp(t)

	_, err := a.CreateBooking(context.Background(), "ana", bookingAt(testNow.Add(-time.Minute)))
	if !apperrors.Is(err, apperrors.CodeInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
	if len(store.bookings) != 0 || len(cal.calls) != 0 {
		t.Fatal("nothing should be persisted or synced")
	}
}

func TestCreateBooking_CurrentHourIsPast(t *testing.T) {
	a, _, _, _ := newTestApp(t)

	// 12:30 truncates to 12:00, which is not before now (12:00).
	if _, err := a.CreateBooking(context.Background(), "ana", bookingAt(testNow.Add(30*time.Minute))); err != nil {
		t.Fatalf("booking the current hour at its start should succeed: %v", err)
	}
	a.now = func() time.Time { return testNow.Add(time.Minute) }
	_, err := a.CreateBooking(context.Background(), "ana", bookingAt(testNow.Add(59*time.Minute)))
	if !apperrors.Is(err, apperrors.CodeInvalidDate) {
		t.Fatalf("expected invalid date once the hour started, got %v", err)
	}
}

func TestCreateBooking_UnknownHost(t *testing.T) {
	a, _, _, _ := newTestApp(t)

	_, err := a.CreateBooking(context.Background(), "nobody", bookingAt(nextMonday.Add(10*time.Hour)))
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateBooking_CalendarFailureKeepsBooking(t *testing.T) {
	a, store, cal, pub := newTestApp(t)
	cal.createFn = func(context.Context, string, CalendarEvent) (string, error) {
		return "", errors.New("google unavailable")
	}

	b, err := a.CreateBooking(context.Background(), "ana", bookingAt(nextMonday.Add(9*time.Hour)))
	appErr := apperrors.As(err)
	if appErr.Code != apperrors.CodeUpstreamFailure || appErr.HTTPStatus != http.StatusBadGateway {
		t.Fatalf("expected upstream failure, got %v", err)
	}
	if appErr.Details["booking_id"] != b.ID {
		t.Fatalf("details should carry the booking id, got %v", appErr.Details)
	}

	stored := store.booking(b.ID)
	if stored.SyncStatus != SyncFailed || stored.SyncAttempts != 1 || !strings.Contains(stored.LastSyncError, "google unavailable") {
		t.Fatalf("unexpected stored booking %+v", stored)
	}
	if len(pub.events) != 1 || pub.events[0].SyncStatus != SyncFailed {
		t.Fatalf("event should still be published with failed status: %+v", pub.events)
	}
}

func TestCreateBooking_CalendarTimeout(t *testing.T) {
	a, _, cal, _ := newTestApp(t)
	a.syncTimeout = 10 * time.Millisecond
	cal.createFn = func(ctx context.Context, _ string, _ CalendarEvent) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	_, err := a.CreateBooking(context.Background(), "ana", bookingAt(nextMonday.Add(9*time.Hour)))
	if !apperrors.Is(err, apperrors.CodeUpstreamFailure) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected upstream timeout, got %v", err)
	}
}

func TestCreateBooking_PublishFailureIsNotReturned(t *testing.T) {
	a, _, _, pub := newTestApp(t)
	pub.err = errors.New("kafka down")

	if _, err := a.CreateBooking(context.Background(), "ana", bookingAt(nextMonday.Add(9*time.Hour))); err != nil {
		t.Fatalf("publish errors must not fail the booking: %v", err)
	}
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	a, store, _, _ := newTestApp(t)
	slot := nextMonday.Add(11 * time.Hour)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.CreateBooking(context.Background(), "ana", bookingAt(slot))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case apperrors.Is(err, apperrors.CodeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != workers-1 {
		t.Fatalf("created = %d, conflicts = %d", created, conflicts)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("expected one stored booking, got %d", len(store.bookings))
	}
}

func TestListBookings(t *testing.T) {
	a, _, _, _ := newTestApp(t)
	ctx := context.Background()
	for _, h := range []int{11, 9} {
		if _, err := a.CreateBooking(ctx, "ana", bookingAt(nextMonday.Add(time.Duration(h)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}

	all, err := a.ListBookings(ctx, "ana", time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].StartAt.Hour() != 9 {
		t.Fatalf("unexpected bookings %+v", all)
	}

	some, err := a.ListBookings(ctx, "ana", nextMonday.Add(10*time.Hour), nextMonday.Add(12*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(some) != 1 || some[0].StartAt.Hour() != 11 {
		t.Fatalf("unexpected filtered bookings %+v", some)
	}
}
