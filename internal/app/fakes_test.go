package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"scheduling-service/internal/availability"
	"scheduling-service/internal/events"
)

// memStore is an in-memory HostStore, RuleStore and BookingStore enforcing
// one booking per (host, start).
type memStore struct {
	mu        sync.Mutex
	hosts     map[string]Host
	rules     map[string][]availability.Rule
	bookings  []Booking
	createdAt time.Time

	listErr error
}

func newMemStore() *memStore {
	return &memStore{
		hosts: map[string]Host{},
		rules: map[string][]availability.Rule{},
	}
}

func (m *memStore) addHost(username, id string, rules ...availability.Rule) {
	m.hosts[username] = Host{ID: id, Username: username, Name: username}
	m.rules[id] = rules
}

func (m *memStore) HostByUsername(_ context.Context, username string) (Host, error) {
	h, ok := m.hosts[username]
	if !ok {
		return Host{}, ErrHostNotFound
	}
	return h, nil
}

func (m *memStore) ListRules(_ context.Context, hostID string) ([]availability.Rule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rules[hostID], nil
}

func (m *memStore) ReplaceRules(_ context.Context, hostID string, rules []availability.Rule) ([]availability.Rule, error) {
	for i := range rules {
		rules[i].ID = i + 1
	}
	m.rules[hostID] = rules
	return rules, nil
}

func (m *memStore) ListBookingStarts(_ context.Context, hostID string, from, to time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Time
	for _, b := range m.bookings {
		if b.HostID == hostID && !b.StartAt.Before(from) && !b.StartAt.After(to) {
			out = append(out, b.StartAt)
		}
	}
	return out, nil
}

func (m *memStore) ListBookings(_ context.Context, hostID string, from, to time.Time) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.HostID != hostID {
			continue
		}
		if !from.IsZero() && !to.IsZero() && (b.StartAt.Before(from) || !b.StartAt.Before(to)) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (m *memStore) InsertBooking(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookings {
		if existing.HostID == b.HostID && existing.StartAt.Equal(b.StartAt) {
			return ErrSlotTaken
		}
	}
	b.CreatedAt = m.createdAt
	m.bookings = append(m.bookings, *b)
	return nil
}

func (m *memStore) update(id string, fn func(*Booking)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		if m.bookings[i].ID == id {
			fn(&m.bookings[i])
			return nil
		}
	}
	return errors.New("booking not found")
}

func (m *memStore) MarkSynced(_ context.Context, id, eventID string) error {
	return m.update(id, func(b *Booking) {
		b.SyncStatus = SyncSynced
		b.CalendarEventID = eventID
		b.SyncAttempts++
		b.LastSyncError = ""
	})
}

func (m *memStore) MarkSyncFailed(_ context.Context, id, cause string) error {
	return m.update(id, func(b *Booking) {
		b.SyncStatus = SyncFailed
		b.SyncAttempts++
		b.LastSyncError = cause
	})
}

func (m *memStore) ListUnsynced(_ context.Context, cutoff time.Time, maxAttempts, limit int) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		if b.SyncStatus != SyncSynced && b.SyncAttempts < maxAttempts && b.CreatedAt.Before(cutoff) {
			out = append(out, b)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) booking(id string) Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			return b
		}
	}
	return Booking{}
}

type fakeCalendar struct {
	mu       sync.Mutex
	calls    []CalendarEvent
	createFn func(ctx context.Context, hostID string, evt CalendarEvent) (string, error)
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, hostID string, evt CalendarEvent) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, evt)
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(ctx, hostID, evt)
	}
	return "evt-" + evt.RequestID, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingCreated
	err    error
}

func (p *recordingPublisher) PublishBookingCreated(_ context.Context, evt events.BookingCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type staticTokens struct {
	token *oauth2.Token
	err   error
}

func (s staticTokens) HostToken(context.Context, string) (*oauth2.Token, error) {
	return s.token, s.err
}
