package app

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/oauth2"

	"scheduling-service/internal/availability"
)

//go:embed schema.sql
var schema string

const (
	pgUniqueViolation  = "23505"
	bookingSlotKeyName = "bookings_host_slot_key"
)

// Store is the Postgres implementation of every store interface.
type Store struct {
	DB *pgxpool.Pool
}

func OpenPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, schema)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *Store) HostByUsername(ctx context.Context, username string) (Host, error) {
	var h Host
	err := s.DB.QueryRow(ctx,
		`SELECT id::text, username, name, email FROM hosts WHERE username=$1`, username,
	).Scan(&h.ID, &h.Username, &h.Name, &h.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return Host{}, ErrHostNotFound
	}
	return h, err
}

func (s *Store) ListRules(ctx context.Context, hostID string) ([]availability.Rule, error) {
	q := `SELECT id, host_id::text, week_day, start_minute, end_minute, created_at, updated_at
	      FROM availability_rules WHERE host_id=$1 ORDER BY week_day`
	rows, err := s.DB.Query(ctx, q, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Rule
	for rows.Next() {
		var r availability.Rule
		if err := rows.Scan(&r.ID, &r.HostID, &r.WeekDay, &r.StartMinute, &r.EndMinute,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceRules swaps the host's whole weekly configuration in one transaction.
func (s *Store) ReplaceRules(ctx context.Context, hostID string, rules []availability.Rule) ([]availability.Rule, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM availability_rules WHERE host_id=$1`, hostID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	q := `INSERT INTO availability_rules (host_id, week_day, start_minute, end_minute, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$5) RETURNING id`
	saved := make([]availability.Rule, 0, len(rules))
	for _, r := range rules {
		r.HostID = hostID
		r.CreatedAt, r.UpdatedAt = now, now
		if err := tx.QueryRow(ctx, q, hostID, r.WeekDay, r.StartMinute, r.EndMinute, now).Scan(&r.ID); err != nil {
			return nil, err
		}
		saved = append(saved, r)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) ListBookingStarts(ctx context.Context, hostID string, from, to time.Time) ([]time.Time, error) {
	q := `SELECT start_at FROM bookings WHERE host_id=$1 AND start_at >= $2 AND start_at <= $3`
	rows, err := s.DB.Query(ctx, q, hostID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const bookingColumns = `id::text, host_id::text, start_at, attendee_name, attendee_email, notes,
	sync_status, sync_attempts, calendar_event_id, last_sync_error, created_at`

func (s *Store) ListBookings(ctx context.Context, hostID string, from, to time.Time) ([]Booking, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if from.IsZero() || to.IsZero() {
		rows, err = s.DB.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
			WHERE host_id=$1 ORDER BY start_at`, hostID)
	} else {
		rows, err = s.DB.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
			WHERE host_id=$1 AND start_at >= $2 AND start_at < $3 ORDER BY start_at`, hostID, from, to)
	}
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// InsertBooking checks for an existing booking under a row lock and relies on
// the (host_id, start_at) unique constraint for inserts that race past it.
func (s *Store) InsertBooking(ctx context.Context, b *Booking) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var existingID string
	err = tx.QueryRow(ctx,
		`SELECT id::text FROM bookings WHERE host_id=$1 AND start_at=$2 FOR UPDATE`,
		b.HostID, b.StartAt.UTC(),
	).Scan(&existingID)
	if err == nil {
		return ErrSlotTaken
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	insertQ := `INSERT INTO bookings
		(id, host_id, start_at, attendee_name, attendee_email, notes, sync_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING created_at`
	err = tx.QueryRow(ctx, insertQ,
		b.ID, b.HostID, b.StartAt.UTC(), b.AttendeeName, b.AttendeeEmail, b.Notes, b.SyncStatus,
	).Scan(&b.CreatedAt)
	if isSlotConflict(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) MarkSynced(ctx context.Context, bookingID, eventID string) error {
	_, err := s.DB.Exec(ctx, `UPDATE bookings
		SET sync_status='synced', calendar_event_id=$2, sync_attempts=sync_attempts+1, last_sync_error=''
		WHERE id=$1`, bookingID, eventID)
	return err
}

func (s *Store) MarkSyncFailed(ctx context.Context, bookingID, cause string) error {
	_, err := s.DB.Exec(ctx, `UPDATE bookings
		SET sync_status='failed', sync_attempts=sync_attempts+1, last_sync_error=$2
		WHERE id=$1`, bookingID, cause)
	return err
}

func (s *Store) ListUnsynced(ctx context.Context, cutoff time.Time, maxAttempts, limit int) ([]Booking, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE sync_status <> 'synced' AND sync_attempts < $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3`, maxAttempts, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (s *Store) HostToken(ctx context.Context, hostID string) (*oauth2.Token, error) {
	var (
		tok    oauth2.Token
		expiry *time.Time
	)
	err := s.DB.QueryRow(ctx,
		`SELECT access_token, refresh_token, token_type, expiry FROM host_calendar_tokens WHERE host_id=$1`, hostID,
	).Scan(&tok.AccessToken, &tok.RefreshToken, &tok.TokenType, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoCalendarToken
	}
	if err != nil {
		return nil, err
	}
	if expiry != nil {
		tok.Expiry = *expiry
	}
	return &tok, nil
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.HostID, &b.StartAt, &b.AttendeeName, &b.AttendeeEmail, &b.Notes,
			&b.SyncStatus, &b.SyncAttempts, &b.CalendarEventID, &b.LastSyncError, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.EndAt = b.StartAt.Add(SlotDuration)
		out = append(out, b)
	}
	return out, rows.Err()
}

// isSlotConflict reports whether err is the (host_id, start_at) unique key
// rejecting a second booking for the same slot.
func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgUniqueViolation &&
		pgErr.ConstraintName == bookingSlotKeyName
}
