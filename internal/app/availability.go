package app

import (
	"context"
	"time"

	"scheduling-service/internal/apperrors"
	"scheduling-service/internal/availability"
)

type CalendarMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	availability.BlockedDates
	Weeks []availability.Week `json:"weeks"`
}

// ComputeAvailability returns the hours offered on date and those still free.
func (a *App) ComputeAvailability(ctx context.Context, username string, date time.Time) (availability.DayAvailability, error) {
	host, err := a.host(ctx, username)
	if err != nil {
		return availability.DayAvailability{}, err
	}

	day := availability.StartOfDay(date.In(a.loc))
	now := a.now()
	if availability.IsPastDay(day, now) {
		return availability.ForDay(day, nil, nil, now), nil
	}

	rules, err := a.rules.ListRules(ctx, host.ID)
	if err != nil {
		return availability.DayAvailability{}, apperrors.Internal("Failed to load availability", err)
	}
	rule, ok := availability.RuleFor(rules, day.Weekday())
	if !ok {
		return availability.ForDay(day, rules, nil, now), nil
	}

	from, to := availability.BookingWindow(day, rule)
	booked, err := a.bookings.ListBookingStarts(ctx, host.ID, from, to)
	if err != nil {
		return availability.DayAvailability{}, apperrors.Internal("Failed to load bookings", err)
	}
	return availability.ForDay(day, rules, booked, now), nil
}

// ComputeBlockedDays returns the closed weekdays and fully booked days of a month.
func (a *App) ComputeBlockedDays(ctx context.Context, username string, year int, month time.Month) (availability.BlockedDates, error) {
	host, err := a.host(ctx, username)
	if err != nil {
		return availability.BlockedDates{}, err
	}
	return a.blockedDays(ctx, host, year, month)
}

func (a *App) blockedDays(ctx context.Context, host Host, year int, month time.Month) (availability.BlockedDates, error) {
	rules, err := a.rules.ListRules(ctx, host.ID)
	if err != nil {
		return availability.BlockedDates{}, apperrors.Internal("Failed to load availability", err)
	}

	first, next := availability.MonthRange(year, month, a.loc)
	booked, err := a.bookings.ListBookingStarts(ctx, host.ID, first, next.Add(-time.Nanosecond))
	if err != nil {
		return availability.BlockedDates{}, apperrors.Internal("Failed to load bookings", err)
	}
	return availability.BlockedDays(year, month, a.loc, rules, booked), nil
}

// BuildCalendar lays out the month grid with unavailable days disabled.
func (a *App) BuildCalendar(ctx context.Context, username string, year int, month time.Month) (CalendarMonth, error) {
	host, err := a.host(ctx, username)
	if err != nil {
		return CalendarMonth{}, err
	}
	blocked, err := a.blockedDays(ctx, host, year, month)
	if err != nil {
		return CalendarMonth{}, err
	}

	first, _ := availability.MonthRange(year, month, a.loc)
	return CalendarMonth{
		Year:         year,
		Month:        int(month),
		BlockedDates: blocked,
		Weeks:        availability.MonthGrid(first, blocked, a.now()),
	}, nil
}
