// Package availability derives bookable hours and blocked calendar days from a
// host's weekly rules and existing bookings. Every function here is pure: the
// caller supplies rules, booked start instants and the current instant.
package availability

import "time"

const (
	MinutesPerDay = 24 * 60
	DaysPerWeek   = 7
)

// Rule is a host's single open interval for one weekday, in minutes since
// local midnight. WeekDay follows time.Weekday (0 = Sunday).
type Rule struct {
	ID          int       `json:"id,omitempty"`
	HostID      string    `json:"host_id,omitempty"`
	WeekDay     int       `json:"week_day"`
	StartMinute int       `json:"start_minute"`
	EndMinute   int       `json:"end_minute"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// StartHour is the first whole hour inside the interval. A start that is not
// on the hour is rounded up so no slot begins before the host opens.
func (r Rule) StartHour() int {
	return (r.StartMinute + 59) / 60
}

// EndHour is the exclusive end hour, rounded down to the last whole hour.
func (r Rule) EndHour() int {
	return r.EndMinute / 60
}

// Capacity is the number of one-hour slots the rule yields per day.
func (r Rule) Capacity() int {
	return max(0, r.EndHour()-r.StartHour())
}

// RuleFor returns the rule configured for weekday, if any.
func RuleFor(rules []Rule, weekday time.Weekday) (Rule, bool) {
	for _, r := range rules {
		if r.WeekDay == int(weekday) {
			return r, true
		}
	}
	return Rule{}, false
}
