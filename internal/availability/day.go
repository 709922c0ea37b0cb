package availability

import "time"

type DayAvailability struct {
	PossibleTimes  []int `json:"possible_times"`
	AvailableTimes []int `json:"available_times"`
}

func emptyDay() DayAvailability {
	return DayAvailability{PossibleTimes: []int{}, AvailableTimes: []int{}}
}

// ForDay computes the hours a host offers on date and which of them can still
// be booked. date is interpreted in its own location; booked holds the start
// instants of existing bookings and may span more than the day.
func ForDay(date time.Time, rules []Rule, booked []time.Time, now time.Time) DayAvailability {
	if IsPastDay(date, now) {
		return emptyDay()
	}

	rule, ok := RuleFor(rules, date.Weekday())
	if !ok {
		return emptyDay()
	}

	from, to := BookingWindow(date, rule)
	taken := make(map[int]struct{}, len(booked))
	for _, b := range booked {
		if b.Before(from) || b.After(to) {
			continue
		}
		taken[b.In(date.Location()).Hour()] = struct{}{}
	}

	out := emptyDay()
	for hour := rule.StartHour(); hour < rule.EndHour(); hour++ {
		out.PossibleTimes = append(out.PossibleTimes, hour)
		if _, ok := taken[hour]; ok {
			continue
		}
		if AtHour(date, hour).Before(now) {
			continue
		}
		out.AvailableTimes = append(out.AvailableTimes, hour)
	}
	return out
}

// BookingWindow is the range of booking start instants relevant to rule on
// date. The upper bound is inclusive, so a booking at the closing hour is
// also fetched.
func BookingWindow(date time.Time, rule Rule) (from, to time.Time) {
	return AtHour(date, rule.StartHour()), AtHour(date, rule.EndHour())
}

// IsPastDay reports whether the whole of date's day lies before now.
func IsPastDay(date, now time.Time) bool {
	return EndOfDay(date).Before(now)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// AtHour returns date's calendar day at hour:00 local time.
func AtHour(date time.Time, hour int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, date.Location())
}

// StartOfHour drops minutes and below in t's location.
func StartOfHour(t time.Time) time.Time {
	return AtHour(t, t.Hour())
}
