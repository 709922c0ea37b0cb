package availability

import (
	"encoding/json"
	"time"
)

type Day struct {
	Date     time.Time
	Disabled bool
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date     string `json:"date"`
		Day      int    `json:"day"`
		Disabled bool   `json:"disabled"`
	}{
		Date:     d.Date.Format(time.DateOnly),
		Day:      d.Date.Day(),
		Disabled: d.Disabled,
	})
}

type Week struct {
	Week int   `json:"week"`
	Days []Day `json:"days"`
}

// MonthGrid lays out the month containing firstOfMonth as Sunday-first weeks.
// Padding days from the neighbouring months are always disabled.
func MonthGrid(firstOfMonth time.Time, blocked BlockedDates, now time.Time) []Week {
	y, m, _ := firstOfMonth.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, firstOfMonth.Location())
	last := first.AddDate(0, 1, -1)

	leading := int(first.Weekday())
	trailing := DaysPerWeek - (int(last.Weekday()) + 1)

	days := make([]Day, 0, leading+last.Day()+trailing)
	for i := leading; i > 0; i-- {
		days = append(days, Day{Date: first.AddDate(0, 0, -i), Disabled: true})
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, Day{
			Date: d,
			Disabled: IsPastDay(d, now) ||
				contains(blocked.BlockedWeekDays, int(d.Weekday())) ||
				contains(blocked.BlockedDates, d.Day()),
		})
	}
	for i := 1; i <= trailing; i++ {
		days = append(days, Day{Date: last.AddDate(0, 0, i), Disabled: true})
	}

	weeks := make([]Week, 0, len(days)/DaysPerWeek)
	for i := 0; i < len(days); i += DaysPerWeek {
		weeks = append(weeks, Week{Week: i/DaysPerWeek + 1, Days: days[i : i+DaysPerWeek]})
	}
	return weeks
}
