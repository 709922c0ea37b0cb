package availability

import (
	"reflect"
	"testing"
	"time"
)

var mondayMorning = Rule{WeekDay: int(time.Monday), StartMinute: 9 * 60, EndMinute: 12 * 60}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestForDay(t *testing.T) {
	monday := at(2024, time.May, 6, 0, 0)
	wednesdayBefore := at(2024, time.May, 1, 12, 0)

	tests := []struct {
		name      string
		date      time.Time
		rules     []Rule
		booked    []time.Time
		now       time.Time
		possible  []int
		available []int
	}{
		{
			name:      "future monday without bookings",
			date:      monday,
			rules:     []Rule{mondayMorning},
			now:       wednesdayBefore,
			possible:  []int{9, 10, 11},
			available: []int{9, 10, 11},
		},
		{
			name:      "booked hour is removed",
			date:      monday,
			rules:     []Rule{mondayMorning},
			booked:    []time.Time{at(2024, time.May, 6, 10, 0)},
			now:       wednesdayBefore,
			possible:  []int{9, 10, 11},
			available: []int{9, 11},
		},
		{
			name:      "past hours of today are removed",
			date:      monday,
			rules:     []Rule{mondayMorning},
			now:       at(2024, time.May, 6, 10, 30),
			possible:  []int{9, 10, 11},
			available: []int{11},
		},
		{
			name:      "past day short-circuits",
			date:      monday,
			rules:     []Rule{mondayMorning},
			now:       at(2024, time.May, 7, 0, 0),
			possible:  []int{},
			available: []int{},
		},
		{
			name:      "weekday without rule",
			date:      at(2024, time.May, 7, 0, 0),
			rules:     []Rule{mondayMorning},
			now:       wednesdayBefore,
			possible:  []int{},
			available: []int{},
		},
		{
			name:  "bookings outside the window are ignored",
			date:  monday,
			rules: []Rule{mondayMorning},
			booked: []time.Time{
				at(2024, time.May, 5, 10, 0),
				at(2024, time.May, 13, 9, 0),
				at(2024, time.May, 6, 8, 0),
			},
			now:       wednesdayBefore,
			possible:  []int{9, 10, 11},
			available: []int{9, 10, 11},
		},
		{
			name:      "unaligned rule rounds inward",
			date:      monday,
			rules:     []Rule{{WeekDay: int(time.Monday), StartMinute: 9*60 + 30, EndMinute: 12*60 + 30}},
			now:       wednesdayBefore,
			possible:  []int{10, 11},
			available: []int{10, 11},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForDay(tt.date, tt.rules, tt.booked, tt.now)
			if !reflect.DeepEqual(got.PossibleTimes, tt.possible) {
				t.Errorf("possible = %v, want %v", got.PossibleTimes, tt.possible)
			}
			if !reflect.DeepEqual(got.AvailableTimes, tt.available) {
				t.Errorf("available = %v, want %v", got.AvailableTimes, tt.available)
			}
		})
	}
}

func TestForDay_AvailableSubsetOfPossible(t *testing.T) {
	rules := []Rule{
		mondayMorning,
		{WeekDay: int(time.Tuesday), StartMinute: 0, EndMinute: MinutesPerDay},
		{WeekDay: int(time.Friday), StartMinute: 13 * 60, EndMinute: 18 * 60},
	}
	booked := []time.Time{at(2024, time.May, 7, 3, 0), at(2024, time.May, 10, 15, 0)}
	now := at(2024, time.May, 7, 5, 15)

	for d := 1; d <= 14; d++ {
		date := at(2024, time.May, d, 0, 0)
		got := ForDay(date, rules, booked, now)
		possible := make(map[int]bool, len(got.PossibleTimes))
		for _, h := range got.PossibleTimes {
			possible[h] = true
		}
		for _, h := range got.AvailableTimes {
			if !possible[h] {
				t.Fatalf("%s: available hour %d not in possible %v", date.Format(time.DateOnly), h, got.PossibleTimes)
			}
		}
	}
}

func TestForDay_Idempotent(t *testing.T) {
	date := at(2024, time.May, 6, 0, 0)
	booked := []time.Time{at(2024, time.May, 6, 9, 0)}
	now := at(2024, time.May, 1, 0, 0)

	first := ForDay(date, []Rule{mondayMorning}, booked, now)
	second := ForDay(date, []Rule{mondayMorning}, booked, now)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %v and %v", first, second)
	}
}

func TestForDay_UsesDateLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	date := time.Date(2024, time.May, 6, 0, 0, 0, 0, loc)
	// 13:00 UTC is 10:00 at UTC-3.
	booked := []time.Time{at(2024, time.May, 6, 13, 0)}

	got := ForDay(date, []Rule{mondayMorning}, booked, at(2024, time.May, 1, 0, 0))
	if !reflect.DeepEqual(got.AvailableTimes, []int{9, 11}) {
		t.Fatalf("available = %v, want [9 11]", got.AvailableTimes)
	}
}

func TestBookingWindow_InclusiveUpperBound(t *testing.T) {
	date := at(2024, time.May, 6, 0, 0)
	from, to := BookingWindow(date, mondayMorning)
	if !from.Equal(at(2024, time.May, 6, 9, 0)) {
		t.Fatalf("from = %s", from)
	}
	if !to.Equal(at(2024, time.May, 6, 12, 0)) {
		t.Fatalf("to = %s", to)
	}
}

func TestRuleHours(t *testing.T) {
	tests := []struct {
		rule     Rule
		start    int
		end      int
		capacity int
	}{
		{Rule{StartMinute: 540, EndMinute: 720}, 9, 12, 3},
		{Rule{StartMinute: 0, EndMinute: 1440}, 0, 24, 24},
		{Rule{StartMinute: 570, EndMinute: 600}, 10, 10, 0},
		{Rule{StartMinute: 545, EndMinute: 719}, 10, 11, 1},
	}
	for _, tt := range tests {
		if got := tt.rule.StartHour(); got != tt.start {
			t.Errorf("%+v StartHour = %d, want %d", tt.rule, got, tt.start)
		}
		if got := tt.rule.EndHour(); got != tt.end {
			t.Errorf("%+v EndHour = %d, want %d", tt.rule, got, tt.end)
		}
		if got := tt.rule.Capacity(); got != tt.capacity {
			t.Errorf("%+v Capacity = %d, want %d", tt.rule, got, tt.capacity)
		}
	}
}

func TestStartOfHour(t *testing.T) {
	got := StartOfHour(at(2024, time.May, 6, 10, 47))
	if !got.Equal(at(2024, time.May, 6, 10, 0)) {
		t.Fatalf("got %s", got)
	}
}
