package availability

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

// 2025-06-02 is a Monday.
var (
	monday  = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	tuesday = monday.AddDate(0, 0, 1)
)

func window(day Weekday, start, end string, available bool) *Window {
	return &Window{
		ID:          uuid.New(),
		DoctorID:    uuid.New(),
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: available,
	}
}

func TestWeekdayOf_FullWeek(t *testing.T) {
	// Walk Monday through Sunday from a known Monday.
	want := []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
	for i, expected := range want {
		date := monday.AddDate(0, 0, i)
		if got := WeekdayOf(date); got != expected {
			t.Errorf("WeekdayOf(%s) = %v, want %v", date.Format("2006-01-02"), got, expected)
		}
	}
}

func TestResolveSlots_MondayWindow(t *testing.T) {
	windows := []*Window{window(Monday, "09:00", "10:00", true)}

	got := ResolveSlots(windows, monday, 30)
	want := []string{"09:00", "09:30"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveSlots = %v, want %v", got, want)
	}
}

func TestResolveSlots_WrongDay(t *testing.T) {
	windows := []*Window{window(Monday, "09:00", "10:00", true)}

	got := ResolveSlots(windows, tuesday, 30)
	if len(got) != 0 {
		t.Errorf("expected no slots on Tuesday, got %v", got)
	}
}

func TestResolveSlots_UnavailableWindowExcluded(t *testing.T) {
	windows := []*Window{window(Monday, "09:00", "17:00", false)}

	if got := ResolveSlots(windows, monday, 30); len(got) != 0 {
		t.Errorf("unavailable window contributed slots: %v", got)
	}
}

func TestResolveSlots_CountProperty(t *testing.T) {
	// count == floor((end-start)/interval) for well-formed windows
	cases := []struct {
		start, end string
		interval   int
		want       int
	}{
		{"09:00", "10:00", 30, 2},
		{"09:00", "10:00", 15, 4},
		{"09:00", "09:50", 30, 1}, // 50/30 -> 1, last slot must fully fit
		{"09:00", "09:29", 30, 0},
		{"08:00", "12:00", 60, 4},
		{"23:00", "23:59", 30, 1},
	}
	for _, tc := range cases {
		windows := []*Window{window(Monday, tc.start, tc.end, true)}
		got := ResolveSlots(windows, monday, tc.interval)
		if len(got) != tc.want {
			t.Errorf("%s-%s interval %d: got %d slots %v, want %d",
				tc.start, tc.end, tc.interval, len(got), got, tc.want)
		}
		for _, slot := range got {
			start, err := ParseClock(slot)
			if err != nil {
				t.Fatalf("resolver emitted malformed slot %q: %v", slot, err)
			}
			end, _ := ParseClock(tc.end)
			if start+tc.interval > end {
				t.Errorf("slot %s + %dm overruns window end %s", slot, tc.interval, tc.end)
			}
		}
	}
}

func TestResolveSlots_Idempotent(t *testing.T) {
	windows := []*Window{
		window(Monday, "09:00", "12:00", true),
		window(Monday, "14:00", "16:00", true),
	}
	first := ResolveSlots(windows, monday, 30)
	second := ResolveSlots(windows, monday, 30)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolver not idempotent: %v vs %v", first, second)
	}
}

func TestResolveSlots_InvertedWindowContributesNothing(t *testing.T) {
	windows := []*Window{
		window(Monday, "15:00", "09:00", true), // inverted
		window(Monday, "09:00", "10:00", true),
	}
	got := ResolveSlots(windows, monday, 30)
	want := []string{"09:00", "09:30"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("inverted window affected siblings: got %v, want %v", got, want)
	}
}

func TestResolveSlots_ZeroLengthWindow(t *testing.T) {
	windows := []*Window{window(Monday, "09:00", "09:00", true)}
	if got := ResolveSlots(windows, monday, 30); len(got) != 0 {
		t.Errorf("zero-length window produced slots: %v", got)
	}
}

func TestResolveSlots_OverlappingWindowsConcatenateInOrder(t *testing.T) {
	// Overlap is legal; duplicates and out-of-order output are accepted.
	windows := []*Window{
		window(Monday, "10:00", "11:00", true),
		window(Monday, "09:30", "10:30", true),
	}
	got := ResolveSlots(windows, monday, 30)
	want := []string{"10:00", "10:30", "09:30", "10:00"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveSlots = %v, want %v", got, want)
	}
}

func TestResolveSlots_NonDivisibleLengthStopsEarly(t *testing.T) {
	windows := []*Window{window(Monday, "09:00", "09:45", true)}
	got := ResolveSlots(windows, monday, 30)
	want := []string{"09:00"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveSlots = %v, want %v", got, want)
	}
}

func TestResolveSlots_DefaultInterval(t *testing.T) {
	windows := []*Window{window(Monday, "09:00", "10:00", true)}
	got := ResolveSlots(windows, monday, 0)
	want := []string{"09:00", "09:30"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected default 30-minute interval, got %v", got)
	}
}

func TestResolveSlots_HourRollover(t *testing.T) {
	windows := []*Window{window(Monday, "09:45", "11:00", true)}
	got := ResolveSlots(windows, monday, 30)
	want := []string{"09:45", "10:15"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveSlots = %v, want %v", got, want)
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:00", 0, true},
		{"09:60", 0, true},
		{"0900", 0, true},
		{"", 0, true},
		{"ab:cd", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(570); got != "09:30" {
		t.Errorf("FormatClock(570) = %q, want 09:30", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Errorf("FormatClock(0) = %q, want 00:00", got)
	}
}
