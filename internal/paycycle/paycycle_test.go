package paycycle

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPayday(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  time.Time
	}{
		{2025, time.January, day(2025, 1, 10)}, // Friday
		{2025, time.May, day(2025, 5, 9)},      // 10th is Saturday
		{2025, time.August, day(2025, 8, 8)},   // 10th is Sunday
		{2024, time.February, day(2024, 2, 9)}, // leap year, Saturday
		{2024, time.March, day(2024, 3, 8)},    // Sunday
		{2026, time.January, day(2026, 1, 9)},  // Saturday
		{2025, time.December, day(2025, 12, 10)},
	}
	for _, tc := range cases {
		got := Payday(tc.year, tc.month, time.UTC)
		if !got.Equal(tc.want) {
			t.Errorf("Payday(%d, %s) = %s, want %s", tc.year, tc.month, got.Format(time.DateOnly), tc.want.Format(time.DateOnly))
		}
	}
}

func TestPaydayNeverThursdayOrWeekend(t *testing.T) {
	for year := 2000; year <= 2040; year++ {
		for month := time.January; month <= time.December; month++ {
			tenth := day(year, month, 10)
			got := Payday(year, month, time.UTC)
			switch tenth.Weekday() {
			case time.Saturday:
				if got.Day() != 9 {
					t.Fatalf("%d-%02d: 10th is Saturday, got day %d", year, month, got.Day())
				}
			case time.Sunday:
				if got.Day() != 8 {
					t.Fatalf("%d-%02d: 10th is Sunday, got day %d", year, month, got.Day())
				}
			default:
				if got.Day() != 10 {
					t.Fatalf("%d-%02d: expected the 10th, got day %d", year, month, got.Day())
				}
			}
			if got.Weekday() == time.Saturday || got.Weekday() == time.Sunday {
				t.Fatalf("%d-%02d: payday on a weekend", year, month)
			}
		}
	}
}

func TestCurrent(t *testing.T) {
	cases := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "before payday",
			now:       time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC),
			wantStart: day(2025, 2, 11),
			wantEnd:   time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "shifted payday belongs to the old cycle",
			now:       time.Date(2025, 5, 9, 15, 0, 0, 0, time.UTC),
			wantStart: day(2025, 4, 11),
			wantEnd:   time.Date(2025, 5, 9, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "day after shifted payday starts a new cycle",
			now:       time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
			wantStart: day(2025, 5, 10),
			wantEnd:   time.Date(2025, 6, 10, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "december rolls into january",
			now:       time.Date(2025, 12, 20, 18, 0, 0, 0, time.UTC),
			wantStart: day(2025, 12, 11),
			wantEnd:   time.Date(2026, 1, 9, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "january looks back to december",
			now:       time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
			wantStart: day(2025, 12, 11),
			wantEnd:   time.Date(2026, 1, 9, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "leap february",
			now:       time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
			wantStart: day(2024, 2, 10),
			wantEnd:   time.Date(2024, 3, 8, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "late january to short february",
			now:       time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC),
			wantStart: day(2025, 1, 11),
			wantEnd:   time.Date(2025, 2, 10, 23, 59, 59, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Current(tc.now)
			if !got.Start.Equal(tc.wantStart) || !got.End.Equal(tc.wantEnd) {
				t.Fatalf("Current(%s) = [%s, %s], want [%s, %s]", tc.now,
					got.Start, got.End, tc.wantStart, tc.wantEnd)
			}
			if !got.Contains(tc.now) {
				t.Fatalf("cycle does not contain now")
			}
		})
	}
}

func TestCurrentOnPaydayStaysInEndingCycle(t *testing.T) {
	payday := Payday(2025, time.May, time.UTC)
	for _, now := range []time.Time{
		payday,
		payday.Add(23*time.Hour + 59*time.Minute + 59*time.Second),
	} {
		got := Current(now)
		if !got.End.Equal(time.Date(2025, 5, 9, 23, 59, 59, 0, time.UTC)) {
			t.Fatalf("now=%s: expected cycle ending on payday, got end %s", now, got.End)
		}
	}
}

func TestCyclesAreContiguous(t *testing.T) {
	now := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	prev := Current(now)
	for i := 0; i < 36; i++ {
		next := Current(prev.End.Add(time.Second))
		if !next.Start.Equal(prev.End.Add(time.Second)) {
			t.Fatalf("gap between %s and %s", prev.End, next.Start)
		}
		prev = next
	}
}

func TestCurrentKeepsLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got := Current(time.Date(2025, 3, 3, 0, 30, 0, 0, loc))
	if got.Start.Location() != loc || got.End.Location() != loc {
		t.Fatalf("expected bounds in the input location")
	}
}

func TestCalculatorUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	// 23:00 UTC on the 10th is already the 11th in UTC+2.
	clock := func() time.Time { return time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC) }
	c := NewCalculator(loc, clock)
	got := c.Current()
	if got.Start.Day() != 11 || got.Start.Month() != time.March {
		t.Fatalf("expected new cycle starting March 11, got %s", got.Start)
	}
}
