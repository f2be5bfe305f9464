package util

import (
	"testing"
	"time"
)

func TestCalculateActualDate(t *testing.T) {
	tests := []struct {
		year      int
		month     time.Month
		targetDay int
		wantDay   int
	}{
		{2024, time.February, 31, 29}, // leap year
		{2023, time.February, 31, 28},
		{2024, time.April, 31, 30},
		{2024, time.January, 15, 15},
	}

	for _, tt := range tests {
		got := CalculateActualDate(tt.year, tt.month, tt.targetDay)
		if got.Day() != tt.wantDay || got.Month() != tt.month {
			t.Errorf("CalculateActualDate(%d, %s, %d) = %s, want day %d",
				tt.year, tt.month, tt.targetDay, got.Format(DateLayout), tt.wantDay)
		}
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name  string
		start string
		n     int
		want  string
	}{
		{"plain month", "2024-01-15", 1, "2024-02-15"},
		{"several months", "2024-01-15", 3, "2024-04-15"},
		{"clamp to leap february", "2024-01-31", 1, "2024-02-29"},
		{"clamp to february", "2023-01-31", 1, "2023-02-28"},
		{"clamp to 30-day month", "2024-03-31", 1, "2024-04-30"},
		{"no carry-over after clamp", "2024-01-31", 2, "2024-03-31"},
		{"year boundary", "2024-11-30", 3, "2025-02-28"},
		{"zero months", "2024-06-10", 0, "2024-06-10"},
		{"many years", "2024-02-29", 12, "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := ParseDate(tt.start)
			if err != nil {
				t.Fatalf("ParseDate(%q) failed: %v", tt.start, err)
			}
			got := AddMonthsClamped(start, tt.n).Format(DateLayout)
			if got != tt.want {
				t.Errorf("AddMonthsClamped(%s, %d) = %s, want %s", tt.start, tt.n, got, tt.want)
			}
		})
	}
}

func TestAddMonthsClamped_DropsTimeOfDay(t *testing.T) {
	start := time.Date(2024, 1, 15, 17, 45, 0, 0, time.UTC)
	got := AddMonthsClamped(start, 1)

	if got.Hour() != 0 || got.Minute() != 0 || got.Location() != time.UTC {
		t.Errorf("AddMonthsClamped should return midnight UTC, got %s", got)
	}
}

func TestTruncateToDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 2024-03-01 02:00 IST is 2024-02-29 20:30 UTC
	in := time.Date(2024, 3, 1, 2, 0, 0, 0, loc)

	got := TruncateToDate(in)
	if got.Format(DateLayout) != "2024-02-29" {
		t.Errorf("TruncateToDate(%s) = %s, want 2024-02-29", in, got.Format(DateLayout))
	}
}

func TestParseDate_Invalid(t *testing.T) {
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Error("expected error for invalid month")
	}
}
