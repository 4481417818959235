package daily

import (
	"testing"
	"time"
)

func TestDateKeyIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2025-03-02 05:00 at +10 is still 2025-03-01 in UTC.
	got := DateKey(time.Date(2025, 3, 2, 5, 0, 0, 0, loc))
	if got != "2025-03-01" {
		t.Errorf("DateKey = %q, want 2025-03-01", got)
	}
}

func TestTargetIndexDeterministic(t *testing.T) {
	salt := []byte("salt")
	day := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	later := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)

	a := TargetIndex(day, salt, 201)
	if b := TargetIndex(later, salt, 201); a != b {
		t.Errorf("same UTC day gave %d and %d", a, b)
	}
	if a < 0 || a >= 201 {
		t.Errorf("index %d out of range", a)
	}
}

func TestTargetIndexRange(t *testing.T) {
	salt := []byte("another salt")
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := map[int]bool{}
	for i := 0; i < 365; i++ {
		idx := TargetIndex(start.AddDate(0, 0, i), salt, 10)
		if idx < 0 || idx >= 10 {
			t.Fatalf("day %d: index %d out of range", i, idx)
		}
		seen[idx] = true
	}
	// A year of HMAC output should hit every bucket of 10.
	if len(seen) != 10 {
		t.Errorf("only %d of 10 buckets used", len(seen))
	}
}

func TestTargetIndexSaltMatters(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	same := 0
	for i := 0; i < 30; i++ {
		d := start.AddDate(0, 0, i)
		if TargetIndex(d, []byte("a"), 1000) == TargetIndex(d, []byte("b"), 1000) {
			same++
		}
	}
	if same > 3 {
		t.Errorf("%d of 30 days agree across salts", same)
	}
}

func TestTargetIndexEmpty(t *testing.T) {
	if got := TargetIndex(time.Now(), []byte("x"), 0); got != 0 {
		t.Errorf("TargetIndex(n=0) = %d, want 0", got)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), 1},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 2},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 367},
	}
	for _, tt := range tests {
		if got := Number(tt.date); got != tt.want {
			t.Errorf("Number(%s) = %d, want %d", tt.date.Format(time.DateOnly), got, tt.want)
		}
	}
}
