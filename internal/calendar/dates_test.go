package calendar

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", d)
	}
	if FormatDate(d) != "2025-06-01" {
		t.Fatalf("round trip mismatch: %s", FormatDate(d))
	}

	_, err = ParseDate("01.06.2025")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "date" {
		t.Fatalf("expected date ValidationError, got %v", err)
	}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("09:30")
	if err != nil || got != "09:30" {
		t.Fatalf("expected 09:30, got %q (%v)", got, err)
	}

	for _, bad := range []string{"9:30", "24:00", "09:60", "0930", ""} {
		if _, err := ParseClock(bad); !IsValidation(err) {
			t.Fatalf("expected ValidationError for %q, got %v", bad, err)
		}
	}
}

func TestDateOf_UsesOwnZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	late := time.Date(2025, 6, 1, 23, 30, 0, 0, loc)

	if got := DateOf(late); !got.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 2025-06-01, got %v", got)
	}
}

func TestUniqueDatesAndClocks(t *testing.T) {
	d1 := mustTime(t, 2025, 6, 2, 0, 0)
	d2 := mustTime(t, 2025, 6, 1, 0, 0)

	dates := UniqueDates([]time.Time{d1, d2, d1})
	if !reflect.DeepEqual(dates, []time.Time{d2, d1}) {
		t.Fatalf("unexpected dates: %v", dates)
	}

	clocks := UniqueClocks([]string{"10:00", "09:30", "10:00"})
	if !reflect.DeepEqual(clocks, []string{"09:30", "10:00"}) {
		t.Fatalf("unexpected clocks: %v", clocks)
	}
}

func TestValidateActor(t *testing.T) {
	role, err := ValidateActor(42, 42)
	if err != nil || role != RoleOperator {
		t.Fatalf("expected operator, got %q (%v)", role, err)
	}

	role, err = ValidateActor(7, 42)
	if err != nil || role != RoleClient {
		t.Fatalf("expected client, got %q (%v)", role, err)
	}

	if _, err := ValidateActor(0, 42); err != ErrInvalidActor {
		t.Fatalf("expected ErrInvalidActor, got %v", err)
	}
}
