package tzutil

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %q: %v", name, err)
	}
	return loc
}

func TestFormatTime_24HourNoAbbrev(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	dt := time.Date(2026, 2, 13, 19, 30, 0, 0, time.UTC)
	if got := FormatTime(dt, loc, true, false); got != "14:30" {
		t.Errorf("FormatTime = %q, want %q", got, "14:30")
	}
}

func TestFormatTime_12HourWithAbbrev(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	dt := time.Date(2026, 2, 13, 19, 30, 0, 0, time.UTC)
	got := FormatTime(dt, loc, false, true)
	if got != "2:30 PM EST" {
		t.Errorf("FormatTime = %q, want %q", got, "2:30 PM EST")
	}
}

func TestFormatXMLTV_EmitsUTCOffset(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	dt := time.Date(2026, 2, 13, 19, 30, 0, 0, time.UTC)
	got := FormatXMLTV(dt, loc)
	want := "20260213143000 -0500"
	if got != want {
		t.Errorf("FormatXMLTV = %q, want %q", got, want)
	}
}

func TestFormatDateShort(t *testing.T) {
	dt := time.Date(2026, 12, 14, 0, 0, 0, 0, time.UTC)
	if got := FormatDateShort(dt, time.UTC); got != "Dec 14" {
		t.Errorf("FormatDateShort = %q, want %q", got, "Dec 14")
	}
}

func TestAbbrev_UTC(t *testing.T) {
	dt := time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)
	if got := Abbrev(dt); got != "UTC" {
		t.Errorf("Abbrev = %q, want %q", got, "UTC")
	}
}
