// Package tzutil holds helpers for converting, formatting, and
// abbreviating datetimes for display, mirroring the
// original's "all datetime display should use these functions"
// discipline so formatting never drifts between call sites.
//
// Grounded on original_source/teamarr/utilities/tz.py.
package tzutil

import (
	"fmt"
	"time"
)

// ToDisplay converts dt (which must be timezone-aware, i.e. already
// carrying a Location) into loc.
func ToDisplay(dt time.Time, loc *time.Location) time.Time {
	return dt.In(loc)
}

// FormatTime renders dt's time-of-day in loc using use24Hour/showTZAbbrev,
// e.g. "7:30 PM EST" or "19:30".
func FormatTime(dt time.Time, loc *time.Location, use24Hour, showTZAbbrev bool) string {
	local := ToDisplay(dt, loc)
	var timeStr string
	if use24Hour {
		timeStr = local.Format("15:04")
	} else {
		timeStr = formatHour12(local)
	}
	if showTZAbbrev {
		return timeStr + " " + Abbrev(local)
	}
	return timeStr
}

// formatHour12 renders 12-hour time without a leading zero on the hour,
// matching the original's "%-I:%M %p" strftime directive (Go's "3" hour
// verb is already unpadded).
func formatHour12(t time.Time) string {
	s := t.Format("3:04 PM")
	return s
}

// FormatDate renders a long display date, e.g. "December 14, 2025".
func FormatDate(dt time.Time, loc *time.Location) string {
	local := ToDisplay(dt, loc)
	return fmt.Sprintf("%s %d, %d", local.Month().String(), local.Day(), local.Year())
}

// FormatDateShort renders a short display date, e.g. "Dec 14".
func FormatDateShort(dt time.Time, loc *time.Location) string {
	local := ToDisplay(dt, loc)
	return fmt.Sprintf("%s %d", local.Month().String()[:3], local.Day())
}

// FormatXMLTV renders dt in loc as an XMLTV timestamp:
// "YYYYMMDDHHMMSS +/-HHMM".
func FormatXMLTV(dt time.Time, loc *time.Location) string {
	local := ToDisplay(dt, loc)
	_, offsetSeconds := local.Zone()
	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}
	hours := offsetSeconds / 3600
	minutes := (offsetSeconds % 3600) / 60
	return fmt.Sprintf("%s %s%02d%02d", local.Format("20060102150405"), sign, hours, minutes)
}

// Abbrev returns dt's timezone abbreviation (e.g. "EST", "PDT") as
// reported by its Location for that instant.
func Abbrev(dt time.Time) string {
	name, _ := dt.Zone()
	return name
}
