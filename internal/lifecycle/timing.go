package lifecycle

import (
	"time"

	"github.com/northernpowerhouse/teamarr/internal/config"
)

// CreateAt returns when a channel for this event should be created,
// relative to the event's start time, per the configured timing.
// stream_available timing has no fixed offset; it is driven by an
// external signal (the stream actually appearing in the source list)
// rather than a clock, so callers should treat its returned time as "as
// soon as possible" and gate creation on stream availability themselves.
func CreateAt(eventStart time.Time, timing config.ChannelCreateTiming) time.Time {
	switch timing {
	case config.CreateSameDay:
		return startOfDay(eventStart)
	case config.CreateDayBefore:
		return startOfDay(eventStart.AddDate(0, 0, -1))
	case config.Create2DaysBefore:
		return startOfDay(eventStart.AddDate(0, 0, -2))
	case config.Create3DaysBefore:
		return startOfDay(eventStart.AddDate(0, 0, -3))
	case config.Create1WeekBefore:
		return startOfDay(eventStart.AddDate(0, 0, -7))
	default: // stream_available
		return eventStart
	}
}

// DeleteAt returns when a channel for this event should be deleted,
// relative to the event's end time. stream_removed has the same
// external-signal caveat as CreateAt's stream_available.
func DeleteAt(eventEnd time.Time, timing config.ChannelDeleteTiming) time.Time {
	switch timing {
	case config.Delete6HoursAfter:
		return eventEnd.Add(6 * time.Hour)
	case config.DeleteSameDay:
		return endOfDay(eventEnd)
	case config.DeleteDayAfter:
		return endOfDay(eventEnd.AddDate(0, 0, 1))
	case config.Delete2DaysAfter:
		return endOfDay(eventEnd.AddDate(0, 0, 2))
	case config.Delete3DaysAfter:
		return endOfDay(eventEnd.AddDate(0, 0, 3))
	case config.Delete1WeekAfter:
		return endOfDay(eventEnd.AddDate(0, 0, 7))
	default: // stream_removed
		return eventEnd
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// DuplicateAction is the lifecycle manager's decision for two plans that
// reference the same underlying event (e.g. two M3U groups both carrying
// it).
type DuplicateAction string

const (
	ActionConsolidate DuplicateAction = "consolidate"
	ActionSplit       DuplicateAction = "split"
)

// ResolveDuplicate decides whether two same-event plans should be merged
// into one managed channel (consolidate) or kept as separate channels
// (split) — split is chosen only when the plans carry different
// exception keywords, since those are deliberately distinct channels.
func ResolveDuplicate(keywordA, keywordB string) DuplicateAction {
	if keywordA != keywordB {
		return ActionSplit
	}
	return ActionConsolidate
}
