package lifecycle

import (
	"testing"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/config"
	"github.com/northernpowerhouse/teamarr/internal/eventgroup"
	"github.com/northernpowerhouse/teamarr/internal/model"
)

func plan(eventID, keyword string, start time.Time) eventgroup.Plan {
	return eventgroup.Plan{
		Event:            model.Event{ID: eventID, StartTime: start},
		ExceptionKeyword: keyword,
	}
}

func TestAssignNumbers_StrictBlockSkipsExternal(t *testing.T) {
	settings := config.Settings{NumberingMode: config.NumberingStrictBlock, ChannelStartNumber: 100}
	channels := []AssignableChannel{
		{Plan: plan("e1", "", time.Now())},
		{Plan: plan("e2", "", time.Now().Add(time.Hour))},
	}
	external := map[float64]bool{100: true}

	assignments := AssignNumbers(channels, settings, external)
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assignments))
	}
	if assignments[0].Number != 101 {
		t.Errorf("first number = %v, want 101 (100 externally occupied)", assignments[0].Number)
	}
	if assignments[1].Number != 102 {
		t.Errorf("second number = %v, want 102", assignments[1].Number)
	}
}

func TestAssignNumbers_StrictCompactUsesRangeStart(t *testing.T) {
	settings := config.Settings{NumberingMode: config.NumberingStrictCompact, ChannelRangeStart: 500}
	channels := []AssignableChannel{{Plan: plan("e1", "", time.Now())}}
	assignments := AssignNumbers(channels, settings, nil)
	if assignments[0].Number != 500 {
		t.Errorf("number = %v, want 500", assignments[0].Number)
	}
}

func TestEnforceKeywordOrdering_SwapsMainBelowVariant(t *testing.T) {
	now := time.Now()
	assignments := []Assignment{
		{Plan: plan("e1", "spanish", now), Number: 101},
		{Plan: plan("e1", "", now), Number: 102},
	}
	fixed := EnforceKeywordOrdering(assignments)

	var mainNum, variantNum float64
	for _, a := range fixed {
		if a.Plan.ExceptionKeyword == "" {
			mainNum = a.Number
		} else {
			variantNum = a.Number
		}
	}
	if mainNum >= variantNum {
		t.Errorf("main number %v must be lower than variant number %v", mainNum, variantNum)
	}
}

func TestExternalOccupied_SubtractsManagedFromDispatcharr(t *testing.T) {
	occupied := ExternalOccupied([]float64{100, 101, 102}, []float64{101})
	if occupied[101] {
		t.Errorf("101 is teamarr-managed, should not be external")
	}
	if !occupied[100] || !occupied[102] {
		t.Errorf("100 and 102 should be external, got %v", occupied)
	}
}

func TestCreateAt_DayBeforeStartOfDay(t *testing.T) {
	eventStart := time.Date(2026, 7, 30, 20, 0, 0, 0, time.UTC)
	got := CreateAt(eventStart, config.CreateDayBefore)
	want := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CreateAt = %v, want %v", got, want)
	}
}

func TestDeleteAt_SixHoursAfter(t *testing.T) {
	eventEnd := time.Date(2026, 7, 30, 23, 0, 0, 0, time.UTC)
	got := DeleteAt(eventEnd, config.Delete6HoursAfter)
	want := eventEnd.Add(6 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("DeleteAt = %v, want %v", got, want)
	}
}

func TestResolveDuplicate_DifferentKeywordsSplit(t *testing.T) {
	if ResolveDuplicate("", "spanish") != ActionSplit {
		t.Errorf("expected split for differing keywords")
	}
	if ResolveDuplicate("", "") != ActionConsolidate {
		t.Errorf("expected consolidate for matching keywords")
	}
}
