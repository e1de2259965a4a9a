package goldzone

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/config"
	"github.com/northernpowerhouse/teamarr/internal/downstream"
)

func TestMatchesKeyword(t *testing.T) {
	cases := map[string]bool{
		"Gold Zone Day 7":       true,
		"GOLDZONE":              true,
		"gold-zone feed":        true,
		"Golden State Warriors": false,
		"":                      false,
	}
	for name, want := range cases {
		if got := MatchesKeyword(name); got != want {
			t.Errorf("MatchesKeyword(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestResolveDayNumberToDate(t *testing.T) {
	cases := []struct {
		name string
		want time.Time
		ok   bool
	}{
		{"Gold Zone Day 1", time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC), true},
		{"Gold Zone Day 7", time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC), true},
		{"Gold Zone Day 17", time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), true},
		{"Gold Zone Day 0", time.Time{}, false},
		{"Gold Zone Day 18", time.Time{}, false},
		{"Gold Zone", time.Time{}, false},
		{"Gold Zone DAY 3", time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), true},
	}
	for _, c := range cases {
		got, ok := resolveDayNumberToDate(c.name)
		if ok != c.ok {
			t.Errorf("resolveDayNumberToDate(%q) ok = %v, want %v", c.name, ok, c.ok)
			continue
		}
		if ok && !got.Equal(c.want) {
			t.Errorf("resolveDayNumberToDate(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestStreamDateCheck(t *testing.T) {
	day7 := time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)

	ok, date := streamDateCheck("Gold Zone Day 7", day7)
	if !ok || date != "2026-02-13" {
		t.Errorf("matching day number: ok=%v date=%q", ok, date)
	}

	day8 := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	ok, _ = streamDateCheck("Gold Zone Day 7", day8)
	if ok {
		t.Errorf("expected mismatched day number to fail date check")
	}

	ok, date = streamDateCheck("Gold Zone", day7)
	if !ok || date != "" {
		t.Errorf("undated stream should always pass: ok=%v date=%q", ok, date)
	}

	ok, date = streamDateCheck("Gold Zone Feb 13 @ 1:00 PM ET", day7)
	if !ok || date != "2026-02-13" {
		t.Errorf("calendar date match: ok=%v date=%q", ok, date)
	}

	ok, _ = streamDateCheck("Gold Zone Feb 13 @ 1:00 PM ET", day8)
	if ok {
		t.Errorf("expected mismatched calendar date to fail date check")
	}
}

func TestSelectStreams_FiltersKeywordAndDate(t *testing.T) {
	activeDay := time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)
	candidates := []Candidate{
		{Stream: downstream.Stream{ID: "s1", Name: "Gold Zone Day 7"}},
		{Stream: downstream.Stream{ID: "s2", Name: "Gold Zone Day 8"}},
		{Stream: downstream.Stream{ID: "s3", Name: "Regular Hockey Game"}},
		{Stream: downstream.Stream{ID: "s4", Name: "GoldZone"}},
	}

	matched, skipped := SelectStreams(candidates, activeDay)
	if skipped != 1 {
		t.Errorf("expected 1 skipped stream, got %d", skipped)
	}
	if len(matched) != 2 {
		t.Fatalf("expected 2 matched streams, got %d: %+v", len(matched), matched)
	}
	if matched[0].ID != "s1" || matched[1].ID != "s4" {
		t.Errorf("unexpected matched set: %+v", matched)
	}
}

func TestActiveDay_RollsOverAtBroadcastHour(t *testing.T) {
	before := time.Date(2026, 2, 13, 3, 0, 0, 0, time.UTC)
	if got := ActiveDay(before); !got.Equal(time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("before rollover: got %v, want 2026-02-12", got)
	}
	after := time.Date(2026, 2, 13, 6, 0, 0, 0, time.UTC)
	if got := ActiveDay(after); !got.Equal(time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("after rollover: got %v, want 2026-02-13", got)
	}
}

type fakeChannelManager struct {
	channels map[string]downstream.Channel
	nextID   int
}

func newFakeChannelManager() *fakeChannelManager {
	return &fakeChannelManager{channels: map[string]downstream.Channel{}}
}

func (f *fakeChannelManager) GetChannels(ctx context.Context) ([]downstream.Channel, error) {
	out := make([]downstream.Channel, 0, len(f.channels))
	for _, c := range f.channels {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeChannelManager) FindByNumber(ctx context.Context, number float64) (downstream.Channel, bool, error) {
	for _, c := range f.channels {
		if c.ChannelNumber == number {
			return c, true, nil
		}
	}
	return downstream.Channel{}, false, nil
}

func (f *fakeChannelManager) FindByTVGID(ctx context.Context, tvgID string) (downstream.Channel, bool, error) {
	for _, c := range f.channels {
		if c.TVGID == tvgID {
			return c, true, nil
		}
	}
	return downstream.Channel{}, false, nil
}

func (f *fakeChannelManager) GetChannel(ctx context.Context, id string) (downstream.Channel, error) {
	return f.channels[id], nil
}

func (f *fakeChannelManager) UpdateChannel(ctx context.Context, id string, fields map[string]any) error {
	c := f.channels[id]
	if streams, ok := fields["streams"].([]string); ok {
		c.Streams = streams
	}
	f.channels[id] = c
	return nil
}

func (f *fakeChannelManager) CreateChannel(ctx context.Context, ch downstream.Channel) (downstream.CreationResult, error) {
	f.nextID++
	ch.ID = fmt.Sprintf("ch%d", f.nextID)
	f.channels[ch.ID] = ch
	return downstream.CreationResult{Channel: ch, Created: true}, nil
}

func (f *fakeChannelManager) SetChannelEPG(ctx context.Context, channelID, epgID string) error {
	return nil
}

type fakeLogoManager struct{}

func (fakeLogoManager) UploadOrFind(ctx context.Context, name, url string) (string, bool, error) {
	return "logo1", true, nil
}

func TestUpsertChannel_CreatesThenUpdates(t *testing.T) {
	mgr := newFakeChannelManager()
	deps := Dependencies{Channels: mgr, Logos: fakeLogoManager{}}
	settings := config.Settings{GoldZoneChannelNumber: 999}

	id1, err := upsertChannel(context.Background(), deps, settings, []string{"s1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(mgr.channels) != 1 {
		t.Fatalf("expected 1 channel after create, got %d", len(mgr.channels))
	}

	id2, err := upsertChannel(context.Background(), deps, settings, []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected same channel id on second call (found by tvg_id), got %q vs %q", id1, id2)
	}
	if len(mgr.channels[id2].Streams) != 2 {
		t.Errorf("expected updated channel to carry 2 streams, got %+v", mgr.channels[id2].Streams)
	}
}
