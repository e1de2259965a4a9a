package xmltv_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/xmltv"
)

func TestParseReader_ChannelsAndProgrammes(t *testing.T) {
	const doc = `<?xml version="1.0"?><tv>
		<channel id="teamarr-event-1"><display-name>Home vs Away</display-name><icon src="http://example.com/logo.png"/></channel>
		<programme start="20260224000000 +0000" stop="20260224030000 +0000" channel="teamarr-event-1">
			<title>Home vs Away</title>
			<desc>Live game coverage</desc>
			<category>Sports</category>
			<rating><value>TV-PG</value></rating>
		</programme>
	</tv>`
	result, err := xmltv.ParseReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(result.Channels))
	}
	if result.Channels[0].IconSrc != "http://example.com/logo.png" {
		t.Errorf("icon src not parsed: %+v", result.Channels[0])
	}
	if len(result.Programmes) != 1 {
		t.Fatalf("expected 1 programme, got %d", len(result.Programmes))
	}
	p := result.Programmes[0]
	if p.Category != "Sports" || p.Rating != "TV-PG" {
		t.Errorf("category/rating not parsed: %+v", p)
	}
	wantStart := time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)
	if !p.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", p.Start, wantStart)
	}
}

func TestParseReader_MalformedProgrammeSkipped(t *testing.T) {
	const doc = `<?xml version="1.0"?><tv>
		<channel id="ch1"><display-name>Test</display-name></channel>
		<programme start="INVALID" stop="ALSOINVALID" channel="ch1"><title>Bad</title></programme>
		<programme start="20260224000000 +0000" stop="20260224010000 +0000" channel="ch1"><title>Good</title></programme>
	</tv>`
	result, err := xmltv.ParseReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Programmes) != 1 || result.Programmes[0].Title != "Good" {
		t.Errorf("expected only the well-formed programme to survive, got %+v", result.Programmes)
	}
}

func TestParseReader_EmptyDocument(t *testing.T) {
	result, err := xmltv.ParseReader(strings.NewReader(`<?xml version="1.0"?><tv></tv>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Channels) != 0 || len(result.Programmes) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestFilterByWindow_ExcludesOutsideRange(t *testing.T) {
	base := time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)
	programmes := []xmltv.XMLTVProgramme{
		{ChannelID: "c1", Start: base.Add(-time.Hour), Title: "before"},
		{ChannelID: "c1", Start: base.Add(time.Hour), Title: "inside"},
		{ChannelID: "c1", Start: base.Add(48 * time.Hour), Title: "after"},
	}
	filtered := xmltv.FilterByWindow(programmes, base, base.Add(24*time.Hour))
	if len(filtered) != 1 || filtered[0].Title != "inside" {
		t.Errorf("expected only the in-window programme, got %+v", filtered)
	}
}

func TestWrite_RoundTripsThroughParseReader(t *testing.T) {
	start := time.Date(2026, 2, 24, 13, 0, 0, 0, time.UTC)
	channels := []xmltv.XMLTVChannel{{ID: "teamarr-event-1", DisplayName: "Home vs Away", IconSrc: "http://example.com/x.png"}}
	programmes := []xmltv.XMLTVProgramme{{
		ChannelID:   "teamarr-event-1",
		Start:       start,
		Stop:        start.Add(3 * time.Hour),
		Title:       "Home vs Away",
		Description: "Live game coverage",
		Category:    "Sports",
		Rating:      "TV-PG",
	}}

	var buf bytes.Buffer
	if err := xmltv.Write(&buf, channels, programmes); err != nil {
		t.Fatalf("write: %v", err)
	}

	result, err := xmltv.ParseReader(&buf)
	if err != nil {
		t.Fatalf("re-parse written document: %v", err)
	}
	if len(result.Channels) != 1 || len(result.Programmes) != 1 {
		t.Fatalf("round trip lost data: %+v", result)
	}
	if !result.Programmes[0].Start.Equal(start) {
		t.Errorf("start time not preserved: got %v, want %v", result.Programmes[0].Start, start)
	}
	if result.Programmes[0].Category != "Sports" || result.Programmes[0].Rating != "TV-PG" {
		t.Errorf("category/rating not preserved: %+v", result.Programmes[0])
	}
}
