package eventgroup

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/detection"
	"github.com/northernpowerhouse/teamarr/internal/matcher"
	"github.com/northernpowerhouse/teamarr/internal/model"
)

func serveM3U(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProcess_ClustersMainAndVariantStreams(t *testing.T) {
	body := `#EXTM3U
#EXTINF:-1 group-title="Sports",Buffalo Bills vs Kansas City Chiefs
http://live.example.com/main.m3u8
#EXTINF:-1 group-title="Sports",Buffalo Bills vs Kansas City Chiefs Spanish
http://live.example.com/espanol.m3u8
#EXTINF:-1 group-title="Kids",Some Kids Show
http://live.example.com/kids.m3u8
`
	srv := serveM3U(t, body)

	det := detection.New()
	m := matcher.New(det, nil)
	p := New(m, det, map[string]bool{"spanish": true}, nil)

	group := model.EventGroup{
		ID: "g1", ScopeMode: model.ScopeSingle, League: "nfl",
		M3USourceURLs: []string{srv.URL},
	}
	gameTime := time.Date(2026, 7, 30, 20, 0, 0, 0, time.UTC)
	events := []model.Event{
		{
			ID: "e1", League: "nfl", StartTime: gameTime,
			HomeTeam: model.Team{Name: "Kansas City Chiefs", Abbreviation: "KC"},
			AwayTeam: model.Team{Name: "Buffalo Bills", Abbreviation: "BUF"},
		},
	}

	clusters, err := p.Process(context.Background(), group, events, gameTime, time.Time{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 event cluster, got %d: %+v", len(clusters), clusters)
	}
	c := clusters[0]
	if len(c.Main) != 1 {
		t.Errorf("expected 1 main stream, got %d", len(c.Main))
	}
	if len(c.Variant["spanish"]) != 1 {
		t.Errorf("expected 1 spanish variant stream, got %d", len(c.Variant["spanish"]))
	}

	plans := Plans(clusters)
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans (main + spanish variant), got %d", len(plans))
	}
}

func TestProcess_IgnoredKeywordDropsStreamEntirely(t *testing.T) {
	body := `#EXTM3U
#EXTINF:-1 group-title="Sports",Buffalo Bills vs Kansas City Chiefs PPV
http://live.example.com/ppv.m3u8
`
	srv := serveM3U(t, body)

	det := detection.New()
	m := matcher.New(det, nil)
	p := New(m, det, nil, map[string]bool{"ppv": true})

	group := model.EventGroup{
		ID: "g1", ScopeMode: model.ScopeSingle, League: "nfl",
		M3USourceURLs: []string{srv.URL},
	}
	gameTime := time.Date(2026, 7, 30, 20, 0, 0, 0, time.UTC)
	events := []model.Event{
		{
			ID: "e1", League: "nfl", StartTime: gameTime,
			HomeTeam: model.Team{Name: "Kansas City Chiefs", Abbreviation: "KC"},
			AwayTeam: model.Team{Name: "Buffalo Bills", Abbreviation: "BUF"},
		},
	}

	clusters, err := p.Process(context.Background(), group, events, gameTime, time.Time{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("expected the ignored-keyword stream to be dropped, got %+v", clusters)
	}
}
