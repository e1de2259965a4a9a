package matcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveM3U(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		fmt.Fprint(w, body)
	}))
}

func TestParseM3U_StandardPlaylist(t *testing.T) {
	body := `#EXTM3U
#EXTINF:-1 tvg-name="ESPN Sports HD" tvg-id="ESPN.us" group-title="Sports",ESPN Sports HD
http://live.example.com/espn.m3u8
#EXTINF:-1 tvg-name="NFL Network" tvg-id="NFLN.us" group-title="Sports",NFL Network
http://live.example.com/nfl.m3u8
#EXTINF:-1 tvg-name="Kids Channel" tvg-id="" group-title="Kids",Kids Channel
http://live.example.com/kids.m3u8
`
	srv := serveM3U(t, body)
	defer srv.Close()

	channels, err := ParseM3U(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("ParseM3U error: %v", err)
	}
	if len(channels) != 3 {
		t.Fatalf("expected 3 channels, got %d", len(channels))
	}
	if channels[0].Name != "ESPN Sports HD" || channels[0].TVGID != "ESPN.us" || channels[0].GroupTitle != "Sports" {
		t.Errorf("channel[0] = %+v", channels[0])
	}
	if channels[0].URL != "http://live.example.com/espn.m3u8" {
		t.Errorf("channel[0].URL = %q", channels[0].URL)
	}
}

func TestParseM3U_FallsBackToDisplayName(t *testing.T) {
	body := `#EXTM3U
#EXTINF:-1 group-title="Sports",Display Only Name
http://live.example.com/a.m3u8
`
	srv := serveM3U(t, body)
	defer srv.Close()

	channels, err := ParseM3U(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("ParseM3U error: %v", err)
	}
	if len(channels) != 1 || channels[0].Name != "Display Only Name" {
		t.Fatalf("got %+v", channels)
	}
}

func TestExtractAttr_SingleAndDoubleQuotes(t *testing.T) {
	tests := []struct {
		name string
		line string
		key  string
		want string
	}{
		{"double quotes", `tvg-id="ESPN.us" group-title="Sports"`, "tvg-id", "ESPN.us"},
		{"single quotes", `tvg-id='ESPN.us'`, "tvg-id", "ESPN.us"},
		{"missing", `tvg-id="ESPN.us"`, "group-title", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractAttr(tt.line, tt.key); got != tt.want {
				t.Errorf("extractAttr(%q, %q) = %q, want %q", tt.line, tt.key, got, tt.want)
			}
		})
	}
}
