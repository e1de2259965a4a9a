// Package matcher implements the stream↔event matcher (component F): M3U
// playlist parsing, stream classification, league scoping, and
// team-vs-team / event-card matching against candidate events, directly
// grounded on this codebase's existing channel-to-league matcher.
package matcher

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/logging"
)

var log = logging.NewLogger("matcher")

const (
	// maxChannelsPerSource limits M3U parse to prevent OOM on large
	// playlists.
	maxChannelsPerSource = 5000
	// m3uFetchTimeout is the HTTP timeout for fetching an M3U playlist.
	m3uFetchTimeout = 30 * time.Second
)

// RawChannel is a single channel entry parsed from an M3U playlist.
type RawChannel struct {
	TVGID      string
	Name       string
	GroupTitle string
	URL        string
}

// ParseM3U fetches and parses an M3U playlist, returning up to
// maxChannelsPerSource channels. Parses #EXTINF attributes: tvg-id,
// tvg-name, group-title, and the stream URL on the following line.
func ParseM3U(ctx context.Context, m3uURL string) ([]RawChannel, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, m3uFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, m3uURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch m3u: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("m3u fetch returned HTTP %d", resp.StatusCode)
	}

	var channels []RawChannel
	truncated := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending *RawChannel
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "#EXTM3U" {
			continue
		}

		if strings.HasPrefix(line, "#EXTINF:") {
			ch := parseExtInfLine(line)
			pending = &ch
			continue
		}

		if strings.HasPrefix(line, "#") {
			continue
		}

		if pending != nil {
			pending.URL = line
			channels = append(channels, *pending)
			pending = nil

			if len(channels) >= maxChannelsPerSource {
				truncated = true
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return channels, fmt.Errorf("scan m3u: %w", err)
	}

	if truncated {
		log.WithField("url", m3uURL).WithField("limit", maxChannelsPerSource).
			Warn("m3u truncated at channel limit")
	}

	return channels, nil
}

// parseExtInfLine parses the attributes from a #EXTINF line. Format:
// #EXTINF:-1 tvg-name="..." tvg-id="..." group-title="...",Display Name
func parseExtInfLine(line string) RawChannel {
	var ch RawChannel

	commaIdx := strings.LastIndex(line, ",")
	displayName := ""
	attrPart := line
	if commaIdx >= 0 {
		displayName = strings.TrimSpace(line[commaIdx+1:])
		attrPart = line[:commaIdx]
	}

	ch.Name = displayName
	if v := extractAttr(attrPart, "tvg-name"); v != "" {
		ch.Name = v
	}
	if ch.Name == "" {
		ch.Name = displayName
	}

	ch.TVGID = extractAttr(attrPart, "tvg-id")
	ch.GroupTitle = extractAttr(attrPart, "group-title")

	return ch
}

// extractAttr extracts a quoted attribute value from an #EXTINF attribute
// string. Handles both single and double quotes.
func extractAttr(s, key string) string {
	needle := key + "="
	idx := strings.Index(strings.ToLower(s), strings.ToLower(needle))
	if idx < 0 {
		return ""
	}
	rest := s[idx+len(needle):]
	if len(rest) == 0 {
		return ""
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		end := strings.IndexByte(rest, ' ')
		if end < 0 {
			return rest
		}
		return rest[:end]
	}
	end := strings.IndexByte(rest[1:], quote)
	if end < 0 {
		return rest[1:]
	}
	return rest[1 : end+1]
}
