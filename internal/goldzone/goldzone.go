// Package goldzone implements the Gold Zone feature (component L):
// a single unified channel multiplexing every concurrent Olympics
// broadcast under one tvg_id, bound to an external third-party EPG
// feed instead of Teamarr's own generated programmes. Feature-flagged
// via config.Settings.GoldZoneEnabled and cleanly removable: every
// Gold Zone concern lives in this package and nowhere else, mirroring
// the original implementation's own isolation (it keeps this logic in
// one consumer module "for easy deprecation post-Olympics").
//
// Grounded on original_source/teamarr/consumers/gold_zone.py.
package goldzone

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/config"
	"github.com/northernpowerhouse/teamarr/internal/downstream"
	"github.com/northernpowerhouse/teamarr/internal/logging"
	"github.com/northernpowerhouse/teamarr/internal/xmltv"
)

var log = logging.NewLogger("goldzone")

// TVGID is the tvg_id the external EPG feed publishes under; it must
// match exactly for the fetched programmes to bind to the channel this
// package creates.
const TVGID = downstream.TVGIDForGoldZone

const (
	channelName = "Gold Zone"
	logoURL     = "https://emby.tmsimg.com/assets/p32146358_b_h9_ab.jpg"
	epgURL      = "https://epg.jesmann.com/TeamSports/goldzone.xml"
	league      = "Special - Winter Olympics"
	sport       = "olympics"

	// broadcastStartUTCHour is when the active day rolls over: 0500 UTC
	// (midnight ET), well before the 1300 UTC broadcast start, so EPG
	// generation always picks up today's streams before air.
	broadcastStartUTCHour = 5

	// olympicsDayCount bounds the valid "Day ##" range for Milano-Cortina
	// 2026 (Feb 7 - Feb 23).
	olympicsDayCount = 17
)

// olympicsStart is Day 1 of the games; Day N maps to olympicsStart +
// (N-1) days.
var olympicsStart = time.Date(2026, time.February, 7, 0, 0, 0, 0, time.UTC)

var goldZonePattern = regexp.MustCompile(`(?i)gold[\s-]?zone`)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var dayNumberPattern = regexp.MustCompile(`(?i)day\s*(\d+)`)
var monthDayPattern = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+(\d{1,2})\b`)
var slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)

// MatchesKeyword reports whether a stream name carries a Gold Zone
// keyword ("gold zone", "goldzone", or "gold-zone", case-insensitive).
func MatchesKeyword(name string) bool {
	return goldZonePattern.MatchString(name)
}

// ActiveDay returns the Olympics broadcast day now belongs to: the
// calendar day in UTC, rolled back one day if now is before the 0500
// UTC broadcast-day boundary.
func ActiveDay(now time.Time) time.Time {
	u := now.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	if u.Hour() < broadcastStartUTCHour {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// resolveDayNumberToDate maps a "Day ##" token in name to its calendar
// date, or false if name has no such token or the number is out of the
// 1-17 valid range.
func resolveDayNumberToDate(name string) (time.Time, bool) {
	m := dayNumberPattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > olympicsDayCount {
		return time.Time{}, false
	}
	return olympicsStart.AddDate(0, 0, n-1), true
}

// resolveCalendarDate looks for a "Feb 13" or "2/13" style date token in
// name and resolves it against the Olympics year.
func resolveCalendarDate(name string) (time.Time, bool) {
	if m := monthDayPattern.FindStringSubmatch(name); m != nil {
		month, ok := monthAbbrev[strings.ToLower(m[1])]
		if ok {
			if day, err := strconv.Atoi(m[2]); err == nil && day >= 1 && day <= 31 {
				return time.Date(olympicsStart.Year(), month, day, 0, 0, 0, 0, time.UTC), true
			}
		}
	}
	if m := slashDatePattern.FindStringSubmatch(name); m != nil {
		month, errM := strconv.Atoi(m[1])
		day, errD := strconv.Atoi(m[2])
		if errM == nil && errD == nil && month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(olympicsStart.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// streamDateCheck reports whether a stream name's embedded date (if any)
// matches activeDay, and the resolved date string for logging. A name
// with no recognizable date token always passes: date disambiguation
// only excludes streams that name a *different* day, never streams that
// are simply undated. A "Day ##" token takes priority over an ambiguous
// calendar-date-shaped token also present in the name.
func streamDateCheck(name string, activeDay time.Time) (ok bool, parsed string) {
	if d, found := resolveDayNumberToDate(name); found {
		return sameDate(d, activeDay), d.Format("2006-01-02")
	}
	if d, found := resolveCalendarDate(name); found {
		return sameDate(d, activeDay), d.Format("2006-01-02")
	}
	return true, ""
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Candidate is one stream already narrowed to event-group M3U scope by
// the caller, per the downstream.StreamSource convention that callers
// pre-filter by channel group membership and staleness.
type Candidate struct {
	downstream.Stream
	EventGroupID string
}

// SelectStreams filters candidates to those carrying a Gold Zone keyword
// and an active-day-matching (or undated) name, preserving input order
// (the same ordering convention eventgroup.Process's caller already
// applies via the pre-filtered/pre-ordered StreamSource contract).
func SelectStreams(candidates []Candidate, activeDay time.Time) (matched []Candidate, skippedForDate int) {
	for _, c := range candidates {
		if !MatchesKeyword(c.Name) {
			continue
		}
		ok, parsed := streamDateCheck(c.Name, activeDay)
		if !ok {
			skippedForDate++
			log.WithField("stream", c.Name).WithField("date", parsed).Debug("skipping stream outside active day")
			continue
		}
		matched = append(matched, c)
	}
	return matched, skippedForDate
}

// Result is the outcome of one Gold Zone processing cycle.
type Result struct {
	DownstreamChannelID string
	EPGXML              string
}

// Dependencies bundles every external side-effecting collaborator Gold
// Zone needs, mirroring the original's injected dispatcharr_client.
type Dependencies struct {
	Channels ChannelEPGManager
	Logos    downstream.LogoManager
	HTTP     *http.Client
}

// ChannelEPGManager composes the channel and EPG-binding contracts Gold
// Zone needs.
type ChannelEPGManager interface {
	downstream.ChannelManager
	downstream.EPGManager
}

// Process runs one full Gold Zone cycle: select matching streams,
// create-or-update the unified channel, and fetch+filter the external
// EPG. Every external call degrades gracefully on failure (logged, not
// raised) rather than aborting the whole cycle, matching the original's
// behavior — a channel update with no fresh EPG is still useful, and an
// EPG fetch with no channel change still produces something to serve.
func Process(ctx context.Context, deps Dependencies, settings config.Settings, candidates []Candidate, now time.Time, epgWindowDays int) (Result, error) {
	if !settings.GoldZoneEnabled {
		return Result{}, nil
	}

	activeDay := ActiveDay(now)
	matched, skipped := SelectStreams(candidates, activeDay)
	if skipped > 0 {
		log.WithField("count", skipped).Info("skipped streams with non-active-day dates")
	}
	if len(matched) == 0 {
		log.Info("no matching Gold Zone streams found")
		return Result{}, nil
	}

	streamIDs := make([]string, 0, len(matched))
	for _, m := range matched {
		streamIDs = append(streamIDs, m.ID)
	}

	channelID, err := upsertChannel(ctx, deps, settings, streamIDs)
	if err != nil {
		log.WithError(err).Error("channel operation failed")
	}

	result := Result{DownstreamChannelID: channelID}

	rawXML, err := fetchExternalEPG(ctx, deps.HTTP)
	if err != nil {
		log.WithError(err).Error("failed to fetch external EPG")
		return result, nil
	}

	filtered, err := filterEPG(rawXML, now, epgWindowDays)
	if err != nil {
		log.WithError(err).Error("failed to filter external EPG, falling back to unfiltered")
		result.EPGXML = rawXML
		return result, nil
	}
	result.EPGXML = filtered
	return result, nil
}

func upsertChannel(ctx context.Context, deps Dependencies, settings config.Settings, streamIDs []string) (string, error) {
	number := float64(settings.GoldZoneChannelNumber)
	if number == 0 {
		number = 999
	}

	if existing, ok, err := deps.Channels.FindByNumber(ctx, number); err == nil && ok {
		gz, gzOK, _ := deps.Channels.FindByTVGID(ctx, TVGID)
		if !gzOK || gz.ID != existing.ID {
			log.WithField("number", number).WithField("existing", existing.Name).
				Warn("Gold Zone channel number conflicts with an existing channel")
		}
	}

	profileIDs := settings.GoldZoneChannelProfileIDs
	if len(profileIDs) == 0 {
		profileIDs = []int{0}
	}

	existing, ok, err := deps.Channels.FindByTVGID(ctx, TVGID)
	if err != nil {
		return "", fmt.Errorf("find gold zone channel: %w", err)
	}
	if ok {
		fields := map[string]any{
			"name":           channelName,
			"channel_number": number,
			"streams":        streamIDs,
			"tvg_id":         TVGID,
		}
		if settings.GoldZoneChannelGroupID != 0 {
			fields["channel_group_id"] = settings.GoldZoneChannelGroupID
		}
		fields["channel_profile_ids"] = profileIDs
		if settings.GoldZoneStreamProfileID != 0 {
			fields["stream_profile_id"] = settings.GoldZoneStreamProfileID
		}
		if err := deps.Channels.UpdateChannel(ctx, existing.ID, fields); err != nil {
			return "", fmt.Errorf("update gold zone channel: %w", err)
		}
		log.WithField("channel", existing.ID).WithField("streams", len(streamIDs)).Info("updated Gold Zone channel")
		return existing.ID, nil
	}

	if _, ok, err := deps.Logos.UploadOrFind(ctx, channelName, logoURL); err != nil || !ok {
		log.WithError(err).Warn("failed to upload Gold Zone logo")
	}

	var groupID, streamProfileID string
	if settings.GoldZoneChannelGroupID != 0 {
		groupID = fmt.Sprint(settings.GoldZoneChannelGroupID)
	}
	if settings.GoldZoneStreamProfileID != 0 {
		streamProfileID = fmt.Sprint(settings.GoldZoneStreamProfileID)
	}

	created, err := deps.Channels.CreateChannel(ctx, downstream.Channel{
		Name:              channelName,
		ChannelNumber:     number,
		TVGID:             TVGID,
		Streams:           streamIDs,
		ChannelGroupID:    groupID,
		ChannelProfileIDs: profileIDs,
		StreamProfileID:   streamProfileID,
	})
	if err != nil {
		return "", fmt.Errorf("create gold zone channel: %w", err)
	}
	log.WithField("channel", created.Channel.ID).WithField("streams", len(streamIDs)).Info("created Gold Zone channel")
	return created.Channel.ID, nil
}

func fetchExternalEPG(ctx context.Context, client *http.Client) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, epgURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("gold zone epg fetch: status %d", resp.StatusCode)
	}
	var sb strings.Builder
	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if rerr != nil {
			break
		}
	}
	return sb.String(), nil
}

// filterEPG parses the fetched document and re-serializes only the
// programmes inside [now, now+epgWindowDays).
func filterEPG(rawXML string, now time.Time, epgWindowDays int) (string, error) {
	parsed, err := xmltv.ParseReader(strings.NewReader(rawXML))
	if err != nil {
		return "", err
	}
	windowEnd := now.AddDate(0, 0, epgWindowDays)
	filtered := xmltv.FilterByWindow(parsed.Programmes, now, windowEnd)

	var out strings.Builder
	if err := xmltv.Write(&out, parsed.Channels, filtered); err != nil {
		return "", err
	}
	return out.String(), nil
}

// ManagedChannelFields returns the persistence fields for registering
// Gold Zone as a same-day-lifecycle managed channel, so the standard
// EPG-association sweep picks it up like any other managed channel.
// Deletion defaults to end of the current day, matching the original's
// same-day lifecycle for this feature.
func ManagedChannelFields(now time.Time) (eventID, eventProvider, sportName, leagueName string, scheduledDeleteAt time.Time) {
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	return "gold_zone", "system", sport, league, endOfDay
}
