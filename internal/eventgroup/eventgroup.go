// Package eventgroup implements the event group processor (component J):
// fetches an event group's M3U sources, matches streams to candidate
// events via internal/matcher, clusters matched streams by event
// (collapsing duplicates, separating exception-keyword variants), and
// renders the per-event channel plan (event, exception keyword, tvg_id,
// stream IDs) that the
// lifecycle manager (component K) turns into downstream channel
// mutations. Grounded on the teacher's channel-matching pipeline in
// `channel_matcher.go`, generalized from "classify a channel into a
// league" to "cluster many matched streams into one managed channel per
// event".
package eventgroup

import (
	"context"
	"sort"
	"time"

	"github.com/northernpowerhouse/teamarr/internal/detection"
	"github.com/northernpowerhouse/teamarr/internal/downstream"
	"github.com/northernpowerhouse/teamarr/internal/logging"
	"github.com/northernpowerhouse/teamarr/internal/matcher"
	"github.com/northernpowerhouse/teamarr/internal/model"
)

var log = logging.NewLogger("eventgroup")

// MatchedStream pairs one raw M3U channel with the event it resolved to.
type MatchedStream struct {
	Channel          matcher.RawChannel
	Result           matcher.Result
	ExceptionKeyword string // "" for the main (non-variant) stream
}

// EventCluster is every matched stream for one event, split into the
// main channel's streams and any exception-keyword (language) variants.
type EventCluster struct {
	Event   model.Event
	Main    []MatchedStream
	Variant map[string][]MatchedStream // exception keyword -> streams
}

// Plan is the rendered outcome for one event cluster: what the lifecycle
// manager should ensure exists downstream.
type Plan struct {
	Event            model.Event
	ExceptionKeyword string
	TVGID            string
	StreamIDs        []string
}

// Processor matches and clusters streams for one event group.
type Processor struct {
	matcher         *matcher.Matcher
	det             *detection.Service
	exceptionWords  map[string]bool // keywords that mark a language/region variant
	ignoredKeywords map[string]bool // keywords whose streams are dropped entirely
}

// New builds a Processor. exceptionWords and ignoredKeywords are
// user-configured keyword sets (spec §4.5.2's keyword-variant/keyword-
// enforcement features); both may be nil.
func New(m *matcher.Matcher, det *detection.Service, exceptionWords, ignoredKeywords map[string]bool) *Processor {
	if exceptionWords == nil {
		exceptionWords = map[string]bool{}
	}
	if ignoredKeywords == nil {
		ignoredKeywords = map[string]bool{}
	}
	return &Processor{matcher: m, det: det, exceptionWords: exceptionWords, ignoredKeywords: ignoredKeywords}
}

// Process fetches every configured M3U source, matches each channel
// against candidates, and clusters the results by event.
func (p *Processor) Process(ctx context.Context, group model.EventGroup, candidates []model.Event, activeDay, olympicsStart time.Time) ([]EventCluster, error) {
	var all []matcher.RawChannel
	for _, src := range group.M3USourceURLs {
		chans, err := matcher.ParseM3U(ctx, src)
		if err != nil {
			log.WithField("source", src).WithError(err).Warn("m3u fetch failed, skipping source")
			continue
		}
		all = append(all, chans...)
	}

	byEvent := map[string]*EventCluster{}
	var order []string

	for _, ch := range all {
		keyword, ignored := p.classifyKeyword(ch.Name)
		if ignored {
			continue
		}

		result, ok := p.matcher.Match(ch.Name, candidates, group, activeDay, olympicsStart)
		if !ok {
			continue
		}

		cluster, exists := byEvent[result.Event.ID]
		if !exists {
			cluster = &EventCluster{Event: result.Event, Variant: map[string][]MatchedStream{}}
			byEvent[result.Event.ID] = cluster
			order = append(order, result.Event.ID)
		}

		ms := MatchedStream{Channel: ch, Result: result, ExceptionKeyword: keyword}
		if keyword == "" {
			cluster.Main = append(cluster.Main, ms)
		} else {
			cluster.Variant[keyword] = append(cluster.Variant[keyword], ms)
		}
	}

	sort.Strings(order)
	out := make([]EventCluster, 0, len(order))
	for _, id := range order {
		out = append(out, *byEvent[id])
	}
	return out, nil
}

// classifyKeyword reports the exception keyword a stream name carries (if
// any), and whether it should be dropped outright (an ignored keyword,
// per the keyword-enforcement "ignore" behavior in spec §4.5.2).
func (p *Processor) classifyKeyword(streamName string) (keyword string, ignored bool) {
	norm := matcher.Normalize(streamName)
	for kw := range p.ignoredKeywords {
		if containsKeyword(norm, kw) {
			return "", true
		}
	}
	for kw := range p.exceptionWords {
		if containsKeyword(norm, kw) {
			return kw, false
		}
	}
	return "", false
}

func containsKeyword(haystack, keyword string) bool {
	return keyword != "" && len(haystack) >= len(keyword) && indexOf(haystack, keyword) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// Plans renders the downstream channel plan for every cluster: one plan
// for the main channel (if it has streams) plus one per populated
// exception-keyword variant.
func Plans(clusters []EventCluster) []Plan {
	var out []Plan
	for _, c := range clusters {
		if len(c.Main) > 0 {
			out = append(out, Plan{
				Event:     c.Event,
				TVGID:     downstream.TVGIDForEvent(c.Event.ID),
				StreamIDs: streamIDs(c.Main),
			})
		}
		for kw, streams := range c.Variant {
			if len(streams) == 0 {
				continue
			}
			out = append(out, Plan{
				Event:            c.Event,
				ExceptionKeyword: kw,
				TVGID:            downstream.TVGIDForEvent(c.Event.ID) + "-" + kw,
				StreamIDs:        streamIDs(streams),
			})
		}
	}
	return out
}

func streamIDs(streams []MatchedStream) []string {
	ids := make([]string, 0, len(streams))
	for _, s := range streams {
		ids = append(ids, s.Channel.URL)
	}
	return ids
}
