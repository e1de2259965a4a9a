// Package metrics provides Prometheus instrumentation for teamarrd.
//
// Counters/gauges registered here:
//
//	teamarr_cycles_total                — counter: generation cycles run
//	teamarr_cycle_duration_seconds       — histogram: wall time per cycle
//	teamarr_programmes_generated_total   — counter: scheduled+filler programmes emitted
//	teamarr_filler_generated_total       — counter: filler programmes by type
//	teamarr_team_pipeline_failures_total — counter: per-team pipeline panics/errors
//	teamarr_provider_calls_total         — counter: sports-data provider calls by provider/outcome
//	teamarr_matches_found_total          — counter: stream-to-event matches by event group
//	teamarr_channels_created_total       — counter: downstream channels created
//	teamarr_channels_deleted_total       — counter: downstream channels deleted
//	teamarr_managed_channels             — gauge: channels currently under management
//
// RecordCycle updates the cycle, programme, filler, failure and duration
// collectors. No code in this module updates ProviderCalls, MatchesFound,
// ChannelsCreated, ChannelsDeleted or ManagedChannels.
//
// Grounded on the teacher's internal/metrics package: promauto package-
// level vars registered to the default registerer, plus an Init(reg)
// entry point for isolated-registry tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/northernpowerhouse/teamarr/internal/model"
)

// ── Counters ──────────────────────────────────────────────────────────

var Cycles = promauto.NewCounter(prometheus.CounterOpts{
	Name: "teamarr_cycles_total",
	Help: "Generation cycles run.",
})

var ProgrammesGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "teamarr_programmes_generated_total",
	Help: "Scheduled and filler programmes emitted across all cycles.",
})

var FillerGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "teamarr_filler_generated_total",
	Help: "Filler programmes emitted, by type.",
}, []string{"type"})

var TeamPipelineFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "teamarr_team_pipeline_failures_total",
	Help: "Per-team pipeline errors or recovered panics.",
})

var ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "teamarr_provider_calls_total",
	Help: "Sports-data provider calls, by provider and outcome.",
}, []string{"provider", "outcome"})

var MatchesFound = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "teamarr_matches_found_total",
	Help: "Streams matched to events, by event group.",
}, []string{"event_group"})

var ChannelsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "teamarr_channels_created_total",
	Help: "Downstream channels created.",
})

var ChannelsDeleted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "teamarr_channels_deleted_total",
	Help: "Downstream channels deleted.",
})

// ── Gauges ────────────────────────────────────────────────────────────

var ManagedChannels = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "teamarr_managed_channels",
	Help: "Channels currently under Teamarr management.",
})

// ── Histograms ────────────────────────────────────────────────────────

var CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "teamarr_cycle_duration_seconds",
	Help:    "Wall time per generation cycle.",
	Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s .. ~17min
})

// ── Handler ───────────────────────────────────────────────────────────

// Handler returns the Prometheus scrape handler, mounted at GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ── Init (registry-scoped) ───────────────────────────────────────────

// Init registers a fresh copy of every collector with reg, for tests
// that want an isolated registry instead of the global default.
func Init(reg prometheus.Registerer) {
	reg.MustRegister(
		prometheus.NewCounter(prometheus.CounterOpts{Name: "teamarr_cycles_total", Help: "Generation cycles run."}),
		prometheus.NewCounter(prometheus.CounterOpts{Name: "teamarr_programmes_generated_total", Help: "Scheduled and filler programmes emitted."}),
		prometheus.NewCounterVec(prometheus.CounterOpts{Name: "teamarr_filler_generated_total", Help: "Filler programmes by type."}, []string{"type"}),
		prometheus.NewCounter(prometheus.CounterOpts{Name: "teamarr_team_pipeline_failures_total", Help: "Per-team pipeline errors."}),
		prometheus.NewCounterVec(prometheus.CounterOpts{Name: "teamarr_provider_calls_total", Help: "Provider calls by provider/outcome."}, []string{"provider", "outcome"}),
		prometheus.NewCounterVec(prometheus.CounterOpts{Name: "teamarr_matches_found_total", Help: "Matches by event group."}, []string{"event_group"}),
		prometheus.NewCounter(prometheus.CounterOpts{Name: "teamarr_channels_created_total", Help: "Channels created."}),
		prometheus.NewCounter(prometheus.CounterOpts{Name: "teamarr_channels_deleted_total", Help: "Channels deleted."}),
		prometheus.NewGauge(prometheus.GaugeOpts{Name: "teamarr_managed_channels", Help: "Channels under management."}),
		prometheus.NewHistogram(prometheus.HistogramOpts{Name: "teamarr_cycle_duration_seconds", Help: "Wall time per cycle.", Buckets: prometheus.ExponentialBuckets(1, 2, 10)}),
	)
}

// RecordCycle updates the counters derived from one completed cycle's
// stats: total programmes, filler by type, failures, and duration.
func RecordCycle(programmes int, fillerByType map[model.FillerType]int, failures int, durationSeconds float64) {
	Cycles.Inc()
	ProgrammesGenerated.Add(float64(programmes))
	for t, n := range fillerByType {
		FillerGenerated.WithLabelValues(string(t)).Add(float64(n))
	}
	TeamPipelineFailures.Add(float64(failures))
	CycleDuration.Observe(durationSeconds)
}
