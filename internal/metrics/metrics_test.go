package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/northernpowerhouse/teamarr/internal/model"
)

// TestInit_RegistersWithoutPanic verifies that calling Init with a fresh
// registry does not panic. Successful registration is the invariant —
// if any metric descriptor is invalid or duplicated, MustRegister panics.
func TestInit_RegistersWithoutPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg)
}

// TestInit_DoubleRegistrationPanics confirms registering the same metric
// names twice to the same registry panics (standard prometheus behavior),
// proving Init really does register something.
func TestInit_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on double registration, but Init did not panic")
		}
	}()
	Init(reg)
}

func TestRecordCycle_UpdatesCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(Cycles, ProgrammesGenerated, FillerGenerated, TeamPipelineFailures, CycleDuration)

	RecordCycle(42, map[model.FillerType]int{model.FillerIdle: 3, model.FillerPregame: 1}, 2, 1.5)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "teamarr_cycles_total":
				values["cycles"] += m.GetCounter().GetValue()
			case "teamarr_programmes_generated_total":
				values["programmes"] += m.GetCounter().GetValue()
			case "teamarr_team_pipeline_failures_total":
				values["failures"] += m.GetCounter().GetValue()
			case "teamarr_cycle_duration_seconds":
				values["duration_samples"] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	if values["cycles"] != 1 {
		t.Errorf("cycles = %v, want 1", values["cycles"])
	}
	if values["programmes"] != 42 {
		t.Errorf("programmes = %v, want 42", values["programmes"])
	}
	if values["failures"] != 2 {
		t.Errorf("failures = %v, want 2", values["failures"])
	}
	if values["duration_samples"] != 1 {
		t.Errorf("cycle duration samples = %v, want 1", values["duration_samples"])
	}
}

// TestHandler_Returns200 confirms the metrics HTTP handler responds correctly.
func TestHandler_Returns200(t *testing.T) {
	h := Handler()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Handler() status = %d; want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "go_") && !strings.Contains(body, "# HELP") {
		t.Error("expected Prometheus text format in response body")
	}
}
