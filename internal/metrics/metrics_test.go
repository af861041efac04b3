// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// histogramState returns the sample count and sum of h.
func histogramState(t *testing.T, h prometheus.Histogram) (uint64, float64) {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	return m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()
}

func TestRecordRotation(t *testing.T) {
	for _, outcome := range []string{"unchanged", "rotated", "skipped", "failed"} {
		t.Run(outcome, func(t *testing.T) {
			before := testutil.ToFloat64(RotationsTotal.WithLabelValues(outcome))
			RecordRotation(outcome, 20*time.Millisecond)
			after := testutil.ToFloat64(RotationsTotal.WithLabelValues(outcome))
			if after-before != 1 {
				t.Errorf("soapbox_rotations_total{outcome=%q} delta = %v, want 1", outcome, after-before)
			}
		})
	}
}

func TestRecordFleetSync(t *testing.T) {
	successBefore := testutil.ToFloat64(FleetSyncTotal.WithLabelValues("success"))
	errorBefore := testutil.ToFloat64(FleetSyncTotal.WithLabelValues("error"))

	RecordFleetSync(time.Second, 7, nil)
	if got := testutil.ToFloat64(StoriesDiscovered); got != 7 {
		t.Errorf("stories discovered = %v, want 7", got)
	}
	if testutil.ToFloat64(FleetSyncLastSuccess) == 0 {
		t.Error("last success timestamp should be set")
	}

	RecordFleetSync(time.Second, 0, errors.New("list failed"))
	if got := testutil.ToFloat64(StoriesDiscovered); got != 7 {
		t.Errorf("failed pass should not reset discovered gauge, got %v", got)
	}

	if d := testutil.ToFloat64(FleetSyncTotal.WithLabelValues("success")) - successBefore; d != 1 {
		t.Errorf("success delta = %v", d)
	}
	if d := testutil.ToFloat64(FleetSyncTotal.WithLabelValues("error")) - errorBefore; d != 1 {
		t.Errorf("error delta = %v", d)
	}
}

func TestRecordObjectStoreRequest(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
		status   string
	}{
		{"success", nil, false, "success"},
		{"not found", errors.New("missing"), true, "not_found"},
		{"error", errors.New("boom"), false, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ObjectStoreRequestsTotal.WithLabelValues("get", tt.status)
			before := testutil.ToFloat64(c)
			RecordObjectStoreRequest("get", tt.err, tt.notFound)
			if d := testutil.ToFloat64(c) - before; d != 1 {
				t.Errorf("delta = %v, want 1", d)
			}
		})
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	RecordCircuitBreakerTransition("discord", "closed", "open", 2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("discord")); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
	RecordCircuitBreakerTransition("discord", "open", "half-open", 1)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("discord")); got != 1 {
		t.Errorf("state = %v, want 1", got)
	}
}

func TestRecordWitnessUpload(t *testing.T) {
	before := testutil.ToFloat64(WitnessUploadsTotal.WithLabelValues("rejected"))
	countBefore, sumBefore := histogramState(t, WitnessUploadBytes)

	RecordWitnessUpload("rejected", 0)
	RecordWitnessUpload("success", 1<<20)

	if d := testutil.ToFloat64(WitnessUploadsTotal.WithLabelValues("rejected")) - before; d != 1 {
		t.Errorf("rejected delta = %v", d)
	}
	count, sum := histogramState(t, WitnessUploadBytes)
	if count-countBefore != 1 {
		t.Errorf("size histogram count delta = %d, want 1 (rejections are not sized)", count-countBefore)
	}
	if sum-sumBefore != 1<<20 {
		t.Errorf("size histogram sum delta = %v, want %d", sum-sumBefore, 1<<20)
	}
}

func TestTrackWSConnection(t *testing.T) {
	before := testutil.ToFloat64(WSConnections)
	TrackWSConnection(true)
	TrackWSConnection(true)
	TrackWSConnection(false)
	if d := testutil.ToFloat64(WSConnections) - before; d != 1 {
		t.Errorf("gauge delta = %v, want 1", d)
	}
	TrackWSConnection(false)
}

func TestConcurrentMetricRecording(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordAPIRequest("POST", "/admin/sync-stories", "200", time.Millisecond)
			RecordPlatformRequest("create_thread", "success")
			RecordEventPublished("story.rotated")
			SetLedgerEntries(3)
		}()
	}
	wg.Wait()
	if got := testutil.ToFloat64(LedgerEntries); got != 3 {
		t.Errorf("ledger entries = %v, want 3", got)
	}
}
