package metrics

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestCollectorTimings(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpAPIRequest, 10*time.Millisecond)
	c.RecordTiming(OpAPIRequest, 30*time.Millisecond)
	c.RecordError(OpAPIRequest)

	snap := c.Snapshot()
	if snap.APIRequest == nil {
		t.Fatal("expected api_request snapshot")
	}
	if snap.APIRequest.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.APIRequest.Count)
	}
	if snap.APIRequest.Errors != 1 {
		t.Errorf("Errors = %d, want 1", snap.APIRequest.Errors)
	}
	if snap.APIRequest.MinTimeMs != 10 || snap.APIRequest.MaxTimeMs != 30 {
		t.Errorf("Min/Max = %d/%d, want 10/30", snap.APIRequest.MinTimeMs, snap.APIRequest.MaxTimeMs)
	}
	if snap.APIRequest.AvgTimeMs != 20 {
		t.Errorf("Avg = %f, want 20", snap.APIRequest.AvgTimeMs)
	}
}

func TestCollectorEmptyOps(t *testing.T) {
	snap := NewCollector().Snapshot()
	if snap.APIRequest != nil || snap.RealtimeEvent != nil || snap.Reconcile != nil {
		t.Error("unrecorded operations must snapshot as nil")
	}
	if snap.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %f", snap.UptimeSeconds)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpAPIRequest, 20*time.Millisecond)
	c.RecordTiming(OpReconcile, time.Millisecond)

	path := filepath.Join(t.TempDir(), "nested", "stats.json")
	if err := WriteSnapshot(path, c.Snapshot()); err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}

	loaded, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot() error = %v", err)
	}
	if loaded.APIRequest == nil || loaded.APIRequest.Count != 1 {
		t.Errorf("APIRequest = %+v", loaded.APIRequest)
	}
	if loaded.Reconcile == nil || loaded.Reconcile.Count != 1 {
		t.Errorf("Reconcile = %+v", loaded.Reconcile)
	}
	if loaded.RealtimeEvent != nil {
		t.Error("unrecorded operation must stay nil through the round trip")
	}
}

func TestReadSnapshotMissing(t *testing.T) {
	_, err := ReadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrNoStats) {
		t.Errorf("err = %v, want ErrNoStats", err)
	}
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpRealtimeEvent, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.RealtimeEvent.Count != 1000 {
		t.Errorf("Count = %d, want 1000", snap.RealtimeEvent.Count)
	}
}
