package opv

import (
	"math"
	"testing"
)

// syncSymbols returns ideal soft symbols for the sync word at the
// given magnitude.
func syncSymbols(magnitude float64) []Symbol {
	out := make([]Symbol, SyncBits)
	for i := 0; i < SyncBits; i++ {
		if (SyncWord>>uint(SyncBits-1-i))&1 == 1 {
			out[i] = Symbol(-magnitude)
		} else {
			out[i] = Symbol(magnitude)
		}
	}
	return out
}

func feedAll(t *SyncTracker, symbols []Symbol) (last SyncResult, frames int) {
	for _, s := range symbols {
		last = t.Process(s)
		if last.FrameReady {
			frames++
		}
	}
	return last, frames
}

func TestSyncTrackerDetectsSync(t *testing.T) {
	tracker := NewSyncTracker()
	if tracker.DCD() {
		t.Fatal("DCD true before any symbols")
	}
	res, _ := feedAll(tracker, syncSymbols(1000))
	if !res.SyncDetected {
		t.Fatal("sync not detected at end of sync word")
	}
	if math.Abs(res.SyncQuality-1.0) > 1e-9 {
		t.Errorf("sync quality = %f, want 1.0", res.SyncQuality)
	}
	if tracker.State() != Verifying {
		t.Errorf("state = %v, want VERIFYING", tracker.State())
	}
	if !tracker.DCD() {
		t.Error("DCD false after sync detection")
	}
}

func TestSyncTrackerIgnoresWeakCorrelation(t *testing.T) {
	tracker := NewSyncTracker()
	// Right shape but below the raw correlation threshold.
	res, _ := feedAll(tracker, syncSymbols(100))
	if res.SyncDetected {
		t.Error("detected sync below raw threshold")
	}
	if tracker.State() != Hunting {
		t.Errorf("state = %v, want HUNTING", tracker.State())
	}
}

func TestSyncTrackerEmitsPayload(t *testing.T) {
	tracker := NewSyncTracker()
	feedAll(tracker, syncSymbols(1000))

	payload := make([]Symbol, EncodedBits)
	for i := range payload {
		payload[i] = Symbol(1000 - 2000*(i&1))
	}
	var got SyncResult
	for i, s := range payload {
		res := tracker.Process(s)
		if res.FrameReady && i != EncodedBits-1 {
			t.Fatalf("frame ready after %d payload symbols", i+1)
		}
		if res.FrameReady {
			got = res
		}
	}
	if got.Payload == nil {
		t.Fatal("no frame emitted after full payload")
	}
	if len(got.Payload) != EncodedBits {
		t.Fatalf("payload length = %d, want %d", len(got.Payload), EncodedBits)
	}
	for i, s := range got.Payload {
		if s != payload[i] {
			t.Fatalf("payload symbol %d = %v, want %v", i, s, payload[i])
		}
	}
	if tracker.State() != Locked {
		t.Errorf("state = %v, want LOCKED", tracker.State())
	}
}

func TestSyncTrackerLockedCadence(t *testing.T) {
	tracker := NewSyncTracker()
	feedAll(tracker, syncSymbols(1000))

	// Three frames of payload plus their following sync words.
	for frame := 0; frame < 3; frame++ {
		payload := make([]Symbol, EncodedBits)
		for i := range payload {
			payload[i] = Symbol(500 - 1000*((i+frame)&1))
		}
		_, frames := feedAll(tracker, payload)
		if frames != 1 {
			t.Fatalf("frame %d: emitted %d frames, want 1", frame, frames)
		}
		res, _ := feedAll(tracker, syncSymbols(1000))
		if !res.SyncDetected {
			t.Fatalf("frame %d: expected sync confirmation on cadence", frame)
		}
		if tracker.State() != Locked {
			t.Fatalf("frame %d: state = %v, want LOCKED", frame, tracker.State())
		}
	}
}

func TestSyncTrackerFlywheelThenLoss(t *testing.T) {
	tracker := NewSyncTracker()
	feedAll(tracker, syncSymbols(1000))

	// Dead air: every due sync check misses. The tracker should
	// flywheel through four misses and drop carrier on the fifth.
	for miss := 0; miss < syncMissLimit; miss++ {
		if !tracker.DCD() {
			t.Fatalf("lost carrier after %d misses, want %d", miss, syncMissLimit)
		}
		feedAll(tracker, make([]Symbol, FrameSymbols))
	}
	if tracker.DCD() {
		t.Error("DCD still true after miss limit")
	}
	if tracker.State() != Hunting {
		t.Errorf("state = %v, want HUNTING", tracker.State())
	}
}
