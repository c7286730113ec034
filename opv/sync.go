package opv

import "gonum.org/v1/gonum/floats"

// Sync acquisition thresholds.
const (
	huntNormThreshold = 0.85
	huntRawThreshold  = 5000.0
	lockNormThreshold = 0.40
	syncEnergyMin     = 100.0
	syncMissLimit     = 5
)

// SyncState tags the tracker's acquisition state.
type SyncState int

const (
	Hunting SyncState = iota
	Verifying
	Locked
)

func (s SyncState) String() string {
	switch s {
	case Hunting:
		return "HUNTING"
	case Verifying:
		return "VERIFYING"
	case Locked:
		return "LOCKED"
	}
	return "UNKNOWN"
}

// SyncResult reports what one symbol did to the tracker.
type SyncResult struct {
	// FrameReady is set when a full payload of EncodedBits soft
	// symbols has been collected; Payload holds them.
	FrameReady bool
	Payload    []Symbol
	// SyncDetected is set on the symbol where a sync word was found
	// (or confirmed while locked); SyncQuality is its normalized
	// correlation.
	SyncDetected bool
	SyncQuality  float64
}

// SyncTracker finds sync words in the soft symbol stream and carves
// out frame payloads. While hunting it correlates the trailing 24
// symbols against the sync pattern on every symbol; once locked it
// only checks where the next sync word is due and flywheels through
// occasional misses. The in-progress payload belongs to the
// verifying/locked states and is dropped when the tracker falls back
// to hunting.
type SyncTracker struct {
	state SyncState

	pattern [SyncBits]float64
	window  [SyncBits]float64
	scratch [SyncBits]float64
	winIdx  int

	symbolsSeen      int
	symbolsSinceSync int
	misses           int
	lastQuality      float64
	payload          []Symbol
}

func NewSyncTracker() *SyncTracker {
	t := &SyncTracker{}
	for i := 0; i < SyncBits; i++ {
		if (SyncWord>>uint(SyncBits-1-i))&1 == 1 {
			t.pattern[i] = -1
		} else {
			t.pattern[i] = 1
		}
	}
	return t
}

func (t *SyncTracker) State() SyncState { return t.state }

// DCD reports data carrier detect: a sync word has been found and not
// yet lost.
func (t *SyncTracker) DCD() bool { return t.state != Hunting }

// correlate computes the raw and normalized correlation of the current
// window against the sync pattern. Normalization divides by total
// window energy; windows below the energy floor normalize to zero.
func (t *SyncTracker) correlate() (raw, normalized float64) {
	for i := 0; i < SyncBits; i++ {
		t.scratch[i] = t.window[(t.winIdx+i)%SyncBits]
	}
	raw = floats.Dot(t.scratch[:], t.pattern[:])
	energy := floats.Norm(t.scratch[:], 1)
	if energy < syncEnergyMin {
		return raw, 0
	}
	return raw, raw / energy
}

func (t *SyncTracker) fallToHunting() {
	t.state = Hunting
	t.payload = nil
	t.misses = 0
}

// Process consumes one soft symbol and reports any state machine
// output it produced.
func (t *SyncTracker) Process(soft Symbol) SyncResult {
	t.window[t.winIdx] = float64(soft)
	t.winIdx = (t.winIdx + 1) % SyncBits
	t.symbolsSeen++

	var res SyncResult
	switch t.state {
	case Hunting:
		if t.symbolsSeen < SyncBits {
			return res
		}
		raw, normalized := t.correlate()
		if raw >= huntRawThreshold && normalized >= huntNormThreshold {
			t.state = Verifying
			t.payload = make([]Symbol, 0, EncodedBits)
			t.symbolsSinceSync = 0
			t.misses = 0
			t.lastQuality = normalized
			res.SyncDetected = true
			res.SyncQuality = normalized
		}

	case Verifying, Locked:
		t.symbolsSinceSync++
		if t.symbolsSinceSync <= EncodedBits {
			t.payload = append(t.payload, soft)
			if len(t.payload) == EncodedBits {
				res.FrameReady = true
				res.Payload = append([]Symbol(nil), t.payload...)
				res.SyncQuality = t.lastQuality
				t.payload = t.payload[:0]
				t.state = Locked
			}
		}
		if t.symbolsSinceSync == FrameSymbols {
			// The trailing window is exactly where the next sync word
			// is due.
			_, normalized := t.correlate()
			res.SyncQuality = normalized
			t.lastQuality = normalized
			if normalized >= lockNormThreshold {
				t.misses = 0
				res.SyncDetected = true
			} else {
				t.misses++
				if t.misses >= syncMissLimit {
					t.fallToHunting()
					return res
				}
			}
			t.symbolsSinceSync = 0
			t.payload = t.payload[:0]
		}
	}
	return res
}
