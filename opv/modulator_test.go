package opv

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestModulatorConstantEnvelope(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bits := rapid.SliceOfN(rapid.ByteRange(0, 1), 64, 64).Draw(t, "bits")
		m := NewModulator()
		samples := m.AppendBits(nil, bits)
		want := float64(SampleAmplitude) * float64(SampleAmplitude)
		for i, s := range samples {
			mag := float64(s.I)*float64(s.I) + float64(s.Q)*float64(s.Q)
			// int16 truncation costs up to ~2 LSB of amplitude
			if math.Abs(mag-want) > 5*float64(SampleAmplitude) {
				t.Fatalf("sample %d: |s|^2 = %.0f, want ~%.0f", i, mag, want)
			}
		}
	})
}

func TestModulatorPhaseContinuity(t *testing.T) {
	m := NewModulator()
	bits := make([]byte, 100)
	for i := range bits {
		bits[i] = byte((i / 3) & 1)
	}
	samples := m.AppendBits(nil, bits)

	maxStep := 2*math.Pi*FreqDeviation/SampleRate + 0.01
	prev := math.Atan2(float64(samples[0].Q), float64(samples[0].I))
	for i := 1; i < len(samples); i++ {
		cur := math.Atan2(float64(samples[i].Q), float64(samples[i].I))
		d := math.Abs(wrapPhase(cur - prev))
		if d > maxStep {
			t.Fatalf("sample %d: phase step %.4f rad exceeds %.4f", i, d, maxStep)
		}
		prev = cur
	}
}

func TestModulatorSampleCount(t *testing.T) {
	m := NewModulator()
	frame := testFrame(t, 1)
	samples := m.ModulateFrame(frame, nil)
	if len(samples) != FrameSymbols*SamplesPerSymbol {
		t.Errorf("ModulateFrame produced %d samples, want %d",
			len(samples), FrameSymbols*SamplesPerSymbol)
	}
	samples = m.AppendPreamble(nil)
	if len(samples) != PreambleBits*SamplesPerSymbol {
		t.Errorf("AppendPreamble produced %d samples, want %d",
			len(samples), PreambleBits*SamplesPerSymbol)
	}
}

func TestModulatorDeadCarrier(t *testing.T) {
	m := NewModulator()
	m.AppendBits(nil, []byte{0, 1, 1})

	phase1, phase2 := m.phase1, m.phase2
	samples := m.AppendDeadCarrier(50, nil)
	if len(samples) != 50 {
		t.Fatalf("AppendDeadCarrier produced %d samples, want 50", len(samples))
	}
	want := IQSample{
		I: int16(SampleAmplitude * math.Cos(phase1)),
		Q: int16(SampleAmplitude * math.Sin(phase1)),
	}
	for i, s := range samples {
		if s != want {
			t.Fatalf("sample %d: got %v, want constant %v", i, s, want)
		}
	}
	if m.phase1 != phase1 || m.phase2 != phase2 {
		t.Error("dead carrier advanced the oscillator phases")
	}
}

func TestModulatorStatePeriodicity(t *testing.T) {
	// Over alternating bits the gating state repeats with period four
	// and the oscillators return to their start phase every 160
	// samples, so the waveform itself repeats every four bits.
	m := NewModulator()
	bits := make([]byte, 16)
	for i := range bits {
		bits[i] = byte(i & 1)
	}
	samples := m.AppendBits(nil, bits)
	period := 4 * SamplesPerSymbol
	for i := period; i < len(samples); i++ {
		if diff := int(samples[i].I) - int(samples[i-period].I); diff < -1 || diff > 1 {
			t.Fatalf("I sample %d differs from one period earlier by %d", i, diff)
		}
		if diff := int(samples[i].Q) - int(samples[i-period].Q); diff < -1 || diff > 1 {
			t.Fatalf("Q sample %d differs from one period earlier by %d", i, diff)
		}
	}
}
