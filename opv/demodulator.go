package opv

import (
	"math"
	"math/cmplx"
)

// Demodulator recovers soft symbols from complex baseband samples by
// integrate-and-dump correlation against the two MSK tones, with a
// decision-directed AFC that trims its local oscillators between
// symbols.
type Demodulator struct {
	freqOffset float64
	afcAlpha   float64

	phase1, phase2 float64
	inc1, inc2     float64

	corr1, corr2         complex128
	prevCorr1, prevCorr2 complex128
	sampleCount          int
	firstSymbol          bool
}

const (
	afcDefaultAlpha = 0.001
	afcMaxOffset    = 2000.0
)

func NewDemodulator() *Demodulator {
	d := &Demodulator{
		afcAlpha:    afcDefaultAlpha,
		firstSymbol: true,
	}
	d.updateIncrements()
	return d
}

func (d *Demodulator) updateIncrements() {
	d.inc1 = 2 * math.Pi * (-FreqDeviation + d.freqOffset) / SampleRate
	d.inc2 = 2 * math.Pi * (FreqDeviation + d.freqOffset) / SampleRate
}

func (d *Demodulator) FreqOffset() float64 { return d.freqOffset }

func (d *Demodulator) SetFreqOffset(offset float64) {
	d.freqOffset = offset
	d.updateIncrements()
}

// SetAFCBandwidth sets the IIR gain applied to per-symbol frequency
// error estimates.
func (d *Demodulator) SetAFCBandwidth(alpha float64) {
	d.afcAlpha = alpha
}

func norm(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}

// Feed integrates one sample. Every SamplesPerSymbol samples it dumps
// the correlators and returns a soft symbol: positive for the upper
// tone (bit 0), negative for the lower (bit 1).
func (d *Demodulator) Feed(x complex128) (Symbol, bool) {
	lo1 := cmplx.Exp(complex(0, d.phase1))
	lo2 := cmplx.Exp(complex(0, d.phase2))
	d.corr1 += x * cmplx.Conj(lo1)
	d.corr2 += x * cmplx.Conj(lo2)
	d.phase1 += d.inc1
	d.phase2 += d.inc2
	d.sampleCount++
	if d.sampleCount < SamplesPerSymbol {
		return 0, false
	}

	d.sampleCount = 0
	d.phase1 = wrapPhase(d.phase1)
	d.phase2 = wrapPhase(d.phase2)

	e1 := norm(d.corr1)
	e2 := norm(d.corr2)
	soft := Symbol(e2 - e1)

	if !d.firstSymbol {
		dominant, prevDominant := d.corr2, d.prevCorr2
		if e1 > e2 {
			dominant, prevDominant = d.corr1, d.prevCorr1
		}
		phaseDiff := cmplx.Phase(dominant * cmplx.Conj(prevDominant))
		freqErr := phaseDiff * SymbolRate / (2 * math.Pi)
		d.freqOffset = clamp(d.freqOffset+d.afcAlpha*freqErr, -afcMaxOffset, afcMaxOffset)
		d.updateIncrements()
	}
	d.firstSymbol = false
	d.prevCorr1, d.prevCorr2 = d.corr1, d.corr2
	d.corr1, d.corr2 = 0, 0
	return soft, true
}

// EstimateOffset grid searches carrier offsets for the one that
// maximizes total tone energy over at most 1000 symbols, then refines
// around the winner in 5 Hz steps. It does not disturb demodulator
// state; call SetFreqOffset with the result.
func (d *Demodulator) EstimateOffset(samples []complex128) float64 {
	bestOffset, bestEnergy := 0.0, 0.0
	for offset := -1500.0; offset <= 1500.0; offset += 25 {
		if e := toneEnergy(samples, offset); e > bestEnergy {
			bestEnergy = e
			bestOffset = offset
		}
	}
	fineBest := bestOffset
	for offset := bestOffset - 30; offset <= bestOffset+30; offset += 5 {
		if e := toneEnergy(samples, offset); e > bestEnergy {
			bestEnergy = e
			fineBest = offset
		}
	}
	return fineBest
}

func toneEnergy(samples []complex128, offset float64) float64 {
	inc1 := 2 * math.Pi * (-FreqDeviation + offset) / SampleRate
	inc2 := 2 * math.Pi * (FreqDeviation + offset) / SampleRate
	n := len(samples)
	if max := SamplesPerSymbol * 1000; n > max {
		n = max
	}

	var phase1, phase2, total float64
	for sym := 0; sym < n/SamplesPerSymbol; sym++ {
		var corr1, corr2 complex128
		for i := 0; i < SamplesPerSymbol; i++ {
			x := samples[sym*SamplesPerSymbol+i]
			corr1 += x * cmplx.Exp(complex(0, -phase1))
			corr2 += x * cmplx.Exp(complex(0, -phase2))
			phase1 += inc1
			phase2 += inc2
		}
		total += norm(corr1) + norm(corr2)
	}
	return total
}
