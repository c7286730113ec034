// Package opv implements the Opulent Voice MSK physical layer: frame
// randomization, convolutional FEC, interleaving, Viterbi decoding, the
// dual-NCO MSK modulator and the AFC demodulator with sync tracking.
package opv

import "math"

const (
	// Frame geometry
	FrameBytes    = 134
	HeaderBytes   = 12
	PayloadBytes  = FrameBytes - HeaderBytes
	StationIDLen  = 6
	TokenLen      = 3
	ReservedLen   = 3
	FrameBits     = FrameBytes * 8
	EncodedBits   = FrameBits * 2
	FrameSymbols  = SyncBits + EncodedBits
	SyncWord      = 0x02B8DB
	SyncBits      = 24
	PreambleBits  = FrameSymbols

	// Convolutional code, K=7 rate 1/2
	ConvolutionK      = 7
	ConvolutionStates = 1 << (ConvolutionK - 1)
	g1Mask            = 0x4F
	g2Mask            = 0x6D

	// Soft symbol quantization for the Viterbi decoder
	SoftMax = 7

	// Interleaver dimensions
	InterleaveRows = 67
	InterleaveCols = 32

	// Modem numerology
	SampleRate       = 2168000
	SymbolRate       = 54200
	SamplesPerSymbol = SampleRate / SymbolRate
	FreqDeviation    = 13550.0
	SampleAmplitude  = 16383
)

// Symbol is one soft demodulated symbol. Sign carries the bit decision
// (positive means bit 0), magnitude carries confidence.
type Symbol float64

// IQSample is one complex baseband sample as it appears on the wire:
// interleaved int16 little-endian I then Q.
type IQSample struct {
	I int16
	Q int16
}

// wrapPhase folds p into [-pi, pi).
func wrapPhase(p float64) float64 {
	for p >= math.Pi {
		p -= 2 * math.Pi
	}
	for p < -math.Pi {
		p += 2 * math.Pi
	}
	return p
}
