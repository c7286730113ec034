package opv

import "math/bits"

// ConvolutionalEncoder is the K=7 rate-1/2 encoder. The shift register
// holds the previous six input bits; each new bit produces two output
// bits from generators G1=0x4F and G2=0x6D applied to the extended
// state (in<<6)|sr. No tail bits are flushed at the end of a frame.
type ConvolutionalEncoder struct {
	sr byte
}

func (e *ConvolutionalEncoder) Reset() {
	e.sr = 0
}

// EncodeBit encodes one input bit (0 or 1) and returns the G1 and G2
// output bits.
func (e *ConvolutionalEncoder) EncodeBit(in byte) (g1, g2 byte) {
	state := (uint(in) << 6) | uint(e.sr)
	g1 = byte(bits.OnesCount(state&g1Mask) & 1)
	g2 = byte(bits.OnesCount(state&g2Mask) & 1)
	e.sr = ((e.sr << 1) | in) & (ConvolutionStates - 1)
	return g1, g2
}
