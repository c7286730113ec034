package opv

import "errors"

// ErrNoSignal is returned by FrameCodec.Decode when the soft symbols
// carry essentially no energy, so quantization would divide by zero.
var ErrNoSignal = errors.New("no signal energy in soft symbols")

// FrameCodec turns frames into interleaved channel bits and soft
// demodulated symbols back into frames. One codec holds a reusable
// Viterbi decoder, so a single instance should serve a whole stream.
type FrameCodec struct {
	// ForwardOrder encodes frame bytes head first instead of the
	// on-air tail-first order. For experimentation only; both ends
	// must agree.
	ForwardOrder bool

	viterbi ViterbiDecoder
}

// Encode whitens the frame, convolutionally encodes it and interleaves
// the result. The returned slice holds EncodedBits bit values in
// transmit order, ready to follow a sync word.
func (c *FrameCodec) Encode(frame *Frame) []byte {
	scrambled := *frame
	RandomizeFrame(scrambled[:])

	var enc ConvolutionalEncoder
	encoded := make([]byte, 0, EncodedBits)
	appendByte := func(b byte) {
		for j := 7; j >= 0; j-- {
			g1, g2 := enc.EncodeBit((b >> uint(j)) & 1)
			encoded = append(encoded, g1, g2)
		}
	}
	if c.ForwardOrder {
		for i := 0; i < FrameBytes; i++ {
			appendByte(scrambled[i])
		}
	} else {
		for i := FrameBytes - 1; i >= 0; i-- {
			appendByte(scrambled[i])
		}
	}
	return Interleave(encoded)
}

// Decode takes EncodedBits soft symbols in receive order and recovers
// the frame plus the Viterbi path metric. Metric zero means every
// symbol agreed with the decoded frame.
func (c *FrameCodec) Decode(soft []Symbol) (*Frame, int, error) {
	var sum float64
	for _, s := range soft {
		if s < 0 {
			sum -= float64(s)
		} else {
			sum += float64(s)
		}
	}
	scale := sum / float64(len(soft))
	if scale < 1e-10 {
		return nil, 0, ErrNoSignal
	}

	quantized := make([]int, len(soft))
	for i, s := range soft {
		quantized[i] = clamp(int((-float64(s)/scale)*3.5+3.5+0.5), 0, SoftMax)
	}

	decoded, metric := c.viterbi.Decode(Deinterleave(quantized))

	var frame Frame
	if c.ForwardOrder {
		for i := range decoded {
			frame[i] = decoded[FrameBytes-1-i]
		}
	} else {
		copy(frame[:], decoded)
	}
	RandomizeFrame(frame[:])
	return &frame, metric, nil
}
