package opv

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"log"
)

// FrameFunc receives each decoded frame along with its Viterbi path
// metric and the sync quality of the frame's lock. Returning an error
// stops the decode loop.
type FrameFunc func(frame *Frame, metric int, syncQuality float64) error

// Decoder wires the sample pipeline together: complex baseband in,
// decoded frames out via callback. One Decoder owns a demodulator, a
// sync tracker and a frame codec, so frequency and lock state persist
// across frames.
type Decoder struct {
	demod   *Demodulator
	tracker *SyncTracker
	codec   FrameCodec

	// EstimateSymbols bounds how many symbols are buffered up front
	// for the coarse frequency search.
	EstimateSymbols int
}

func NewDecoder() *Decoder {
	return &Decoder{
		demod:           NewDemodulator(),
		tracker:         NewSyncTracker(),
		EstimateSymbols: 1000,
	}
}

func (d *Decoder) Demodulator() *Demodulator { return d.demod }

// DCD reports whether the decoder currently has a carrier.
func (d *Decoder) DCD() bool { return d.tracker.DCD() }

func toComplex(s IQSample) complex128 {
	return complex(float64(s.I), float64(s.Q))
}

// DecodeSamples reads interleaved little-endian int16 I/Q pairs from
// in until EOF, handing every decoded frame to handleFrame. The head
// of the stream is buffered for the coarse frequency search before
// symbol recovery starts.
func (d *Decoder) DecodeSamples(in io.Reader, handleFrame FrameFunc) error {
	br := bufio.NewReaderSize(in, 1<<16)

	head := make([]IQSample, 0, d.EstimateSymbols*SamplesPerSymbol)
	for len(head) < cap(head) {
		var s IQSample
		if err := binary.Read(br, binary.LittleEndian, &s); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return err
		}
		head = append(head, s)
	}
	headComplex := make([]complex128, len(head))
	for i, s := range head {
		headComplex[i] = toComplex(s)
	}
	offset := d.demod.EstimateOffset(headComplex)
	d.demod.SetFreqOffset(offset)
	log.Printf("[DEBUG] coarse frequency offset %+.0f Hz", offset)

	samples := make(chan IQSample, 4096)
	done := make(chan struct{})
	readErr := make(chan error, 1)
	converter := NewSampleToComplex(samples, 4096)

	go func() {
		defer close(samples)
		for _, s := range head {
			select {
			case samples <- s:
			case <-done:
				return
			}
		}
		for {
			var s IQSample
			err := binary.Read(br, binary.LittleEndian, &s)
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return
			}
			if err != nil {
				readErr <- err
				return
			}
			select {
			case samples <- s:
			case <-done:
				return
			}
		}
	}()

	var handleErr error
	for x := range converter.Source() {
		if handleErr != nil {
			continue
		}
		soft, ok := d.demod.Feed(x)
		if !ok {
			continue
		}
		res := d.tracker.Process(soft)
		if res.SyncDetected {
			log.Printf("[DEBUG] sync %s, quality %.2f, offset %+.0f Hz",
				d.tracker.State(), res.SyncQuality, d.demod.FreqOffset())
		}
		if !res.FrameReady {
			continue
		}
		frame, metric, err := d.codec.Decode(res.Payload)
		if err != nil {
			log.Printf("[INFO] frame decode failed: %v", err)
			continue
		}
		if err := handleFrame(frame, metric, res.SyncQuality); err != nil {
			handleErr = err
			close(done)
		}
	}
	if handleErr != nil {
		return handleErr
	}
	select {
	case err := <-readErr:
		return err
	default:
		return nil
	}
}
