package opv

import "golang.org/x/exp/constraints"

type Number interface {
	constraints.Integer | constraints.Float
}

func clamp[T Number](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Generic transformation stage: reads from sink, applies transform,
// fans the results out on source. Stages chain by feeding one stage's
// Source into the next stage's sink.
type Transform[I any, O any] struct {
	sink      chan I
	source    chan O
	transform func(I) []O
}

func NewTransform[I any, O any](sink chan I, transform func(I) []O, sourceSize int) Transform[I, O] {
	ret := Transform[I, O]{
		sink:      sink,
		source:    make(chan O, sourceSize),
		transform: transform,
	}
	go ret.handle()
	return ret
}

func (t *Transform[I, O]) Source() chan O {
	return t.source
}

func (t *Transform[I, O]) handle() {
	for {
		sample, ok := <-t.sink
		if !ok {
			break
		}
		for _, s := range t.transform(sample) {
			t.source <- s
		}
	}
	close(t.source)
}

// SampleToComplex lifts wire-format int16 I/Q pairs to complex
// baseband samples.
type SampleToComplex struct {
	Transform[IQSample, complex128]
}

func NewSampleToComplex(sink chan IQSample, sourceSize int) SampleToComplex {
	ret := SampleToComplex{}
	ret.Transform = NewTransform(sink, ret.convert, sourceSize)
	return ret
}

func (t *SampleToComplex) convert(s IQSample) []complex128 {
	return []complex128{complex(float64(s.I), float64(s.Q))}
}
