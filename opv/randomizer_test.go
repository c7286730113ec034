package opv

import (
	"bytes"
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

func TestLFSRSequence(t *testing.T) {
	want := []byte{0xFF, 0x1A, 0xAF, 0x66, 0x52, 0x23, 0x1E, 0x10, 0xA0, 0xF9}
	l := NewLFSR()
	got := make([]byte, len(want))
	for i := range got {
		got[i] = l.NextByte()
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LFSR sequence = %x, want %x", got, want)
	}
}

func TestLFSRReset(t *testing.T) {
	l := NewLFSR()
	first := l.NextByte()
	l.NextByte()
	l.Reset()
	if got := l.NextByte(); got != first {
		t.Errorf("after Reset NextByte() = %#02x, want %#02x", got, first)
	}
}

func TestRandomizeFrameInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		frame := rapid.SliceOfN(rapid.Byte(), FrameBytes, FrameBytes).Draw(t, "frame")
		scrambled := bytes.Clone(frame)
		RandomizeFrame(scrambled)
		if bytes.Equal(scrambled, frame) {
			t.Fatalf("randomizing did not change the frame")
		}
		RandomizeFrame(scrambled)
		if !bytes.Equal(scrambled, frame) {
			t.Fatalf("randomizing twice did not restore the frame")
		}
	})
}
