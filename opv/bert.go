package opv

import (
	"encoding/binary"
	"math/bits"

	"github.com/sigurn/crc16"
)

var bertCRCParams = crc16.Params{Poly: 0x5935, Init: 0xffff, Name: "OPV-BERT"}
var bertCRCTable = crc16.MakeTable(bertCRCParams)

// CRC computes the checksum carried in the last two payload bytes of a
// BERT frame.
func CRC(d []byte) uint16 {
	return crc16.Checksum(d, bertCRCTable)
}

const bertPatternLen = PayloadBytes - 2

// NewBERTFrame builds a bit error rate test frame. The token carries
// the frame number, the payload an incrementing byte pattern seeded by
// it, and the final two payload bytes a big-endian CRC so a receiver
// can score frames without regenerating the pattern.
func NewBERTFrame(callsign string, frameNum uint32) (*Frame, error) {
	var f Frame
	if err := f.SetCallsign(callsign); err != nil {
		return nil, err
	}
	f.SetTokenValue(frameNum & 0xFFFFFF)
	p := f.Payload()
	for i := 0; i < bertPatternLen; i++ {
		p[i] = byte(frameNum + uint32(i))
	}
	binary.BigEndian.PutUint16(p[bertPatternLen:], CRC(p[:bertPatternLen]))
	return &f, nil
}

// VerifyBERT scores a received BERT frame: bitErrors counts payload
// pattern bits that differ from the pattern the token implies, and
// crcOK reports whether the trailing checksum matches the payload as
// received.
func VerifyBERT(f *Frame) (bitErrors int, crcOK bool) {
	frameNum := f.TokenValue()
	p := f.Payload()
	for i := 0; i < bertPatternLen; i++ {
		bitErrors += bits.OnesCount8(p[i] ^ byte(frameNum+uint32(i)))
	}
	crcOK = binary.BigEndian.Uint16(p[bertPatternLen:]) == CRC(p[:bertPatternLen])
	return bitErrors, crcOK
}
