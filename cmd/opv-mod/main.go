// opv-mod modulates 134-byte frames into baseband IQ samples. Frames
// arrive on stdin, or are generated internally with -bert. IQ goes to
// stdout as interleaved little-endian int16 I/Q pairs.
package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hashicorp/logutils"
	"github.com/jancona/opv/opv"
)

var (
	isDebugArg  *bool   = flag.Bool("debug", false, "Emit debug log messages")
	logDestArg  *string = flag.String("log", "", "Device/file for log (default stderr)")
	outArg      *string = flag.String("out", "", "IQ output (default stdout)")
	callArg     *string = flag.String("call", "N0CALL", "Station callsign for BERT frames")
	bertArg     *uint   = flag.Uint("bert", 0, "Generate this many BERT frames instead of reading stdin")
	preambleArg *bool   = flag.Bool("preamble", true, "Emit a preamble before the first frame")
	deadArg     *uint   = flag.Uint("dead-carrier", 0, "Emit this many samples of unmodulated carrier before the preamble")
	helpArg     *bool   = flag.Bool("h", false, "Print arguments")
)

func main() {
	flag.Parse()

	if *helpArg {
		flag.Usage()
		return
	}
	setupLogging()

	out := os.Stdout
	if *outArg != "" {
		var err error
		out, err = os.Create(*outArg)
		if err != nil {
			log.Fatalf("Error opening IQ output: %v", err)
		}
		defer out.Close()
	}
	w := bufio.NewWriterSize(out, 1<<16)
	defer w.Flush()

	mod := opv.NewModulator()
	frames := 0
	writeSamples := func(samples []opv.IQSample) {
		if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
			log.Fatalf("Error writing IQ samples: %v", err)
		}
	}

	if *deadArg > 0 {
		writeSamples(mod.AppendDeadCarrier(int(*deadArg), nil))
	}
	if *preambleArg {
		writeSamples(mod.AppendPreamble(nil))
	}

	if *bertArg > 0 {
		for i := uint(0); i < *bertArg; i++ {
			frame, err := opv.NewBERTFrame(*callArg, uint32(i))
			if err != nil {
				log.Fatalf("Error building BERT frame: %v", err)
			}
			writeSamples(mod.ModulateFrame(frame, nil))
			frames++
		}
	} else {
		in := bufio.NewReaderSize(os.Stdin, 1<<16)
		for {
			var frame opv.Frame
			_, err := io.ReadFull(in, frame[:])
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				log.Print("[ERROR] Truncated frame on stdin, dropping")
				break
			}
			if err != nil {
				log.Fatalf("Error reading frame: %v", err)
			}
			log.Printf("[DEBUG] TX %d: %s [%06x]", frames+1, frame.Callsign(), frame.TokenValue())
			writeSamples(mod.ModulateFrame(&frame, nil))
			frames++
		}
	}
	fmt.Fprintf(os.Stderr, "Modulated %d frames\n", frames)
}

func setupLogging() {
	minLogLevel := "INFO"
	if *isDebugArg {
		minLogLevel = "DEBUG"
	}
	logWriter := os.Stderr
	if *logDestArg != "" {
		var err error
		logWriter, err = os.OpenFile(*logDestArg, os.O_WRONLY|os.O_CREATE|os.O_SYNC, 0644)
		if err != nil {
			log.Fatalf("Error opening log output, exiting: %v", err)
		}
	}

	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "ERROR"},
		MinLevel: logutils.LogLevel(minLogLevel),
		Writer:   logWriter,
	}
	log.SetOutput(filter)
	log.Print("[DEBUG] Debug is on")
}
