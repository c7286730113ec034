// opv-demod recovers frames from baseband IQ on stdin. Decoded frames
// are pretty printed to stderr and, with -r, written raw to stdout so
// the output can feed another process.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hashicorp/logutils"
	"github.com/jancona/opv/opv"
)

var (
	isDebugArg *bool    = flag.Bool("debug", false, "Emit debug log messages")
	logDestArg *string  = flag.String("log", "", "Device/file for log (default stderr)")
	quietArg   *bool    = flag.Bool("q", false, "Quiet mode, no per-frame output")
	rawArg     *bool    = flag.Bool("r", false, "Write raw decoded frames to stdout")
	streamArg  *bool    = flag.Bool("s", false, "Streaming mode, exit 0 even with no frames")
	afcBWArg   *float64 = flag.Float64("a", 0.001, "AFC bandwidth")
	bertArg    *bool    = flag.Bool("bert", false, "Score payloads as BERT test patterns")
	helpArg    *bool    = flag.Bool("h", false, "Print arguments")
)

func main() {
	flag.Parse()

	if *helpArg {
		flag.Usage()
		return
	}
	setupLogging()

	dec := opv.NewDecoder()
	dec.Demodulator().SetAFCBandwidth(*afcBWArg)

	decoded, perfect, bertBitErrors := 0, 0, 0
	err := dec.DecodeSamples(os.Stdin, func(frame *opv.Frame, metric int, quality float64) error {
		decoded++
		if metric == 0 {
			perfect++
		}
		if !*quietArg {
			fmt.Fprintf(os.Stderr, "Frame %d  metric %d  sync %.2f\n%s",
				decoded, metric, quality, frame)
		}
		if *bertArg {
			bitErrors, crcOK := opv.VerifyBERT(frame)
			bertBitErrors += bitErrors
			if !*quietArg {
				fmt.Fprintf(os.Stderr, "BERT %d: %d bit errors, CRC %v\n",
					frame.TokenValue(), bitErrors, crcOK)
			}
		}
		if *rawArg {
			if _, err := os.Stdout.Write(frame[:]); err != nil {
				return fmt.Errorf("writing frame: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error decoding: %v", err)
	}

	if !*quietArg {
		fmt.Fprintf(os.Stderr, "Summary: %d frames (%d perfect, %d with errors)\n",
			decoded, perfect, decoded-perfect)
		if *bertArg {
			fmt.Fprintf(os.Stderr, "BERT: %d payload bit errors\n", bertBitErrors)
		}
		fmt.Fprintf(os.Stderr, "Final AFC offset: %+.1f Hz\n", dec.Demodulator().FreqOffset())
	}
	if decoded == 0 && !*streamArg {
		os.Exit(1)
	}
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
