// opv-modem bridges 134-byte frames to baseband IQ over UDP. It
// listens for frames on a UDP port and, depending on mode, logs them
// (monitor), modulates them to stdout (-tx), or modulates and
// immediately demodulates them through a child opv-demod, returning
// the decoded frames to the sender (-loopback). With -rx it instead
// feeds IQ from stdin through the demodulator and forwards decoded
// frames over UDP.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/logutils"
	"gopkg.in/ini.v1"
)

var (
	isDebugArg      *bool   = flag.Bool("debug", false, "Emit debug log messages")
	logDestArg      *string = flag.String("log", "", "Device/file for log (default stderr)")
	configArg       *string = flag.String("config", "", "INI file with option defaults")
	portArg         *uint   = flag.Uint("port", 57372, "UDP port for incoming frames")
	responsePortArg *uint   = flag.Uint("response-port", 57373, "UDP port for returned frames")
	txArg           *bool   = flag.Bool("tx", false, "TX mode: modulated IQ to stdout")
	rxArg           *bool   = flag.Bool("rx", false, "RX mode: IQ from stdin to UDP frames")
	loopbackArg     *bool   = flag.Bool("loopback", false, "Loopback mode: modulate, demodulate, return")
	rewriteArg      *string = flag.String("rewrite", "", "Rewrite returned frames with this callsign")
	demodArg        *string = flag.String("demod", "opv-demod", "Path to the demodulator binary")
	iqFileArg       *string = flag.String("iq-file", "", "Capture modulated IQ to this file")
	pttSerialArg    *string = flag.String("ptt-serial", "", "Serial device keying PTT via RTS")
	pttGPIOArg      *string = flag.String("ptt-gpio", "", "GPIO line keying PTT (chip:offset)")
	helpArg         *bool   = flag.Bool("h", false, "Print arguments")
)

func main() {
	flag.Parse()

	if *helpArg {
		flag.Usage()
		return
	}
	if *configArg != "" {
		if err := applyConfig(*configArg); err != nil {
			flag.Usage()
			log.Fatalf("Error reading config: %v", err)
		}
	}
	setupLogging()

	modes := 0
	for _, m := range []bool{*txArg, *rxArg, *loopbackArg} {
		if m {
			modes++
		}
	}
	if modes > 1 {
		flag.Usage()
		log.Fatal("-tx, -rx and -loopback are mutually exclusive")
	}

	signal.Ignore(syscall.SIGPIPE)

	m, err := NewModem(Config{
		Port:         *portArg,
		ResponsePort: *responsePortArg,
		TX:           *txArg,
		RX:           *rxArg,
		Loopback:     *loopbackArg,
		Rewrite:      *rewriteArg,
		DemodPath:    *demodArg,
		IQFile:       *iqFileArg,
		PTTSerial:    *pttSerialArg,
		PTTGPIO:      *pttGPIOArg,
	})
	if err != nil {
		log.Fatalf("Error creating modem: %v", err)
	}
	defer m.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	if err := m.Run(stop); err != nil {
		log.Fatalf("Error running modem: %v", err)
	}
}

// applyConfig loads option defaults from an INI file. Values from the
// file only apply to flags the command line left untouched.
func applyConfig(path string) error {
	cfg, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, key := range cfg.Section("").Keys() {
		name := key.Name()
		if set[name] {
			continue
		}
		if flag.Lookup(name) == nil {
			return fmt.Errorf("unknown option %q in %s", name, path)
		}
		if err := flag.Set(name, key.Value()); err != nil {
			return fmt.Errorf("option %q in %s: %w", name, path, err)
		}
	}
	return nil
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
