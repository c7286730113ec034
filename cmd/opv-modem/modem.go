package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net"
	"os"

	"github.com/jancona/opv/opv"
)

// Config holds the modem's operating parameters, normally populated
// from the command line.
type Config struct {
	Port         uint
	ResponsePort uint
	TX           bool
	RX           bool
	Loopback     bool
	Rewrite      string
	DemodPath    string
	IQFile       string
	PTTSerial    string
	PTTGPIO      string
}

// Modem moves frames between a UDP socket and the modulator or a
// child demodulator, depending on the configured mode.
type Modem struct {
	cfg        Config
	conn       *net.UDPConn
	mod        *opv.Modulator
	child      *ChildDemod
	ptt        PTT
	iqOut      *os.File
	lastSender *net.UDPAddr
	txFrames   int
	rxFrames   int
}

func NewModem(cfg Config) (*Modem, error) {
	m := &Modem{
		cfg: cfg,
		mod: opv.NewModulator(),
	}

	ptt, err := NewPTT(cfg.PTTSerial, cfg.PTTGPIO)
	if err != nil {
		return nil, fmt.Errorf("opening PTT: %w", err)
	}
	m.ptt = ptt

	if !cfg.RX {
		addr := &net.UDPAddr{Port: int(cfg.Port)}
		m.conn, err = net.ListenUDP("udp", addr)
		if err != nil {
			m.ptt.Close()
			return nil, fmt.Errorf("listening on UDP port %d: %w", cfg.Port, err)
		}
		log.Printf("[INFO] Listening for frames on UDP port %d", cfg.Port)
	}

	if cfg.Loopback || cfg.RX {
		m.child, err = StartChildDemod(cfg.DemodPath)
		if err != nil {
			m.closePartial()
			return nil, fmt.Errorf("starting demodulator %s: %w", cfg.DemodPath, err)
		}
	}

	if cfg.IQFile != "" {
		m.iqOut, err = os.Create(cfg.IQFile)
		if err != nil {
			m.closePartial()
			return nil, fmt.Errorf("opening IQ capture file: %w", err)
		}
	}
	return m, nil
}

func (m *Modem) closePartial() {
	if m.child != nil {
		m.child.Stop()
	}
	if m.conn != nil {
		m.conn.Close()
	}
	m.ptt.Close()
}

// Run services the modem until stop delivers a signal or a fatal
// error occurs.
func (m *Modem) Run(stop chan os.Signal) error {
	if m.cfg.RX {
		return m.runRX(stop)
	}
	return m.runUDP(stop)
}

// runRX feeds IQ samples from stdin through the child demodulator and
// forwards each decoded frame over UDP to the response port.
func (m *Modem) runRX(stop chan os.Signal) error {
	conn, err := net.Dial("udp",
		fmt.Sprintf("127.0.0.1:%d", m.cfg.ResponsePort))
	if err != nil {
		return fmt.Errorf("dialing response port: %w", err)
	}
	defer conn.Close()

	go func() {
		if _, err := io.Copy(m.child.Stdin(), os.Stdin); err != nil {
			log.Printf("[ERROR] Copying IQ to demodulator: %v", err)
		}
		m.child.CloseStdin()
	}()

	for {
		select {
		case frame, ok := <-m.child.Frames():
			if !ok {
				return nil
			}
			m.rxFrames++
			log.Printf("[DEBUG] RX %d: %s [%06x]",
				m.rxFrames, frame.Callsign(), frame.TokenValue())
			if _, err := conn.Write(frame[:]); err != nil {
				return fmt.Errorf("forwarding frame: %w", err)
			}
		case sig := <-stop:
			log.Printf("[INFO] Received %v, exiting", sig)
			return nil
		}
	}
}

// runUDP is the receive loop for monitor, TX and loopback modes.
func (m *Modem) runUDP(stop chan os.Signal) error {
	frames := make(chan udpFrame)
	go m.readUDP(frames)

	var childFrames <-chan opv.Frame
	if m.child != nil {
		childFrames = m.child.Frames()
	}

	for {
		select {
		case f := <-frames:
			if err := m.handleFrame(f); err != nil {
				return err
			}
		case frame, ok := <-childFrames:
			if !ok {
				return fmt.Errorf("demodulator exited unexpectedly")
			}
			if err := m.returnFrame(frame); err != nil {
				return err
			}
		case sig := <-stop:
			log.Printf("[INFO] Received %v, exiting", sig)
			return nil
		}
	}
}

type udpFrame struct {
	frame opv.Frame
	addr  *net.UDPAddr
}

func (m *Modem) readUDP(frames chan<- udpFrame) {
	buf := make([]byte, 2*opv.FrameBytes)
	for {
		n, addr, err := m.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if n != opv.FrameBytes {
			log.Printf("[DEBUG] Dropping %d byte datagram from %v", n, addr)
			continue
		}
		var f udpFrame
		copy(f.frame[:], buf[:opv.FrameBytes])
		f.addr = addr
		frames <- f
	}
}

func (m *Modem) handleFrame(f udpFrame) error {
	m.txFrames++
	m.lastSender = f.addr
	log.Printf("[DEBUG] TX %d: %s [%06x] from %v",
		m.txFrames, f.frame.Callsign(), f.frame.TokenValue(), f.addr)

	if !m.cfg.TX && !m.cfg.Loopback {
		return nil
	}

	samples := m.mod.ModulateFrame(&f.frame, nil)
	if m.iqOut != nil {
		if err := binary.Write(m.iqOut, binary.LittleEndian, samples); err != nil {
			return fmt.Errorf("writing IQ capture: %w", err)
		}
	}
	if m.cfg.TX {
		if err := m.ptt.Set(true); err != nil {
			return fmt.Errorf("keying PTT: %w", err)
		}
		if err := binary.Write(os.Stdout, binary.LittleEndian, samples); err != nil {
			return fmt.Errorf("writing IQ samples: %w", err)
		}
		if err := m.ptt.Set(false); err != nil {
			return fmt.Errorf("unkeying PTT: %w", err)
		}
	}
	if m.cfg.Loopback {
		if err := m.child.WriteIQ(samples); err != nil {
			return fmt.Errorf("writing IQ to demodulator: %w", err)
		}
	}
	return nil
}

// returnFrame sends a frame decoded by the child demodulator back to
// whoever sent us the last frame, optionally rewriting the station ID.
func (m *Modem) returnFrame(frame opv.Frame) error {
	m.rxFrames++
	if m.cfg.Rewrite != "" {
		if frame.Callsign() == m.cfg.Rewrite {
			log.Printf("[DEBUG] Skipping frame already from %s", m.cfg.Rewrite)
			return nil
		}
		if err := frame.SetCallsign(m.cfg.Rewrite); err != nil {
			return fmt.Errorf("rewriting callsign: %w", err)
		}
	}
	if m.lastSender == nil {
		log.Print("[DEBUG] No sender to return frame to, dropping")
		return nil
	}
	dest := *m.lastSender
	if m.cfg.ResponsePort > 0 {
		dest.Port = int(m.cfg.ResponsePort)
	}
	log.Printf("[DEBUG] RX %d: %s [%06x] to %v",
		m.rxFrames, frame.Callsign(), frame.TokenValue(), &dest)
	if _, err := m.conn.WriteToUDP(frame[:], &dest); err != nil {
		return fmt.Errorf("returning frame: %w", err)
	}
	return nil
}

func (m *Modem) Close() error {
	if m.child != nil {
		m.child.Stop()
	}
	if m.iqOut != nil {
		// A silent tail lets the decoder flush its last frame.
		tail := make([]opv.IQSample, 100*opv.SamplesPerSymbol)
		if err := binary.Write(m.iqOut, binary.LittleEndian, tail); err != nil {
			log.Printf("[ERROR] Writing IQ capture tail: %v", err)
		}
		m.iqOut.Close()
	}
	if m.conn != nil {
		m.conn.Close()
	}
	if err := m.ptt.Close(); err != nil {
		log.Printf("[ERROR] Closing PTT: %v", err)
	}
	log.Printf("[INFO] Summary: TX %d frames, RX %d frames", m.txFrames, m.rxFrames)
	return nil
}
