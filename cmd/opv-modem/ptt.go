package main

import (
	"fmt"

	"go.bug.st/serial"
)

// PTT keys a transmitter on and off.
type PTT interface {
	Set(tx bool) error
	Close() error
}

// NewPTT selects a PTT implementation from the configured devices. At
// most one may be given; with neither, PTT operations are no-ops.
func NewPTT(serialDev, gpioSpec string) (PTT, error) {
	switch {
	case serialDev != "" && gpioSpec != "":
		return nil, fmt.Errorf("serial and GPIO PTT are mutually exclusive")
	case serialDev != "":
		return newSerialPTT(serialDev)
	case gpioSpec != "":
		return newGPIOPTT(gpioSpec)
	}
	return nullPTT{}, nil
}

type nullPTT struct{}

func (nullPTT) Set(bool) error { return nil }
func (nullPTT) Close() error   { return nil }

// serialPTT keys the transmitter with the RTS line of a serial port.
type serialPTT struct {
	port serial.Port
}

func newSerialPTT(dev string) (*serialPTT, error) {
	port, err := serial.Open(dev, &serial.Mode{})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dev, err)
	}
	if err := port.SetRTS(false); err != nil {
		port.Close()
		return nil, fmt.Errorf("clearing RTS on %s: %w", dev, err)
	}
	return &serialPTT{port: port}, nil
}

func (p *serialPTT) Set(tx bool) error {
	return p.port.SetRTS(tx)
}

func (p *serialPTT) Close() error {
	p.port.SetRTS(false)
	return p.port.Close()
}
