//go:build linux

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// gpioPTT keys the transmitter with a GPIO line, given as
// "chip:offset", e.g. "gpiochip0:17".
type gpioPTT struct {
	line *gpiocdev.Line
}

func newGPIOPTT(spec string) (*gpioPTT, error) {
	chip, offsetStr, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("GPIO PTT %q: want chip:offset", spec)
	}
	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		return nil, fmt.Errorf("GPIO PTT %q: %w", spec, err)
	}
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("requesting GPIO %s: %w", spec, err)
	}
	return &gpioPTT{line: line}, nil
}

func (p *gpioPTT) Set(tx bool) error {
	v := 0
	if tx {
		v = 1
	}
	return p.line.SetValue(v)
}

func (p *gpioPTT) Close() error {
	p.line.SetValue(0)
	return p.line.Close()
}
