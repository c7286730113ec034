//go:build !linux

package main

import "errors"

func newGPIOPTT(spec string) (PTT, error) {
	return nil, errors.New("GPIO PTT is only supported on Linux")
}
