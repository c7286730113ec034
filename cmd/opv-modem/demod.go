package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/jancona/opv/opv"
)

// ChildDemod runs an opv-demod process, feeding it IQ samples on
// stdin and collecting decoded frames from its stdout.
type ChildDemod struct {
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	frames     chan opv.Frame
	readerDone chan struct{}
}

// StartChildDemod launches the demodulator binary in streaming raw
// mode and starts reading frames from it.
func StartChildDemod(path string) (*ChildDemod, error) {
	cmd := exec.Command(path, "-s", "-r", "-q")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", path, err)
	}
	log.Printf("[DEBUG] Started demodulator %s, pid %d", path, cmd.Process.Pid)

	c := &ChildDemod{
		cmd:        cmd,
		stdin:      stdin,
		frames:     make(chan opv.Frame),
		readerDone: make(chan struct{}),
	}
	go c.readFrames(stdout)
	return c, nil
}

func (c *ChildDemod) readFrames(r io.Reader) {
	defer close(c.frames)
	defer close(c.readerDone)
	for {
		var frame opv.Frame
		_, err := io.ReadFull(r, frame[:])
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Printf("[ERROR] Reading from demodulator: %v", err)
			return
		}
		c.frames <- frame
	}
}

// WriteIQ sends modulated samples to the demodulator's stdin.
func (c *ChildDemod) WriteIQ(samples []opv.IQSample) error {
	return binary.Write(c.stdin, binary.LittleEndian, samples)
}

func (c *ChildDemod) Stdin() io.Writer { return c.stdin }

func (c *ChildDemod) CloseStdin() {
	c.stdin.Close()
}

// Frames returns the channel of decoded frames. It is closed when the
// child's stdout reaches EOF.
func (c *ChildDemod) Frames() <-chan opv.Frame { return c.frames }

// Stop closes the child's stdin and gives it a short grace period to
// flush remaining frames before killing it.
func (c *ChildDemod) Stop() {
	c.stdin.Close()
	select {
	case <-c.readerDone:
	case <-time.After(100 * time.Millisecond):
		log.Print("[DEBUG] Demodulator did not exit, killing")
		c.cmd.Process.Kill()
	}
	c.cmd.Wait()
}
