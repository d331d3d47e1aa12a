// Package gpioline provides sysfs-backed GPIO lines for the chip-select,
// busy, and reset signals a bus.Bus needs alongside the SPI data lines.
package gpioline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/daedaluz/fdev/poll"
)

// ErrClosed is returned by any operation on a line after Close.
var ErrClosed = fmt.Errorf("gpio line already closed")

// Edge is the level a caller waits for on an input line.
type Edge int

const (
	Low Edge = iota
	High
)

// Line is a single exported sysfs GPIO line (/sys/class/gpio/gpioN).
// It mirrors the open/closed/Fd() shape of a host serial port: a line
// is opened once, used for the lifetime of the bus, and closed exactly
// once.
type Line struct {
	number int
	value  *os.File
	closed atomic.Bool
}

// Export exports gpio number `pin` and opens its value file for
// read/write. direction must be "in" or "out".
func Export(pin int, direction string) (*Line, error) {
	base := "/sys/class/gpio/gpio" + strconv.Itoa(pin)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		exportFile, err := os.OpenFile("/sys/class/gpio/export", os.O_WRONLY, 0)
		if err != nil {
			return nil, err
		}
		_, werr := exportFile.WriteString(strconv.Itoa(pin))
		exportFile.Close()
		if werr != nil {
			return nil, werr
		}
	}

	dirFile, err := os.OpenFile(base+"/direction", os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	_, err = dirFile.WriteString(direction)
	dirFile.Close()
	if err != nil {
		return nil, err
	}

	if direction == "in" {
		edgeFile, err := os.OpenFile(base+"/edge", os.O_WRONLY, 0)
		if err == nil {
			_, _ = edgeFile.WriteString("both")
			edgeFile.Close()
		}
	}

	value, err := os.OpenFile(base+"/value", os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Line{number: pin, value: value}, nil
}

// Set drives an output line high or low.
func (l *Line) Set(high bool) error {
	if l.closed.Load() {
		return ErrClosed
	}
	if _, err := l.value.WriteAt([]byte(boolByte(high)), 0); err != nil {
		return err
	}
	return nil
}

func boolByte(high bool) string {
	if high {
		return "1"
	}
	return "0"
}

// Get reads the current level of the line.
func (l *Line) Get() (bool, error) {
	if l.closed.Load() {
		return false, ErrClosed
	}
	buf := make([]byte, 1)
	if _, err := l.value.ReadAt(buf, 0); err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return buf[0] == '1', nil
}

// WaitFor blocks until the line reads the requested level, or timeout
// elapses. The sysfs value file becomes poll-ready (POLLPRI) whenever
// the kernel reports an edge on the line, so each iteration re-checks
// the level and then sleeps on the fd until the next edge or timeout.
func (l *Line) WaitFor(want Edge, timeout time.Duration) error {
	if l.closed.Load() {
		return ErrClosed
	}
	for {
		level, err := l.Get()
		if err != nil {
			return err
		}
		if (want == High) == level {
			return nil
		}
		if err := poll.WaitInput(int(l.value.Fd()), timeout); err != nil {
			return err
		}
	}
}

// Fd returns the underlying file descriptor, or -1 if closed.
func (l *Line) Fd() int {
	if l.closed.Load() {
		return -1
	}
	return int(l.value.Fd())
}

// Close releases the value file. Safe to call once; a second call
// reports ErrClosed rather than double-closing the descriptor.
func (l *Line) Close() error {
	if !l.closed.Swap(true) {
		return l.value.Close()
	}
	return ErrClosed
}
