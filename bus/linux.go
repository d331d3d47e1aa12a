package bus

import (
	"context"
	"time"

	"github.com/coprocnet/ninawire/gpioline"
	"github.com/coprocnet/ninawire/linuxspi"
)

// gpioPin adapts a gpioline.Line (sysfs GPIO) to the bus.Pin interface.
type gpioPin struct {
	line *gpioline.Line
}

func (p *gpioPin) Set(high bool) error { return p.line.Set(high) }
func (p *gpioPin) Get() (bool, error)  { return p.line.Get() }

func (p *gpioPin) WaitFor(ctx context.Context, high bool) error {
	want := gpioline.Low
	if high {
		want = gpioline.High
	}
	timeout := busyWaitTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return p.line.WaitFor(want, timeout)
}

// busyWaitTimeout bounds a single busy-line wait. There is no protocol-
// level command deadline: this only prevents a wedged transport
// from hanging forever when the caller's context carries no deadline.
const busyWaitTimeout = 2 * time.Second

// spiDevice adapts a linuxspi.Device to the bus.SPI interface.
type spiDevice struct {
	dev *linuxspi.Device
}

func (s *spiDevice) Tx(write []byte) ([]byte, error) { return s.dev.Tx(write) }

// LinuxConfig describes the spidev node, GPIO line numbers, and reset
// timing for a coprocessor wired directly to a Linux host's spidev and
// sysfs GPIO interfaces.
type LinuxConfig struct {
	SPIDevPath string
	SPISpeedHz uint32
	SPIBits    uint8

	ChipSelectPin int
	BusyPin       int
	ResetPin      int

	Reset Config
}

// OpenLinux opens the spidev node and exports the three GPIO lines,
// returning a Bus ready for Reset and Open. Closing the returned
// io.Closer releases the spidev fd and all three GPIO lines.
func OpenLinux(cfg LinuxConfig) (*Bus, *LinuxHandles, error) {
	dev, err := linuxspi.Open(cfg.SPIDevPath, &linuxspi.Config{
		Mode:  linuxspi.Mode0,
		Bits:  cfg.SPIBits,
		Speed: cfg.SPISpeedHz,
	})
	if err != nil {
		return nil, nil, err
	}

	cs, err := gpioline.Export(cfg.ChipSelectPin, "out")
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	busyLine, err := gpioline.Export(cfg.BusyPin, "in")
	if err != nil {
		dev.Close()
		cs.Close()
		return nil, nil, err
	}
	reset, err := gpioline.Export(cfg.ResetPin, "out")
	if err != nil {
		dev.Close()
		cs.Close()
		busyLine.Close()
		return nil, nil, err
	}

	resetCfg := cfg.Reset
	if resetCfg == (Config{}) {
		resetCfg = DefaultConfig()
	}

	b := New(&spiDevice{dev: dev}, &gpioPin{line: cs}, &gpioPin{line: busyLine}, &gpioPin{line: reset}, resetCfg)
	return b, &LinuxHandles{spi: dev, cs: cs, busy: busyLine, reset: reset}, nil
}

// LinuxHandles groups the concrete peripherals OpenLinux created, so
// callers can release them in one Close call.
type LinuxHandles struct {
	spi   *linuxspi.Device
	cs    *gpioline.Line
	busy  *gpioline.Line
	reset *gpioline.Line
}

// Close releases the spidev fd and all three GPIO lines, returning the
// first error encountered (if any) while still attempting every close.
func (h *LinuxHandles) Close() error {
	var first error
	for _, c := range []interface{ Close() error }{h.spi, h.cs, h.busy, h.reset} {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
