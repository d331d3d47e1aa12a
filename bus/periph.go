package bus

import (
	"context"
	"time"

	periphconn "periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	periphspi "periph.io/x/conn/v3/spi"
	periphhost "periph.io/x/host/v3"
)

// periphPin adapts a periph.io gpio.PinIO to the bus.Pin interface,
// using edge-triggered WaitForEdge when the pin supports it and falling
// back to polling otherwise.
type periphPin struct {
	pin gpio.PinIO
}

func (p *periphPin) Set(high bool) error {
	level := gpio.Low
	if high {
		level = gpio.High
	}
	return p.pin.Out(level)
}

func (p *periphPin) Get() (bool, error) {
	return p.pin.Read() == gpio.High, nil
}

func (p *periphPin) WaitFor(ctx context.Context, high bool) error {
	want := gpio.FallingEdge
	if high {
		want = gpio.RisingEdge
	}
	if err := p.pin.In(gpio.PullNoChange, want); err != nil {
		return pollFor(ctx, p, high)
	}
	for p.pin.Read() != levelOf(high) {
		timeout := pollInterval
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining < timeout {
				timeout = remaining
			}
		}
		if !p.pin.WaitForEdge(timeout) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}
	return nil
}

func levelOf(high bool) gpio.Level {
	if high {
		return gpio.High
	}
	return gpio.Low
}

const pollInterval = 5 * time.Millisecond

func pollFor(ctx context.Context, p *periphPin, high bool) error {
	want := levelOf(high)
	for p.pin.Read() != want {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return nil
}

// periphSPI adapts a periph.io spi.Conn to the bus.SPI interface.
type periphSPI struct {
	conn periphconn.Conn
}

func (s *periphSPI) Tx(write []byte) ([]byte, error) {
	read := make([]byte, len(write))
	if err := s.conn.Tx(write, read); err != nil {
		return nil, err
	}
	return read, nil
}

// InitPeriph registers every host driver periph.io/x/host/v3 knows
// about (SPI, GPIO, and platform-specific backends). Call it once
// before opening an spi.Port or gpio.PinIO to pass to NewPeriph.
func InitPeriph() error {
	_, err := periphhost.Init()
	return err
}

// NewPeriph builds a Bus on top of a portable periph.io SPI connection
// and three GPIO pins, so any host periph.io/x/host/v3 supports (not
// just Linux spidev) can back this driver.
func NewPeriph(conn periphspi.Conn, cs, busy, reset gpio.PinIO, cfg Config) *Bus {
	return New(&periphSPI{conn: conn}, &periphPin{pin: cs}, &periphPin{pin: busy}, &periphPin{pin: reset}, cfg)
}
