// Package bus owns the coprocessor's four peripherals (SPI, chip-select,
// busy, reset) and exposes the transaction primitive the command engine
// builds its framed exchanges on top of.
package bus

import (
	"context"
	"fmt"
	"time"
)

// Pin is the minimal GPIO surface a bus needs: drive an output level, or
// read an input level and wait for it to change.
type Pin interface {
	Set(high bool) error
	Get() (bool, error)
	WaitFor(ctx context.Context, high bool) error
}

// SPI is the minimal full-duplex transfer surface a bus needs.
type SPI interface {
	Tx(write []byte) (read []byte, err error)
}

// Error wraps a failure from one of the bus's peripherals or handshake
// phases with the phase name, so callers can tell a CS-assert timeout
// from a raw SPI transfer failure.
type Error struct {
	phase string
	err   error
}

func (e *Error) Error() string { return fmt.Sprintf("bus: %s: %v", e.phase, e.err) }
func (e *Error) Unwrap() error { return e.err }

func wrapErr(phase string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{phase: phase, err: err}
}

// Config carries reset timing and polarity. Polarity is a build-time
// option on the coprocessor this was written for; it is a runtime field
// here since Go has no const-generic equivalent of a feature flag.
type Config struct {
	// ResetActiveHigh selects the asserted level driven onto the reset
	// line. Most boards assert reset low; some invert it.
	ResetActiveHigh bool
	ResetHold       time.Duration
	ResetSettle     time.Duration
}

// DefaultConfig matches the coprocessor's documented timing: 100ms
// asserted, 750ms settle, reset active-low.
func DefaultConfig() Config {
	return Config{
		ResetActiveHigh: false,
		ResetHold:       100 * time.Millisecond,
		ResetSettle:     750 * time.Millisecond,
	}
}

// Bus owns the four peripherals exclusively and serializes access to
// them through Transaction. It does not itself buffer bytes or know
// about frames — that is the transport layered on top.
type Bus struct {
	spi   SPI
	cs    Pin
	busy  Pin
	reset Pin
	cfg   Config
}

// New builds a Bus from its four peripherals. spi, cs, busy, and reset
// must each be non-nil and must not be shared with any other Bus.
func New(spi SPI, cs, busy, reset Pin, cfg Config) *Bus {
	return &Bus{spi: spi, cs: cs, busy: busy, reset: reset, cfg: cfg}
}

// Reset pulses the reset line for cfg.ResetHold, releases it, then waits
// cfg.ResetSettle for the coprocessor to come back up.
func (b *Bus) Reset(ctx context.Context) error {
	if err := b.reset.Set(b.cfg.ResetActiveHigh); err != nil {
		return wrapErr("reset-assert", err)
	}
	if err := sleep(ctx, b.cfg.ResetHold); err != nil {
		return err
	}
	if err := b.reset.Set(!b.cfg.ResetActiveHigh); err != nil {
		return wrapErr("reset-release", err)
	}
	return sleep(ctx, b.cfg.ResetSettle)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Transaction is one CS-asserted window: a byte-granular stream over a
// fixed-size chunk buffer, opened by Bus.Open and closed by Close.
type Transaction struct {
	bus    *Bus
	buf    []byte
	wpos   int
	rbuf   []byte
	roff   int
	rlen   int
	closed bool
}

// chunkSize is the fixed SPI burst size the write buffer accumulates to
// and the read buffer refills from.
const chunkSize = 64

// Open waits for busy-low, asserts CS, then waits for busy-high — the
// coprocessor's acknowledgement that it is ready to stream bytes. The
// returned Transaction must be closed exactly once; Close always
// releases CS, even when flush fails, so a failed exchange never
// leaves the bus wedged.
func (b *Bus) Open(ctx context.Context) (*Transaction, error) {
	if err := b.busy.WaitFor(ctx, false); err != nil {
		return nil, wrapErr("wait-busy-low", err)
	}
	if err := b.cs.Set(true); err != nil {
		return nil, wrapErr("cs-assert", err)
	}
	if err := b.busy.WaitFor(ctx, true); err != nil {
		b.cs.Set(false)
		return nil, wrapErr("wait-busy-high", err)
	}
	return &Transaction{bus: b, buf: make([]byte, 0, chunkSize)}, nil
}

// WriteByte appends one byte to the write buffer, flushing a full chunk
// to the bus first if necessary.
func (t *Transaction) WriteByte(b byte) error {
	if t.closed {
		return wrapErr("write-byte", errClosed)
	}
	if len(t.buf) == cap(t.buf) {
		if err := t.drain(); err != nil {
			return err
		}
	}
	t.buf = append(t.buf, b)
	return nil
}

// WriteFrom appends data a byte at a time, draining full chunks as it
// goes. Any number of calls between Open and Close become one or more
// padded SPI bursts.
func (t *Transaction) WriteFrom(data []byte) error {
	for _, b := range data {
		if err := t.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// drain transfers a full chunk buffer over SPI and resets the cursor.
// It does not pad — padding only happens on Flush, per the framing rule
// that only the final burst of a message needs the 0xFF tail.
func (t *Transaction) drain() error {
	if len(t.buf) == 0 {
		return nil
	}
	if _, err := t.bus.spi.Tx(t.buf); err != nil {
		return wrapErr("spi-tx", err)
	}
	t.buf = t.buf[:0]
	return nil
}

// Flush pads the tail of the write buffer with 0xFF up to a multiple of
// 4 bytes, transfers it, and resets the cursor. Flushing an empty
// buffer is a no-op.
func (t *Transaction) Flush() error {
	if len(t.buf) == 0 {
		return nil
	}
	for len(t.buf)%4 != 0 {
		t.buf = append(t.buf, 0xFF)
	}
	return t.drain()
}

// refillChunk is how large a read-side refill asks the bus for.
const refillChunk = chunkSize

// ReadByte returns the next byte from the read prefetch buffer,
// refilling from the bus when it is exhausted.
func (t *Transaction) ReadByte() (byte, error) {
	if t.closed {
		return 0, wrapErr("read-byte", errClosed)
	}
	if t.roff == t.rlen {
		if err := t.refill(); err != nil {
			return 0, err
		}
	}
	b := t.rbuf[t.roff]
	t.roff++
	return b, nil
}

// ReadInto fills buf byte by byte from the read prefetch buffer,
// refilling as needed.
func (t *Transaction) ReadInto(buf []byte) error {
	for i := range buf {
		b, err := t.ReadByte()
		if err != nil {
			return err
		}
		buf[i] = b
	}
	return nil
}

func (t *Transaction) refill() error {
	write := make([]byte, refillChunk)
	for i := range write {
		write[i] = 0xFF
	}
	read, err := t.bus.spi.Tx(write)
	if err != nil {
		return wrapErr("spi-rx", err)
	}
	t.rbuf = read
	t.roff = 0
	t.rlen = len(read)
	return nil
}

// Close flushes any pending write bytes, then releases CS regardless of
// whether the flush succeeded. This is the Go translation of a
// scoped-resource guarantee: call Close via defer immediately after a
// successful Open so CS is released on every exit path, including a
// panic unwind.
func (t *Transaction) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	flushErr := t.Flush()
	csErr := t.bus.cs.Set(false)
	if flushErr != nil {
		return flushErr
	}
	if csErr != nil {
		return wrapErr("cs-release", csErr)
	}
	return nil
}

var errClosed = fmt.Errorf("bus: transaction already closed")
