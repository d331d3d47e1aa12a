package bus

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakePin is an in-memory Pin: Set records the level, WaitFor returns
// immediately once the level matches. A pin with ackOf set reads that
// pin's level instead, modelling a busy line the coprocessor holds high
// exactly while CS is asserted.
type fakePin struct {
	level bool
	ackOf *fakePin
}

func (p *fakePin) Set(high bool) error { p.level = high; return nil }
func (p *fakePin) Get() (bool, error)  { return p.level, nil }
func (p *fakePin) WaitFor(ctx context.Context, high bool) error {
	level := p.level
	if p.ackOf != nil {
		level = p.ackOf.level
	}
	if level == high {
		return nil
	}
	return errors.New("fakePin: level never reached")
}

// fakeSPI records every Tx call and returns a caller-supplied reply
// queue, one slice per call, or err when it is set.
type fakeSPI struct {
	writes  [][]byte
	replies [][]byte
	err     error
}

func (s *fakeSPI) Tx(write []byte) ([]byte, error) {
	s.writes = append(s.writes, append([]byte(nil), write...))
	if s.err != nil {
		return nil, s.err
	}
	if len(s.replies) == 0 {
		return make([]byte, len(write)), nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func newTestBus() (*Bus, *fakeSPI, *fakePin, *fakePin) {
	spi := &fakeSPI{}
	cs := &fakePin{}
	busy := &fakePin{ackOf: cs} // idle: busy low until CS is asserted
	reset := &fakePin{}
	return New(spi, cs, busy, reset, DefaultConfig()), spi, cs, busy
}

func TestOpenAssertsCSAfterBusyHandshake(t *testing.T) {
	b, _, cs, _ := newTestBus()

	tx, err := b.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !cs.level {
		t.Fatal("CS not asserted after Open")
	}
	if err := tx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if cs.level {
		t.Fatal("CS still asserted after Close")
	}
}

func TestCloseReleasesCSEvenOnFlushError(t *testing.T) {
	b, spi, cs, _ := newTestBus()
	spi.err = errors.New("spi transfer failed")

	tx, err := b.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := tx.WriteByte(0xE0); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	if err := tx.Close(); err == nil {
		t.Fatal("Close: got nil, want the flush error")
	}
	if cs.level {
		t.Fatal("CS still asserted after Close")
	}
	if len(spi.writes) != 1 {
		t.Fatalf("got %d SPI transfers, want 1", len(spi.writes))
	}
	if len(spi.writes[0])%4 != 0 {
		t.Fatalf("flushed burst length %d is not a multiple of 4", len(spi.writes[0]))
	}
}

func TestDoubleCloseIsSafe(t *testing.T) {
	b, _, _, _ := newTestBus()
	tx, err := b.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := tx.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := tx.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestReadRefillsFromBus(t *testing.T) {
	b, spi, _, _ := newTestBus()
	spi.replies = [][]byte{{0xAA, 0xBB, 0xCC}}

	tx, err := b.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := tx.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if got != 0xAA {
		t.Fatalf("got %x, want aa", got)
	}
	if err := tx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestResetTiming(t *testing.T) {
	b, _, _, _ := newTestBus()
	b.cfg.ResetHold = time.Millisecond
	b.cfg.ResetSettle = time.Millisecond
	if err := b.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
}
