package ninawire

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coprocnet/ninawire/bus"
)

const (
	startByte = 0xE0
	endByte   = 0xEE
	errByte   = 0xEF
	replyFlag = 0x80
)

// Recorder observes command exchanges for metrics. ninawire/metrics
// implements it; callers that don't care about metrics leave it nil.
type Recorder interface {
	ObserveCommand(opcode byte, d time.Duration, err error)
}

// CommandEngine performs the two-transaction framed exchange
// over a bus.Bus, serializing every exchange behind a mutex so
// concurrent callers never interleave mid-command.
type CommandEngine struct {
	bus *bus.Bus
	mu  sync.Mutex
	log *logrus.Logger
	rec Recorder
}

// Option configures a CommandEngine at construction time.
type Option func(*CommandEngine)

// WithLogger attaches a logrus logger for Debug-level frame traces and
// Warn-level protocol-error traces. A nil logger (the default) disables
// logging entirely.
func WithLogger(log *logrus.Logger) Option {
	return func(e *CommandEngine) { e.log = log }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(e *CommandEngine) { e.rec = rec }
}

// NewCommandEngine builds a CommandEngine over b.
func NewCommandEngine(b *bus.Bus, opts ...Option) *CommandEngine {
	e := &CommandEngine{bus: b}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LongEncoding reports whether opcode uses 2-byte big-endian length
// prefixes; opcodes ≥0x40 do.
func LongEncoding(opcode byte) bool { return opcode >= 0x40 }

// Exec runs HandleCmd with long-encoding selected uniformly from the
// opcode's value, the common case every opcode below 0x40 and every
// opcode at or above it shares.
func (e *CommandEngine) Exec(ctx context.Context, opcode byte, send ParamBlock) ([][]byte, error) {
	long := LongEncoding(opcode)
	return e.HandleCmd(ctx, opcode, send, long, long)
}

// HandleCmd performs one full command exchange: a write transaction
// carrying the framed request, then a read transaction carrying the
// framed reply, validating every fixed byte.
func (e *CommandEngine) HandleCmd(ctx context.Context, opcode byte, send ParamBlock, longSend, longRecv bool) (recv [][]byte, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	defer func() {
		if e.rec != nil {
			e.rec.ObserveCommand(opcode, time.Since(start), err)
		}
	}()

	if e.log != nil {
		e.log.WithFields(logrus.Fields{"opcode": opcode, "long_send": longSend, "long_recv": longRecv}).Debug("ninawire: command exchange")
	}

	if err := e.writeCmd(ctx, opcode, send, longSend); err != nil {
		return nil, wrapErr("write-transaction", err)
	}
	recv, err = e.readReply(ctx, opcode, longRecv)
	if err != nil && e.log != nil {
		e.log.WithFields(logrus.Fields{"opcode": opcode, "error": err}).Warn("ninawire: command exchange failed")
	}
	return recv, err
}

func (e *CommandEngine) writeCmd(ctx context.Context, opcode byte, send ParamBlock, long bool) (err error) {
	tx, err := e.bus.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := tx.Close(); err == nil {
			err = cerr
		}
	}()

	if err := tx.WriteByte(startByte); err != nil {
		return err
	}
	if err := tx.WriteByte(opcode &^ replyFlag); err != nil {
		return err
	}
	if err := send.WriteTo(tx, long); err != nil {
		return err
	}
	return tx.WriteByte(endByte)
}

func (e *CommandEngine) readReply(ctx context.Context, opcode byte, long bool) (recv [][]byte, err error) {
	tx, err := e.bus.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := tx.Close(); err == nil {
			err = cerr
		}
	}()

	first, err := tx.ReadByte()
	if err != nil {
		return nil, err
	}
	switch first {
	case startByte:
		// continue below
	case errByte:
		return nil, ErrorResponse
	default:
		return nil, &UnexpectedReplyByteError{Got: first, Position: 0}
	}

	echoed, err := tx.ReadByte()
	if err != nil {
		return nil, err
	}
	if echoed != (opcode | replyFlag) {
		return nil, &UnexpectedReplyByteError{Got: echoed, Position: 1}
	}

	params, err := ReadParamBlock(tx, long)
	if err != nil {
		return nil, err
	}

	end, err := tx.ReadByte()
	if err != nil {
		return nil, err
	}
	if end != endByte {
		return nil, &UnexpectedReplyByteError{Got: end, Position: 2}
	}

	return params, nil
}

// Reset delegates to the underlying bus's reset sequence.
func (e *CommandEngine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bus.Reset(ctx)
}
