package ninawire

import "fmt"

// Error wraps a failure with a short message and the underlying cause,
// the same shape used throughout this driver for every error that has
// a wire-level or bus-level cause.
type Error struct {
	msg string
	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("ninawire: %s: %v", e.msg, e.err)
	}
	return "ninawire: " + e.msg
}

func (e *Error) Unwrap() error { return e.err }

func wrapErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{msg: msg, err: err}
}

// Protocol errors: the reply frame did not have the shape the
// engine expected.

// ErrorResponse is returned when a reply frame's start byte is 0xEF,
// meaning the coprocessor rejected the command outright.
var ErrorResponse = &Error{msg: "device returned error response (0xEF)"}

// UnexpectedReplyByteError reports a reply byte that did not match what
// the frame shape requires, tagged with its position: 0 = start byte,
// 1 = opcode echo, 2 = end byte.
type UnexpectedReplyByteError struct {
	Got      byte
	Position int
}

func (e *UnexpectedReplyByteError) Error() string {
	return fmt.Sprintf("ninawire: unexpected reply byte 0x%02x at position %d", e.Got, e.Position)
}

// Decoding errors: an enum byte fell outside its valid set.

type invalidEnumError struct {
	kind string
	got  byte
}

func (e *invalidEnumError) Error() string {
	return fmt.Sprintf("ninawire: invalid %s byte 0x%02x", e.kind, e.got)
}

// Semantic errors: one per opcode that returns a status byte, plus a
// handful of free-standing errors for conditions caught before any
// opcode is even sent.

var (
	ErrNotIPv4     = &Error{msg: "address is not IPv4"}
	ErrDataTooLong = &Error{msg: "data exceeds the protocol's length limit"}

	ErrSetNetwork        = &Error{msg: "SetNet failed"}
	ErrSetPassphrase     = &Error{msg: "SetPassphrase failed"}
	ErrSetKey            = &Error{msg: "SetKey failed"}
	ErrSetIPConfig       = &Error{msg: "SetIpConfig failed"}
	ErrSetDNSConfig      = &Error{msg: "SetDnsConfig failed"}
	ErrSetHostname       = &Error{msg: "SetHostname failed"}
	ErrDisconnect        = &Error{msg: "Disconnect failed"}
	ErrReqHostByName     = &Error{msg: "ReqHostByName failed"}
	ErrStartScanNetworks = &Error{msg: "StartScanNetworks failed"}
	ErrStartClientTCP    = &Error{msg: "StartClientTcp failed"}
	ErrStopClient        = &Error{msg: "StopClientTcp failed"}
	ErrCheckDataSent     = &Error{msg: "DataSentTcp reported failure"}
	ErrPinMode           = &Error{msg: "SetPinMode failed"}
	ErrDigitalWrite      = &Error{msg: "SetDigitalWrite failed"}
	ErrAnalogWrite       = &Error{msg: "SetAnalogWrite failed"}

	// ErrAccessPointNotWired is returned by ConfigureAccessPoint: the
	// wire opcodes exist in the catalog but the convenience layer does
	// not drive them.
	ErrAccessPointNotWired = &Error{msg: "access-point mode is not wired"}
)

// ConnectionFailureError reports that a connection-state poll timed out
// without reaching the wanted state, carrying the last state observed.
type ConnectionFailureError struct {
	LastState ConnectionState
}

func (e *ConnectionFailureError) Error() string {
	return fmt.Sprintf("ninawire: connection attempt failed, last state %s", e.LastState)
}

// statusError maps a status byte's opcode-specific failure onto its
// tagged sentinel; the status-byte convention is "1 means success,
// anything else is this opcode's failure".
func statusError(sentinel *Error, status byte) error {
	if status == 1 {
		return nil
	}
	return sentinel
}
