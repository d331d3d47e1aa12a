package ninawire

import "fmt"

// Writer is the byte-granular write side of a bus transaction.
// bus.Transaction satisfies this structurally.
type Writer interface {
	WriteByte(b byte) error
	WriteFrom(data []byte) error
}

// Reader is the byte-granular read side of a bus transaction.
// bus.Transaction satisfies this structurally.
type Reader interface {
	ReadByte() (byte, error)
	ReadInto(buf []byte) error
}

// Param is anything the codec can serialize into a length-delimited
// slot: scalars, raw byte runs, and the null-terminated wrapper all
// implement it.
type Param interface {
	ByteLength() int
	WriteTo(w Writer) error
}

// --- scalars ---

type u8Param byte

func U8(v byte) Param             { return u8Param(v) }
func (p u8Param) ByteLength() int { return 1 }
func (p u8Param) WriteTo(w Writer) error {
	return w.WriteByte(byte(p))
}

type scalarParam struct {
	v     uint32
	width int
	be    bool
}

// U16BE, U16LE, U32BE, U32LE carry a compile-time-fixed width and
// endianness, matching the source's Scalar<Order, Arity> type.
func U16BE(v uint16) Param { return scalarParam{v: uint32(v), width: 2, be: true} }
func U16LE(v uint16) Param { return scalarParam{v: uint32(v), width: 2, be: false} }
func U32BE(v uint32) Param { return scalarParam{v: v, width: 4, be: true} }
func U32LE(v uint32) Param { return scalarParam{v: v, width: 4, be: false} }

func (p scalarParam) ByteLength() int { return p.width }

func (p scalarParam) WriteTo(w Writer) error {
	buf := make([]byte, p.width)
	for i := 0; i < p.width; i++ {
		shift := uint(i) * 8
		if p.be {
			shift = uint(p.width-1-i) * 8
		}
		buf[i] = byte(p.v >> shift)
	}
	return w.WriteFrom(buf)
}

// --- raw byte runs ---

type rawParam []byte

// Raw emits b verbatim with no length prefix of its own; the enclosing
// slot (WriteSlot) supplies the prefix.
func Raw(b []byte) Param               { return rawParam(b) }
func (p rawParam) ByteLength() int     { return len(p) }
func (p rawParam) WriteTo(w Writer) error { return w.WriteFrom(p) }

// --- null-terminated wrapper ---

type nullTerminatedParam struct{ inner Param }

// NullTerminated wraps inner so its serialized length is inner's length
// plus one, with a trailing 0x00.
func NullTerminated(inner Param) Param { return nullTerminatedParam{inner: inner} }

func (p nullTerminatedParam) ByteLength() int { return p.inner.ByteLength() + 1 }

func (p nullTerminatedParam) WriteTo(w Writer) error {
	if err := p.inner.WriteTo(w); err != nil {
		return err
	}
	return w.WriteByte(0x00)
}

// NullTerminatedBytes is the common case of NullTerminated(Raw(b)),
// used for hostnames and SSIDs.
func NullTerminatedBytes(b []byte) Param { return NullTerminated(Raw(b)) }

// --- length-delimited slots ---

// WriteSlot writes a slot's length prefix (1 byte short, 2 bytes
// big-endian long) followed by p's payload.
func WriteSlot(w Writer, long bool, p Param) error {
	n := p.ByteLength()
	if long {
		if n > 0xFFFF {
			return ErrDataTooLong
		}
		if err := w.WriteByte(byte(n >> 8)); err != nil {
			return err
		}
		if err := w.WriteByte(byte(n)); err != nil {
			return err
		}
	} else {
		if n > 0xFF {
			return ErrDataTooLong
		}
		if err := w.WriteByte(byte(n)); err != nil {
			return err
		}
	}
	return p.WriteTo(w)
}

// ReadSlot reads a slot's length prefix then that many raw payload
// bytes, returning them undecoded; callers apply the Decode* helpers
// below to interpret the payload as a particular parameter kind.
func ReadSlot(r Reader, long bool) ([]byte, error) {
	var n int
	if long {
		hi, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		lo, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		n = int(hi)<<8 | int(lo)
	} else {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		n = int(b)
	}
	buf := make([]byte, n)
	if err := r.ReadInto(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// --- heterogeneous tuples and homogeneous lists ---
//
// Both serialize identically on the wire: a count byte followed by
// that many length-delimited slots. A fixed-arity tuple and a
// variable-length list are the same ParamBlock; the difference is only
// in whether the caller checks the count against a known arity.

// ParamBlock is a parameter block: a count byte followed by N
// length-delimited slots. This is design note 9(c)'s builder — append
// one Param at a time and the count byte is derived from the slice
// length at write time, rather than generating one hand-written type
// per arity.
type ParamBlock []Param

// NewTuple builds a ParamBlock from 0 to 5 parameters, matching the
// source's macro-generated tuple arities.
func NewTuple(params ...Param) ParamBlock { return ParamBlock(params) }

// WriteTo writes the count byte then each parameter as a long- or
// short-prefixed slot.
func (pb ParamBlock) WriteTo(w Writer, long bool) error {
	if len(pb) > 0xFF {
		return fmt.Errorf("ninawire: parameter block has %d entries, count byte cannot hold it", len(pb))
	}
	if err := w.WriteByte(byte(len(pb))); err != nil {
		return err
	}
	for _, p := range pb {
		if err := WriteSlot(w, long, p); err != nil {
			return err
		}
	}
	return nil
}

// ReadParamBlock reads the count byte and that many raw slots, without
// interpreting their payloads. Callers that know the expected arity
// should check len(result) themselves; the empty block is the single
// byte 0x00, so this returns a zero-length, non-nil slice for it.
func ReadParamBlock(r Reader, long bool) ([][]byte, error) {
	count, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	slots := make([][]byte, 0, count)
	for i := 0; i < int(count); i++ {
		slot, err := ReadSlot(r, long)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// --- decoding raw slot payloads ---

func DecodeU8(b []byte) (byte, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("ninawire: u8 slot has length %d, want 1", len(b))
	}
	return b[0], nil
}

func decodeScalar(b []byte, width int, be bool) (uint32, error) {
	if len(b) != width {
		return 0, fmt.Errorf("ninawire: scalar slot has length %d, want %d", len(b), width)
	}
	var v uint32
	for i := 0; i < width; i++ {
		shift := uint(i) * 8
		if be {
			shift = uint(width-1-i) * 8
		}
		v |= uint32(b[i]) << shift
	}
	return v, nil
}

func DecodeU16BE(b []byte) (uint16, error) { v, err := decodeScalar(b, 2, true); return uint16(v), err }
func DecodeU16LE(b []byte) (uint16, error) { v, err := decodeScalar(b, 2, false); return uint16(v), err }
func DecodeU32BE(b []byte) (uint32, error) { return decodeScalar(b, 4, true) }
func DecodeU32LE(b []byte) (uint32, error) { return decodeScalar(b, 4, false) }

// DecodeNullTerminated strips and validates the trailing 0x00 byte a
// NullTerminated slot carries.
func DecodeNullTerminated(b []byte) ([]byte, error) {
	if len(b) == 0 || b[len(b)-1] != 0x00 {
		return nil, fmt.Errorf("ninawire: null-terminated slot missing trailing 0x00")
	}
	return b[:len(b)-1], nil
}
