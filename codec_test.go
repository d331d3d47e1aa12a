package ninawire

import (
	"bytes"
	"testing"

	"github.com/coprocnet/ninawire/internal/wiretest"
)

func TestScalarRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		m := wiretest.NewMockTransporter(8)
		if err := U8(byte(b)).WriteTo(m); err != nil {
			t.Fatalf("write u8(%d): %v", b, err)
		}
		if got := m.Bytes(); len(got) != 1 || got[0] != byte(b) {
			t.Fatalf("u8(%d) wrote %x, want single byte", b, got)
		}
		m.Rewind()
		got, err := m.ReadByte()
		if err != nil || got != byte(b) {
			t.Fatalf("u8(%d) round-trip got %d, %v", b, got, err)
		}
	}
}

func TestScalar16And32RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		p    Param
		want []byte
	}{
		{"u16be", U16BE(0x1234), []byte{0x12, 0x34}},
		{"u16le", U16LE(0x1234), []byte{0x34, 0x12}},
		{"u32be", U32BE(0x01020304), []byte{0x01, 0x02, 0x03, 0x04}},
		{"u32le", U32LE(0x01020304), []byte{0x04, 0x03, 0x02, 0x01}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := wiretest.NewMockTransporter(8)
			if err := c.p.WriteTo(m); err != nil {
				t.Fatalf("write: %v", err)
			}
			if !bytes.Equal(m.Bytes(), c.want) {
				t.Fatalf("wrote %x, want %x", m.Bytes(), c.want)
			}
		})
	}

	t.Run("decode round-trip", func(t *testing.T) {
		u16be, err := DecodeU16BE([]byte{0x12, 0x34})
		if err != nil || u16be != 0x1234 {
			t.Fatalf("DecodeU16BE got %d, %v", u16be, err)
		}
		u16le, err := DecodeU16LE([]byte{0x34, 0x12})
		if err != nil || u16le != 0x1234 {
			t.Fatalf("DecodeU16LE got %d, %v", u16le, err)
		}
		u32be, err := DecodeU32BE([]byte{0x01, 0x02, 0x03, 0x04})
		if err != nil || u32be != 0x01020304 {
			t.Fatalf("DecodeU32BE got %d, %v", u32be, err)
		}
		u32le, err := DecodeU32LE([]byte{0x04, 0x03, 0x02, 0x01})
		if err != nil || u32le != 0x01020304 {
			t.Fatalf("DecodeU32LE got %d, %v", u32le, err)
		}
	})
}

func TestLengthDelimitedSlotShort(t *testing.T) {
	for _, n := range []int{0, 1, 17, 127} {
		v := bytes.Repeat([]byte{0xAB}, n)
		m := wiretest.NewMockTransporter(512)
		if err := WriteSlot(m, false, Raw(v)); err != nil {
			t.Fatalf("len=%d: write slot: %v", n, err)
		}
		got := m.Bytes()
		if len(got) != n+1 {
			t.Fatalf("len=%d: slot is %d bytes, want %d", n, len(got), n+1)
		}
		if int(got[0]) != n {
			t.Fatalf("len=%d: length byte is %d", n, got[0])
		}
		if !bytes.Equal(got[1:], v) {
			t.Fatalf("len=%d: payload mismatch", n)
		}

		m.Rewind()
		slot, err := ReadSlot(m, false)
		if err != nil {
			t.Fatalf("len=%d: read slot: %v", n, err)
		}
		if !bytes.Equal(slot, v) {
			t.Fatalf("len=%d: round-trip mismatch", n)
		}
	}
}

func TestNullTerminatedWrapper(t *testing.T) {
	v := []byte{1, 2, 3}
	m := wiretest.NewMockTransporter(32)
	if err := WriteSlot(m, false, NullTerminated(Raw(v))); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := m.Bytes()
	want := []byte{4, 1, 2, 3, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}

	m.Rewind()
	slot, err := ReadSlot(m, false)
	if err != nil {
		t.Fatalf("read slot: %v", err)
	}
	inner, err := DecodeNullTerminated(slot)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(inner, v) {
		t.Fatalf("got %x, want %x", inner, v)
	}
}

func TestFiveTupleEncoding(t *testing.T) {
	tuple := NewTuple(U8(1), U8(2), U8(3), U8(4), U8(5))
	m := wiretest.NewMockTransporter(32)
	if err := tuple.WriteTo(m, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := []byte{5, 1, 1, 1, 2, 1, 3, 1, 4, 1, 5}
	if got := m.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}

	m.Rewind()
	slots, err := ReadParamBlock(m, false)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(slots) != 5 {
		t.Fatalf("got %d slots, want 5", len(slots))
	}
	for i, slot := range slots {
		b, err := DecodeU8(slot)
		if err != nil || int(b) != i+1 {
			t.Fatalf("slot %d: got %d, %v", i, b, err)
		}
	}
}

func TestEmptyParamBlockIsZeroByte(t *testing.T) {
	m := wiretest.NewMockTransporter(4)
	if err := NewTuple().WriteTo(m, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := m.Bytes(); len(got) != 1 || got[0] != 0x00 {
		t.Fatalf("got %x, want [0x00]", got)
	}
}

func TestLongLengthPrefix(t *testing.T) {
	v := bytes.Repeat([]byte{0x11}, 300)
	m := wiretest.NewMockTransporter(1024)
	if err := WriteSlot(m, true, Raw(v)); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := m.Bytes()
	if got[0] != 0x01 || got[1] != 0x2C { // 300 = 0x012C
		t.Fatalf("length prefix = %x, want 01 2c", got[:2])
	}
	m.Rewind()
	slot, err := ReadSlot(m, true)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(slot, v) {
		t.Fatalf("round-trip mismatch")
	}
}
