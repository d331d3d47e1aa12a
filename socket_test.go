package ninawire

import (
	"context"
	"testing"
)

// sendDataReply builds a minimal SendDataTcp reply: count=1, one
// long-prefixed u16le "bytes sent" slot.
func sendDataReply(n uint16) []byte {
	return []byte{0xE0, opSendDataTCP | replyFlag, 0x01, 0x00, 0x02, byte(n), byte(n >> 8), 0xEE}
}

func statusReply(opcode byte) []byte {
	return []byte{0xE0, opcode | replyFlag, 0x01, 0x01, 0x01, 0xEE}
}

func TestSocketWriteLargerThanBufferFlushesOnceDuringWriteOnceOnFlush(t *testing.T) {
	replies := [][]byte{
		sendDataReply(socketWriteBufferCapacity), // implicit flush during Write
		statusReply(opDataSentTCP),
		sendDataReply(socketWriteBufferCapacity), // explicit Flush
		statusReply(opDataSentTCP),
	}
	engine, spi := newTestEngine(replies)
	h := NewHandler(engine)
	sock := &Socket{h: h, writeBuf: make([]byte, 0, socketWriteBufferCapacity)}

	payload := make([]byte, socketWriteBufferCapacity*2)
	n, err := sock.Write(payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("wrote %d, want %d", n, len(payload))
	}
	if len(sock.writeBuf) != socketWriteBufferCapacity {
		t.Fatalf("after Write, buffered %d bytes, want %d pending", len(sock.writeBuf), socketWriteBufferCapacity)
	}

	if err := sock.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(sock.writeBuf) != 0 {
		t.Fatalf("after explicit Flush, buffer not drained")
	}
	if len(spi.writes) == 0 {
		t.Fatal("no SPI transfers recorded")
	}
}

func TestSocketWriteWithinCapacityNeedsExplicitFlush(t *testing.T) {
	engine, _ := newTestEngine(nil)
	h := NewHandler(engine)
	sock := &Socket{h: h, writeBuf: make([]byte, 0, socketWriteBufferCapacity)}

	n, err := sock.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Fatalf("wrote %d, want 5", n)
	}
	if len(sock.writeBuf) != 5 {
		t.Fatalf("buffered %d bytes, want 5 (no auto-flush below capacity)", len(sock.writeBuf))
	}
}

func TestSocketReadRefillsFromDatabuf(t *testing.T) {
	dataReply := []byte{0xE0, opGetDatabufTCP | replyFlag, 0x01, 0x00, 0x03, 'h', 'i', '!', 0xEE}
	engine, _ := newTestEngine([][]byte{dataReply})
	h := NewHandler(engine)
	sock := &Socket{h: h, writeBuf: make([]byte, 0, socketWriteBufferCapacity)}

	buf := make([]byte, 3)
	n, err := sock.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "hi!" {
		t.Fatalf("got %q, want hi!", buf[:n])
	}
}
