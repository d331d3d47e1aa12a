package ninawire

import (
	"bytes"
	"context"
	"testing"

	"github.com/coprocnet/ninawire/bus"
)

// fakePin and fakeSPI give the engine a bus.Bus without real hardware;
// they are minimal stand-ins for bus.Pin/bus.SPI scoped to this file.
type fakePin struct{ level bool }

func (p *fakePin) Set(high bool) error                          { p.level = high; return nil }
func (p *fakePin) Get() (bool, error)                            { return p.level, nil }
func (p *fakePin) WaitFor(ctx context.Context, high bool) error  { return nil }

type fakeSPI struct {
	writes  [][]byte
	replies [][]byte
}

// Tx records every burst. A burst that is pure 0xFF filler is a
// read-side refill request (bus.Transaction.refill always transmits
// filler while it reads); anything else is a write-side flush, which
// this fake acknowledges without consuming a reply.
func (s *fakeSPI) Tx(write []byte) ([]byte, error) {
	s.writes = append(s.writes, append([]byte(nil), write...))
	if !allFF(write) || len(s.replies) == 0 {
		return make([]byte, len(write)), nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func allFF(b []byte) bool {
	for _, c := range b {
		if c != 0xFF {
			return false
		}
	}
	return len(b) > 0
}

func newTestEngine(replies [][]byte) (*CommandEngine, *fakeSPI) {
	spi := &fakeSPI{replies: replies}
	b := bus.New(spi, &fakePin{}, &fakePin{}, &fakePin{}, bus.DefaultConfig())
	return NewCommandEngine(b), spi
}

// TestFirmwareVersionScenario exercises a full GetFwVersion exchange
// returning "1.2.3".
func TestFirmwareVersionScenario(t *testing.T) {
	reply := append([]byte{0xE0, opGetFwVersion | replyFlag, 0x01, 0x05, '1', '.', '2', '.', '3', 0xEE}, 0xFF, 0xFF)
	engine, spi := newTestEngine([][]byte{reply})

	h := NewHandler(engine)
	version, err := h.GetFwVersion(context.Background())
	if err != nil {
		t.Fatalf("GetFwVersion: %v", err)
	}
	if string(version) != "1.2.3" {
		t.Fatalf("got %q, want 1.2.3", version)
	}

	// The write transaction should have framed the request correctly.
	if len(spi.writes) != 2 {
		t.Fatalf("got %d SPI transfers, want 2 (write+read transaction)", len(spi.writes))
	}
	want := []byte{0xE0, opGetFwVersion, 0x00, 0xEE}
	if !bytes.Equal(spi.writes[0][:len(want)], want) {
		t.Fatalf("outbound frame = %x, want prefix %x", spi.writes[0], want)
	}
	if len(spi.writes[0])%4 != 0 {
		t.Fatalf("outbound frame length %d is not a multiple of 4", len(spi.writes[0]))
	}
}

// TestConnectionStatusScenario exercises a full GetConnStatus exchange.
func TestConnectionStatusScenario(t *testing.T) {
	reply := []byte{0xE0, opGetConnStatus | replyFlag, 0x01, 0x01, 0x03, 0xEE, 0xFF, 0xFF}
	engine, _ := newTestEngine([][]byte{reply})

	h := NewHandler(engine)
	state, err := h.GetConnStatus(context.Background())
	if err != nil {
		t.Fatalf("GetConnStatus: %v", err)
	}
	if state != ConnectionStateConnected {
		t.Fatalf("got %s, want Connected", state)
	}
}

// TestStartClientTCPScenario exercises a full StartClientTcp exchange.
func TestStartClientTCPScenario(t *testing.T) {
	reply := []byte{0xE0, opStartClientTCP | replyFlag, 0x01, 0x01, 0x01, 0xEE, 0xFF, 0xFF}
	engine, spi := newTestEngine([][]byte{reply})

	h := NewHandler(engine)
	err := h.StartClientTCP(context.Background(), [4]byte{10, 0, 0, 1}, 443, 0x00, 0x00)
	if err != nil {
		t.Fatalf("StartClientTcp: %v", err)
	}
	if len(spi.writes) == 0 {
		t.Fatal("no SPI transfers recorded")
	}
}

// TestErrorResponseScenario checks that a reply starting with 0xEF
// fails with ErrorResponse.
func TestErrorResponseScenario(t *testing.T) {
	reply := []byte{0xEF, 0x00, 0x00, 0x00}
	engine, _ := newTestEngine([][]byte{reply})

	_, err := engine.Exec(context.Background(), opGetFwVersion, NewTuple())
	if err != ErrorResponse {
		t.Fatalf("got %v, want ErrorResponse", err)
	}
}

// TestUnexpectedReplyByteScenario covers a differing opcode echo.
func TestUnexpectedReplyByteScenario(t *testing.T) {
	reply := []byte{0xE0, 0x00, 0x00, 0xEE}
	engine, _ := newTestEngine([][]byte{reply})

	_, err := engine.Exec(context.Background(), opGetFwVersion, NewTuple())
	unexpected, ok := err.(*UnexpectedReplyByteError)
	if !ok {
		t.Fatalf("got %T, want *UnexpectedReplyByteError", err)
	}
	if unexpected.Position != 1 {
		t.Fatalf("got position %d, want 1", unexpected.Position)
	}
}

func TestResolveScenario(t *testing.T) {
	// ReqHostByName status=1, then GetHostByName returns a 4-byte IPv4.
	reqReply := []byte{0xE0, opReqHostByName | replyFlag, 0x01, 0x01, 0x01, 0xEE}
	hostReply := []byte{0xE0, opGetHostByName | replyFlag, 0x01, 0x04, 93, 184, 216, 34, 0xEE}
	engine, _ := newTestEngine([][]byte{reqReply, hostReply})

	station := NewStation(engine)
	ip, err := station.Resolve(context.Background(), "a.b")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ip.String() != "93.184.216.34" {
		t.Fatalf("got %s, want 93.184.216.34", ip)
	}
}
