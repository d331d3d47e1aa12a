package ninawire

import (
	"context"
	"net"
)

// socketWriteBufferCapacity is the reference write-buffer size:
// 4 KiB.
const socketWriteBufferCapacity = 4096

// socketSendChunk is SendDataTcp's per-call limit: it carries a 2-byte
// length prefix, so no single call can exceed 65535 bytes.
const socketSendChunk = 0xFFFF

// Socket is a buffered TCP socket layered on the coprocessor's
// per-handle TCP opcodes: a host-side write buffer that batches small
// writes into SendDataTcp calls, and a host-side read prefetch buffer
// that batches GetDatabufTcp calls. It implements
// io.ReadWriteCloser.
type Socket struct {
	h      *Handler
	handle SocketHandle

	writeBuf []byte

	readBuf []byte
	readOff int
	readLen int
}

// Dial allocates a socket handle and starts a TCP client connection to
// remote, which must be an IPv4 address.
func Dial(ctx context.Context, h *Handler, remote *net.TCPAddr) (*Socket, error) {
	ip4 := remote.IP.To4()
	if ip4 == nil {
		return nil, ErrNotIPv4
	}
	handle, err := h.GetSocket(ctx)
	if err != nil {
		return nil, err
	}
	var ip [4]byte
	copy(ip[:], ip4)
	if err := h.StartClientTCP(ctx, ip, uint16(remote.Port), handle, 0 /* TCP */); err != nil {
		return nil, err
	}
	return &Socket{
		h:        h,
		handle:   handle,
		writeBuf: make([]byte, 0, socketWriteBufferCapacity),
	}, nil
}

// Write appends p to the write buffer, flushing only when the buffer
// is already full and more remains to append — so a write that exactly
// fills the buffer leaves the flush for the next Write or an explicit
// Flush, matching the buffered-socket contract.
// Implements io.Writer.
func (s *Socket) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		room := socketWriteBufferCapacity - len(s.writeBuf)
		if room == 0 {
			if err := s.Flush(ctxTODO()); err != nil {
				return written, err
			}
			room = socketWriteBufferCapacity
		}
		n := len(p)
		if n > room {
			n = room
		}
		s.writeBuf = append(s.writeBuf, p[:n]...)
		p = p[n:]
		written += n
	}
	return written, nil
}

// Flush drains the write buffer in chunks of at most socketSendChunk
// bytes, verifying DataSentTcp after each chunk. It is a
// no-op when the buffer is empty.
func (s *Socket) Flush(ctx context.Context) error {
	if len(s.writeBuf) == 0 {
		return nil
	}
	buf := s.writeBuf
	for len(buf) > 0 {
		n := len(buf)
		if n > socketSendChunk {
			n = socketSendChunk
		}
		if _, err := s.h.SendDataTCP(ctx, s.handle, buf[:n]); err != nil {
			return err
		}
		if err := s.h.DataSentTCP(ctx, s.handle); err != nil {
			return err
		}
		buf = buf[n:]
	}
	s.writeBuf = s.writeBuf[:0]
	return nil
}

// Available reports how many bytes the coprocessor currently has
// buffered for this socket. Read does not call this itself (see
// DESIGN.md's Open Question decision); it is exposed for callers that
// want to poll explicitly before reading.
func (s *Socket) Available(ctx context.Context) (uint16, error) {
	return s.h.AvailDataTCP(ctx, s.handle)
}

// readRequestSize is how many bytes each GetDatabufTcp refill asks for.
const readRequestSize = socketWriteBufferCapacity

// Read drains the prefetch buffer into p, refilling from GetDatabufTcp
// once it is exhausted. Implements io.Reader.
func (s *Socket) Read(p []byte) (int, error) {
	if s.readOff == s.readLen {
		buf, err := s.h.GetDatabufTCP(ctxTODO(), s.handle, readRequestSize)
		if err != nil {
			return 0, err
		}
		s.readBuf = buf
		s.readOff = 0
		s.readLen = len(buf)
	}
	n := copy(p, s.readBuf[s.readOff:s.readLen])
	s.readOff += n
	return n, nil
}

// State reads the socket's current TCP state.
func (s *Socket) State(ctx context.Context) (TCPState, error) {
	return s.h.GetClientStateTCP(ctx, s.handle)
}

// Close flushes any pending writes, then releases the socket handle.
func (s *Socket) Close() error {
	ctx := ctxTODO()
	if err := s.Flush(ctx); err != nil {
		return err
	}
	return s.h.StopClientTCP(ctx, s.handle)
}

// ctxTODO exists because io.Reader/io.Writer carry no context
// parameter, while every opcode call underneath needs one. Callers
// that need cancellation should use Flush/Available/State directly,
// which do take a context.
func ctxTODO() context.Context { return context.Background() }
