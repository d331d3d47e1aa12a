package ninawire

import (
	"context"
	"net"
	"time"
)

// Station is the top-level convenience wrapper around the opcode
// catalog: it multiplexes Handler's bit-exact calls into the handful of
// multi-step operations (connect, scan, resolve, LED) a caller actually
// wants.
type Station struct {
	handler *Handler
	engine  *CommandEngine
}

// NewStation wraps an engine's opcode catalog with the convenience
// operations below.
func NewStation(e *CommandEngine) *Station {
	return &Station{handler: NewHandler(e), engine: e}
}

// Handler exposes the underlying bit-exact opcode catalog for callers
// that want a single command rather than an orchestrated operation.
func (s *Station) Handler() *Handler { return s.handler }

// Reset power-cycles the coprocessor's reset line.
func (s *Station) Reset(ctx context.Context) error { return s.engine.Reset(ctx) }

// ConfigureStation associates with ssid (and passphrase, if non-empty).
func (s *Station) ConfigureStation(ctx context.Context, ssid, passphrase []byte) error {
	if len(passphrase) == 0 {
		return s.handler.SetNet(ctx, ssid)
	}
	return s.handler.SetPassphrase(ctx, ssid, passphrase)
}

// ConfigureAccessPoint is not wired: access-point mode is left
// unimplemented at this layer. The wire opcodes (SetApNet,
// SetApPassphrase) remain available on Handler for callers that choose
// to drive them directly.
func (s *Station) ConfigureAccessPoint(ctx context.Context, ssid, passphrase []byte, channel byte) error {
	return ErrAccessPointNotWired
}

// AwaitConnectionState polls GetConnStatus every pollEvery until it
// equals want or ctx is done, returning ConnectionFailureError with the
// last observed state if ctx expires first.
func (s *Station) AwaitConnectionState(ctx context.Context, want ConnectionState, pollEvery time.Duration) error {
	var last ConnectionState
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()
	for {
		state, err := s.handler.GetConnStatus(ctx)
		if err != nil {
			return err
		}
		last = state
		if state == want {
			return nil
		}
		select {
		case <-ctx.Done():
			return &ConnectionFailureError{LastState: last}
		case <-ticker.C:
		}
	}
}

// ScanNetworks runs a scan and fans the per-index opcodes out into one
// slice of results.
func (s *Station) ScanNetworks(ctx context.Context) ([]ScannedNetwork, error) {
	if err := s.handler.StartScanNetworks(ctx); err != nil {
		return nil, err
	}
	ssids, err := s.handler.ScanNetworks(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]ScannedNetwork, 0, len(ssids))
	for i, ssid := range ssids {
		rssi, err := s.handler.GetIdxRssi(ctx, byte(i))
		if err != nil {
			return nil, err
		}
		enct, err := s.handler.GetIdxEnct(ctx, byte(i))
		if err != nil {
			return nil, err
		}
		bssid, err := s.handler.GetIdxBssid(ctx, byte(i))
		if err != nil {
			return nil, err
		}
		channel, err := s.handler.GetIdxChannel(ctx, byte(i))
		if err != nil {
			return nil, err
		}
		results = append(results, ScannedNetwork{
			SSID:       string(ssid),
			RSSI:       rssi,
			Encryption: enct,
			BSSID:      bssid,
			Channel:    channel,
		})
	}
	return results, nil
}

// SSID, BSSID, RSSI, and EncryptionType passthrough the currently
// associated link's state.
func (s *Station) SSID(ctx context.Context) ([]byte, error)             { return s.handler.GetCurrSsid(ctx) }
func (s *Station) BSSID(ctx context.Context) ([6]byte, error)           { return s.handler.GetCurrBssid(ctx) }
func (s *Station) RSSI(ctx context.Context) (int32, error)              { return s.handler.GetCurrRssi(ctx) }
func (s *Station) EncryptionType(ctx context.Context) (EncryptionType, error) {
	return s.handler.GetCurrEnct(ctx)
}

// Resolve looks up hostname's IPv4 address via ReqHostByName then
// GetHostByName.
func (s *Station) Resolve(ctx context.Context, hostname string) (net.IP, error) {
	if len(hostname) > 255 {
		return nil, ErrDataTooLong
	}
	if err := s.handler.ReqHostByName(ctx, []byte(hostname)); err != nil {
		return nil, err
	}
	ip, err := s.handler.GetHostByName(ctx)
	if err != nil {
		return nil, err
	}
	return net.IPv4(ip[0], ip[1], ip[2], ip[3]), nil
}

// Dial opens a buffered TCP socket to remote.
func (s *Station) Dial(ctx context.Context, remote *net.TCPAddr) (*Socket, error) {
	return Dial(ctx, s.handler, remote)
}

// ledPins are the GPIO pins the coprocessor's onboard RGB LED is wired to.
var ledPins = [3]byte{25, 26, 27}

// SetLED configures the onboard RGB LED's three channels, setting each
// pin's mode before writing its channel. The pin modes are sent again on
// every call; no state is kept between calls.
func (s *Station) SetLED(ctx context.Context, r, g, b byte) error {
	values := [3]byte{r, g, b}
	for i, pin := range ledPins {
		if err := s.handler.SetPinMode(ctx, pin, true); err != nil {
			return err
		}
		if err := s.handler.SetAnalogWrite(ctx, pin, values[i]); err != nil {
			return err
		}
	}
	return nil
}
