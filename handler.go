package ninawire

import (
	"context"
	"fmt"
)

// Opcode values for the command catalog. The reply-flag bit (0x80) is
// handled by the engine, not named here.
const (
	opSetNet           = 0x10
	opSetPassphrase    = 0x11
	opSetKey           = 0x12
	opSetIPConfig      = 0x14
	opSetDNSConfig     = 0x15
	opSetHostname      = 0x16
	opSetPowerMode     = 0x17
	opSetApNet         = 0x18
	opSetApPassphrase  = 0x19
	opSetDebug         = 0x1A
	opGetTemperature   = 0x1B
	opGetConnStatus    = 0x20
	opGetIPAddr        = 0x21
	opGetMacAddr       = 0x22
	opGetCurrSsid      = 0x23
	opGetCurrBssid     = 0x24
	opGetCurrRssi      = 0x25
	opGetCurrEnct      = 0x26
	opScanNetworks     = 0x27
	opStartServerTCP   = 0x28
	opGetStateTCP      = 0x29
	opDataSentTCP      = 0x2A
	opAvailDataTCP     = 0x2B
	opGetDataTCP       = 0x2C
	opStartClientTCP   = 0x2D
	opStopClientTCP    = 0x2E
	opGetClientStateTCP = 0x2F
	opDisconnect       = 0x30
	opGetIdxRssi       = 0x32
	opGetIdxEnct       = 0x33
	opReqHostByName    = 0x34
	opGetHostByName    = 0x35
	opStartScanNetworks = 0x36
	opGetFwVersion     = 0x37
	opSendDataUDP      = 0x39
	opGetRemoteData    = 0x3A
	opGetTime          = 0x3B
	opGetIdxBssid      = 0x3C
	opGetIdxChannel    = 0x3D
	opPing             = 0x3E
	opGetSocket        = 0x3F
	opSendDataTCP      = 0x44
	opGetDatabufTCP    = 0x45
	opInsertDatabuf    = 0x46
	opSetPinMode       = 0x50
	opSetDigitalWrite  = 0x51
	opSetAnalogWrite   = 0x52
)

// Handler exposes one method per opcode in the catalog, each doing
// exactly "send typed parameters, receive typed parameters" once the
// codec and engine already exist underneath it.
type Handler struct {
	engine *CommandEngine
}

// NewHandler wraps a CommandEngine with the opcode catalog.
func NewHandler(e *CommandEngine) *Handler { return &Handler{engine: e} }

func (h *Handler) exec(ctx context.Context, opcode byte, send ParamBlock) ([][]byte, error) {
	return h.engine.Exec(ctx, opcode, send)
}

func slot(recv [][]byte, i int, opcode byte) ([]byte, error) {
	if i >= len(recv) {
		return nil, fmt.Errorf("ninawire: opcode 0x%02x reply has %d slots, wanted at least %d", opcode, len(recv), i+1)
	}
	return recv[i], nil
}

func status(recv [][]byte, opcode byte, sentinel *Error) error {
	raw, err := slot(recv, 0, opcode)
	if err != nil {
		return err
	}
	b, err := DecodeU8(raw)
	if err != nil {
		return err
	}
	return statusError(sentinel, b)
}

// SetNet configures the station SSID.
func (h *Handler) SetNet(ctx context.Context, ssid []byte) error {
	recv, err := h.exec(ctx, opSetNet, NewTuple(Raw(ssid)))
	if err != nil {
		return err
	}
	return status(recv, opSetNet, ErrSetNetwork)
}

// SetPassphrase configures the station WPA/WPA2 passphrase.
func (h *Handler) SetPassphrase(ctx context.Context, ssid, passphrase []byte) error {
	recv, err := h.exec(ctx, opSetPassphrase, NewTuple(Raw(ssid), Raw(passphrase)))
	if err != nil {
		return err
	}
	return status(recv, opSetPassphrase, ErrSetPassphrase)
}

// SetKey configures a WEP key. The key is sent as a raw byte run, not
// null-terminated — see DESIGN.md's Open Question decision.
func (h *Handler) SetKey(ctx context.Context, ssid []byte, keyIndex byte, key []byte) error {
	recv, err := h.exec(ctx, opSetKey, NewTuple(Raw(ssid), U8(keyIndex), Raw(key)))
	if err != nil {
		return err
	}
	return status(recv, opSetKey, ErrSetKey)
}

// SetIPConfig sets a static IP/mask/gateway triple.
func (h *Handler) SetIPConfig(ctx context.Context, cfg NetworkConfig) error {
	recv, err := h.exec(ctx, opSetIPConfig, NewTuple(
		Raw(cfg.IP[:]), Raw(cfg.Mask[:]), Raw(cfg.Gateway[:]),
	))
	if err != nil {
		return err
	}
	return status(recv, opSetIPConfig, ErrSetIPConfig)
}

// SetDNSConfig sets up to two DNS server addresses.
func (h *Handler) SetDNSConfig(ctx context.Context, primary, secondary [4]byte) error {
	recv, err := h.exec(ctx, opSetDNSConfig, NewTuple(Raw(primary[:]), Raw(secondary[:])))
	if err != nil {
		return err
	}
	return status(recv, opSetDNSConfig, ErrSetDNSConfig)
}

// SetHostname sets the DHCP hostname.
func (h *Handler) SetHostname(ctx context.Context, hostname []byte) error {
	recv, err := h.exec(ctx, opSetHostname, NewTuple(Raw(hostname)))
	if err != nil {
		return err
	}
	return status(recv, opSetHostname, ErrSetHostname)
}

// SetPowerMode sets the radio power-save mode.
func (h *Handler) SetPowerMode(ctx context.Context, mode byte) error {
	_, err := h.exec(ctx, opSetPowerMode, NewTuple(U8(mode)))
	return err
}

// SetApNet configures the access-point SSID. Station.ConfigureAccessPoint
// does not call it; see DESIGN.md.
func (h *Handler) SetApNet(ctx context.Context, ssid []byte, channel byte) error {
	recv, err := h.exec(ctx, opSetApNet, NewTuple(Raw(ssid), U8(channel)))
	if err != nil {
		return err
	}
	return status(recv, opSetApNet, ErrSetNetwork)
}

// SetApPassphrase configures the access-point passphrase.
func (h *Handler) SetApPassphrase(ctx context.Context, ssid, passphrase []byte, channel byte) error {
	recv, err := h.exec(ctx, opSetApPassphrase, NewTuple(Raw(ssid), Raw(passphrase), U8(channel)))
	if err != nil {
		return err
	}
	return status(recv, opSetApPassphrase, ErrSetPassphrase)
}

// SetDebug toggles the coprocessor's own debug logging.
func (h *Handler) SetDebug(ctx context.Context, on bool) error {
	v := byte(0)
	if on {
		v = 1
	}
	_, err := h.exec(ctx, opSetDebug, NewTuple(U8(v)))
	return err
}

// GetTemperature reads the coprocessor's onboard temperature sensor, in
// raw ADC counts.
func (h *Handler) GetTemperature(ctx context.Context) (uint32, error) {
	recv, err := h.exec(ctx, opGetTemperature, NewTuple())
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetTemperature)
	if err != nil {
		return 0, err
	}
	return DecodeU32LE(raw)
}

// GetConnStatus reads the current connection state.
func (h *Handler) GetConnStatus(ctx context.Context) (ConnectionState, error) {
	recv, err := h.exec(ctx, opGetConnStatus, NewTuple())
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetConnStatus)
	if err != nil {
		return 0, err
	}
	b, err := DecodeU8(raw)
	if err != nil {
		return 0, err
	}
	return parseConnectionState(b)
}

// GetIPAddr reads the current IP/mask/gateway triple.
func (h *Handler) GetIPAddr(ctx context.Context) (NetworkConfig, error) {
	recv, err := h.exec(ctx, opGetIPAddr, NewTuple())
	if err != nil {
		return NetworkConfig{}, err
	}
	var cfg NetworkConfig
	for i, dst := range [][]byte{cfg.IP[:], cfg.Mask[:], cfg.Gateway[:]} {
		raw, err := slot(recv, i, opGetIPAddr)
		if err != nil {
			return NetworkConfig{}, err
		}
		if len(raw) != 4 {
			return NetworkConfig{}, fmt.Errorf("ninawire: GetIpAddr slot %d has length %d, want 4", i, len(raw))
		}
		copy(dst, raw)
	}
	return cfg, nil
}

// GetMacAddr reads the coprocessor's 6-byte MAC address.
func (h *Handler) GetMacAddr(ctx context.Context) ([6]byte, error) {
	var mac [6]byte
	recv, err := h.exec(ctx, opGetMacAddr, NewTuple())
	if err != nil {
		return mac, err
	}
	raw, err := slot(recv, 0, opGetMacAddr)
	if err != nil {
		return mac, err
	}
	if len(raw) != 6 {
		return mac, fmt.Errorf("ninawire: GetMacAddr slot has length %d, want 6", len(raw))
	}
	copy(mac[:], raw)
	return mac, nil
}

// GetCurrSsid reads the currently-associated SSID.
func (h *Handler) GetCurrSsid(ctx context.Context) ([]byte, error) {
	recv, err := h.exec(ctx, opGetCurrSsid, NewTuple())
	if err != nil {
		return nil, err
	}
	return slot(recv, 0, opGetCurrSsid)
}

// GetCurrBssid reads the currently-associated BSSID.
func (h *Handler) GetCurrBssid(ctx context.Context) ([6]byte, error) {
	var bssid [6]byte
	recv, err := h.exec(ctx, opGetCurrBssid, NewTuple())
	if err != nil {
		return bssid, err
	}
	raw, err := slot(recv, 0, opGetCurrBssid)
	if err != nil {
		return bssid, err
	}
	copy(bssid[:], raw)
	return bssid, nil
}

// GetCurrRssi reads the currently-associated link's RSSI, a signed
// 32-bit little-endian value per the coprocessor's convention for
// data-length/measurement fields outside the length-prefix system.
func (h *Handler) GetCurrRssi(ctx context.Context) (int32, error) {
	recv, err := h.exec(ctx, opGetCurrRssi, NewTuple())
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetCurrRssi)
	if err != nil {
		return 0, err
	}
	v, err := DecodeU32LE(raw)
	return int32(v), err
}

// GetCurrEnct reads the currently-associated link's encryption type.
func (h *Handler) GetCurrEnct(ctx context.Context) (EncryptionType, error) {
	recv, err := h.exec(ctx, opGetCurrEnct, NewTuple())
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetCurrEnct)
	if err != nil {
		return 0, err
	}
	b, err := DecodeU8(raw)
	if err != nil {
		return 0, err
	}
	return parseEncryptionType(b)
}

// ScanNetworks issues a blocking network scan (as opposed to
// StartScanNetworks below) and returns the raw SSID list.
func (h *Handler) ScanNetworks(ctx context.Context) ([][]byte, error) {
	return h.exec(ctx, opScanNetworks, NewTuple())
}

// StartServerTCP starts listening on port for an incoming connection on
// socket.
func (h *Handler) StartServerTCP(ctx context.Context, port uint16, socket SocketHandle) error {
	_, err := h.exec(ctx, opStartServerTCP, NewTuple(U16BE(port), U8(byte(socket))))
	return err
}

// GetStateTCP reads a server socket's TCP state.
func (h *Handler) GetStateTCP(ctx context.Context, socket SocketHandle) (TCPState, error) {
	recv, err := h.exec(ctx, opGetStateTCP, NewTuple(U8(byte(socket))))
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetStateTCP)
	if err != nil {
		return 0, err
	}
	b, err := DecodeU8(raw)
	if err != nil {
		return 0, err
	}
	return parseTCPState(b)
}

// DataSentTCP checks whether the last SendDataTcp call finished
// draining; status 1 means yes.
func (h *Handler) DataSentTCP(ctx context.Context, socket SocketHandle) error {
	recv, err := h.exec(ctx, opDataSentTCP, NewTuple(U8(byte(socket))))
	if err != nil {
		return err
	}
	return status(recv, opDataSentTCP, ErrCheckDataSent)
}

// AvailDataTCP polls how many bytes are available to read on socket.
// The data-length field is little-endian.
func (h *Handler) AvailDataTCP(ctx context.Context, socket SocketHandle) (uint16, error) {
	recv, err := h.exec(ctx, opAvailDataTCP, NewTuple(U8(byte(socket))))
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opAvailDataTCP)
	if err != nil {
		return 0, err
	}
	return DecodeU16LE(raw)
}

// GetDataTCP reads a single byte from socket (used by the server-socket
// path; the buffered client socket uses GetDatabufTCP instead).
func (h *Handler) GetDataTCP(ctx context.Context, socket SocketHandle) (byte, bool, error) {
	recv, err := h.exec(ctx, opGetDataTCP, NewTuple(U8(byte(socket))))
	if err != nil {
		return 0, false, err
	}
	raw, err := slot(recv, 0, opGetDataTCP)
	if err != nil {
		return 0, false, err
	}
	b, err := DecodeU8(raw)
	return b, true, err
}

// StartClientTCP binds socket to a TCP connection to ip:port.
// protocol is 0 for TCP.
func (h *Handler) StartClientTCP(ctx context.Context, ip [4]byte, port uint16, socket SocketHandle, protocol byte) error {
	recv, err := h.exec(ctx, opStartClientTCP, NewTuple(
		Raw(ip[:]), U16BE(port), U8(byte(socket)), U8(protocol),
	))
	if err != nil {
		return err
	}
	return status(recv, opStartClientTCP, ErrStartClientTCP)
}

// StopClientTCP releases socket.
func (h *Handler) StopClientTCP(ctx context.Context, socket SocketHandle) error {
	recv, err := h.exec(ctx, opStopClientTCP, NewTuple(U8(byte(socket))))
	if err != nil {
		return err
	}
	return status(recv, opStopClientTCP, ErrStopClient)
}

// GetClientStateTCP reads a client socket's TCP state.
func (h *Handler) GetClientStateTCP(ctx context.Context, socket SocketHandle) (TCPState, error) {
	recv, err := h.exec(ctx, opGetClientStateTCP, NewTuple(U8(byte(socket))))
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetClientStateTCP)
	if err != nil {
		return 0, err
	}
	b, err := DecodeU8(raw)
	if err != nil {
		return 0, err
	}
	return parseTCPState(b)
}

// Disconnect tears down the current WiFi association.
func (h *Handler) Disconnect(ctx context.Context) error {
	recv, err := h.exec(ctx, opDisconnect, NewTuple())
	if err != nil {
		return err
	}
	return status(recv, opDisconnect, ErrDisconnect)
}

// GetIdxRssi reads the RSSI of the scan result at index, little-endian
// per the data-length numeric-encoding note.
func (h *Handler) GetIdxRssi(ctx context.Context, index byte) (int32, error) {
	recv, err := h.exec(ctx, opGetIdxRssi, NewTuple(U8(index)))
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetIdxRssi)
	if err != nil {
		return 0, err
	}
	v, err := DecodeU32LE(raw)
	return int32(v), err
}

// GetIdxEnct reads the encryption type of the scan result at index.
func (h *Handler) GetIdxEnct(ctx context.Context, index byte) (EncryptionType, error) {
	recv, err := h.exec(ctx, opGetIdxEnct, NewTuple(U8(index)))
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetIdxEnct)
	if err != nil {
		return 0, err
	}
	b, err := DecodeU8(raw)
	if err != nil {
		return 0, err
	}
	return parseEncryptionType(b)
}

// ReqHostByName starts resolving hostname; the result is fetched with
// GetHostByName.
func (h *Handler) ReqHostByName(ctx context.Context, hostname []byte) error {
	recv, err := h.exec(ctx, opReqHostByName, NewTuple(NullTerminatedBytes(hostname)))
	if err != nil {
		return err
	}
	return status(recv, opReqHostByName, ErrReqHostByName)
}

// GetHostByName fetches the address ReqHostByName resolved, as a
// 32-bit big-endian IPv4.
func (h *Handler) GetHostByName(ctx context.Context) ([4]byte, error) {
	var ip [4]byte
	recv, err := h.exec(ctx, opGetHostByName, NewTuple())
	if err != nil {
		return ip, err
	}
	raw, err := slot(recv, 0, opGetHostByName)
	if err != nil {
		return ip, err
	}
	if len(raw) != 4 {
		return ip, fmt.Errorf("ninawire: GetHostByName slot has length %d, want 4", len(raw))
	}
	copy(ip[:], raw)
	return ip, nil
}

// StartScanNetworks begins an asynchronous scan; results are fetched
// with GetIdxRssi/GetIdxEnct/GetIdxBssid/GetIdxChannel per index, after
// reading the list of found SSIDs with ScanNetworks (see
// Station.ScanNetworks for the orchestration).
func (h *Handler) StartScanNetworks(ctx context.Context) error {
	recv, err := h.exec(ctx, opStartScanNetworks, NewTuple())
	if err != nil {
		return err
	}
	return status(recv, opStartScanNetworks, ErrStartScanNetworks)
}

// GetFwVersion reads the coprocessor firmware version string, e.g.
// "1.2.3".
func (h *Handler) GetFwVersion(ctx context.Context) ([]byte, error) {
	recv, err := h.exec(ctx, opGetFwVersion, NewTuple())
	if err != nil {
		return nil, err
	}
	return slot(recv, 0, opGetFwVersion)
}

// SendDataUDP sends a single UDP datagram. Higher-level APIs are
// TCP-only; this remains as a bit-exact wire method.
func (h *Handler) SendDataUDP(ctx context.Context, socket SocketHandle, data []byte) (uint16, error) {
	recv, err := h.exec(ctx, opSendDataUDP, NewTuple(U8(byte(socket)), Raw(data)))
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opSendDataUDP)
	if err != nil {
		return 0, err
	}
	return DecodeU16LE(raw)
}

// GetRemoteData reads the remote IP/port a socket is connected to.
func (h *Handler) GetRemoteData(ctx context.Context, socket SocketHandle) (RemoteAddr, error) {
	recv, err := h.exec(ctx, opGetRemoteData, NewTuple(U8(byte(socket))))
	if err != nil {
		return RemoteAddr{}, err
	}
	ipRaw, err := slot(recv, 0, opGetRemoteData)
	if err != nil {
		return RemoteAddr{}, err
	}
	portRaw, err := slot(recv, 1, opGetRemoteData)
	if err != nil {
		return RemoteAddr{}, err
	}
	var addr RemoteAddr
	if len(ipRaw) != 4 {
		return RemoteAddr{}, fmt.Errorf("ninawire: GetRemoteData ip slot has length %d, want 4", len(ipRaw))
	}
	copy(addr.IP[:], ipRaw)
	addr.Port, err = DecodeU16BE(portRaw)
	return addr, err
}

// GetTime reads the coprocessor's notion of the current Unix time.
func (h *Handler) GetTime(ctx context.Context) (uint32, error) {
	recv, err := h.exec(ctx, opGetTime, NewTuple())
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetTime)
	if err != nil {
		return 0, err
	}
	return DecodeU32LE(raw)
}

// GetIdxBssid reads the BSSID of the scan result at index.
func (h *Handler) GetIdxBssid(ctx context.Context, index byte) ([6]byte, error) {
	var bssid [6]byte
	recv, err := h.exec(ctx, opGetIdxBssid, NewTuple(U8(index)))
	if err != nil {
		return bssid, err
	}
	raw, err := slot(recv, 0, opGetIdxBssid)
	if err != nil {
		return bssid, err
	}
	copy(bssid[:], raw)
	return bssid, nil
}

// GetIdxChannel reads the channel of the scan result at index.
func (h *Handler) GetIdxChannel(ctx context.Context, index byte) (byte, error) {
	recv, err := h.exec(ctx, opGetIdxChannel, NewTuple(U8(index)))
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetIdxChannel)
	if err != nil {
		return 0, err
	}
	return DecodeU8(raw)
}

// Ping round-trips a liveness check, returning the measured latency in
// milliseconds as reported by the coprocessor.
func (h *Handler) Ping(ctx context.Context) (uint32, error) {
	recv, err := h.exec(ctx, opPing, NewTuple())
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opPing)
	if err != nil {
		return 0, err
	}
	return DecodeU32LE(raw)
}

// GetSocket allocates a new socket handle. The host never invents one
// itself.
func (h *Handler) GetSocket(ctx context.Context) (SocketHandle, error) {
	recv, err := h.exec(ctx, opGetSocket, NewTuple())
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opGetSocket)
	if err != nil {
		return 0, err
	}
	b, err := DecodeU8(raw)
	return SocketHandle(b), err
}

// SendDataTCP sends up to 65535 bytes (long encoding) on socket.
func (h *Handler) SendDataTCP(ctx context.Context, socket SocketHandle, data []byte) (uint16, error) {
	if len(data) > 0xFFFF {
		return 0, ErrDataTooLong
	}
	recv, err := h.exec(ctx, opSendDataTCP, NewTuple(U8(byte(socket)), Raw(data)))
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opSendDataTCP)
	if err != nil {
		return 0, err
	}
	return DecodeU16LE(raw)
}

// GetDatabufTCP bulk-fetches up to requested bytes from socket's
// receive buffer (long encoding both ways).
func (h *Handler) GetDatabufTCP(ctx context.Context, socket SocketHandle, requested uint16) ([]byte, error) {
	recv, err := h.exec(ctx, opGetDatabufTCP, NewTuple(U8(byte(socket)), U16BE(requested)))
	if err != nil {
		return nil, err
	}
	return slot(recv, 0, opGetDatabufTCP)
}

// InsertDatabuf stages bytes into the coprocessor's send buffer without
// immediately transmitting them.
func (h *Handler) InsertDatabuf(ctx context.Context, socket SocketHandle, data []byte) (uint16, error) {
	recv, err := h.exec(ctx, opInsertDatabuf, NewTuple(U8(byte(socket)), Raw(data)))
	if err != nil {
		return 0, err
	}
	raw, err := slot(recv, 0, opInsertDatabuf)
	if err != nil {
		return 0, err
	}
	return DecodeU16LE(raw)
}

// SetPinMode configures a GPIO pin's direction.
func (h *Handler) SetPinMode(ctx context.Context, pin byte, output bool) error {
	mode := byte(0)
	if output {
		mode = 1
	}
	recv, err := h.exec(ctx, opSetPinMode, NewTuple(U8(pin), U8(mode)))
	if err != nil {
		return err
	}
	return status(recv, opSetPinMode, ErrPinMode)
}

// SetDigitalWrite drives a GPIO pin high or low.
func (h *Handler) SetDigitalWrite(ctx context.Context, pin byte, high bool) error {
	v := byte(0)
	if high {
		v = 1
	}
	recv, err := h.exec(ctx, opSetDigitalWrite, NewTuple(U8(pin), U8(v)))
	if err != nil {
		return err
	}
	return status(recv, opSetDigitalWrite, ErrDigitalWrite)
}

// SetAnalogWrite drives a PWM-capable pin with an 8-bit duty cycle.
func (h *Handler) SetAnalogWrite(ctx context.Context, pin byte, value byte) error {
	recv, err := h.exec(ctx, opSetAnalogWrite, NewTuple(U8(pin), U8(value)))
	if err != nil {
		return err
	}
	return status(recv, opSetAnalogWrite, ErrAnalogWrite)
}
