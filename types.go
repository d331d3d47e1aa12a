package ninawire

import "fmt"

// ConnectionState is the coprocessor's WiFi connection state machine.
// Any byte outside this set is a protocol error.
type ConnectionState uint8

const (
	ConnectionStateIdle ConnectionState = iota
	ConnectionStateNoSsidAvail
	ConnectionStateScanCompleted
	ConnectionStateConnected
	ConnectionStateConnectFailed
	ConnectionStateConnectionLost
	ConnectionStateDisconnected
	ConnectionStateApListening
	ConnectionStateApConnected
	ConnectionStateApFailed

	ConnectionStateNoShield ConnectionState = 255
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionStateNoShield:
		return "NoShield"
	case ConnectionStateIdle:
		return "Idle"
	case ConnectionStateNoSsidAvail:
		return "NoSsidAvail"
	case ConnectionStateScanCompleted:
		return "ScanCompleted"
	case ConnectionStateConnected:
		return "Connected"
	case ConnectionStateConnectFailed:
		return "ConnectFailed"
	case ConnectionStateConnectionLost:
		return "ConnectionLost"
	case ConnectionStateDisconnected:
		return "Disconnected"
	case ConnectionStateApListening:
		return "ApListening"
	case ConnectionStateApConnected:
		return "ApConnected"
	case ConnectionStateApFailed:
		return "ApFailed"
	default:
		return fmt.Sprintf("ConnectionState(%d)", uint8(s))
	}
}

func parseConnectionState(b byte) (ConnectionState, error) {
	switch ConnectionState(b) {
	case ConnectionStateNoShield, ConnectionStateIdle, ConnectionStateNoSsidAvail,
		ConnectionStateScanCompleted, ConnectionStateConnected, ConnectionStateConnectFailed,
		ConnectionStateConnectionLost, ConnectionStateDisconnected, ConnectionStateApListening,
		ConnectionStateApConnected, ConnectionStateApFailed:
		return ConnectionState(b), nil
	default:
		return 0, &invalidEnumError{kind: "ConnectionState", got: b}
	}
}

// TCPState mirrors the coprocessor's TCP connection state machine.
type TCPState uint8

const (
	TCPStateClosed TCPState = iota
	TCPStateListen
	TCPStateSynSent
	TCPStateSynRcvd
	TCPStateEstablished
	TCPStateFinWait1
	TCPStateFinWait2
	TCPStateCloseWait
	TCPStateClosing
	TCPStateLastAck
	TCPStateTimeWait
)

func (s TCPState) String() string {
	switch s {
	case TCPStateClosed:
		return "Closed"
	case TCPStateListen:
		return "Listen"
	case TCPStateSynSent:
		return "SynSent"
	case TCPStateSynRcvd:
		return "SynRcvd"
	case TCPStateEstablished:
		return "Established"
	case TCPStateFinWait1:
		return "FinWait1"
	case TCPStateFinWait2:
		return "FinWait2"
	case TCPStateCloseWait:
		return "CloseWait"
	case TCPStateClosing:
		return "Closing"
	case TCPStateLastAck:
		return "LastAck"
	case TCPStateTimeWait:
		return "TimeWait"
	default:
		return fmt.Sprintf("TCPState(%d)", uint8(s))
	}
}

func parseTCPState(b byte) (TCPState, error) {
	if b > uint8(TCPStateTimeWait) {
		return 0, &invalidEnumError{kind: "TcpState", got: b}
	}
	return TCPState(b), nil
}

// EncryptionType mirrors the coprocessor's WiFi encryption identifiers.
// The wire values below follow the order the opcode catalog's
// GetCurrEnct/GetIdxEnct results are documented to return.
type EncryptionType uint8

const (
	EncryptionTypeWEP EncryptionType = iota
	EncryptionTypeWPAPSK
	EncryptionTypeWPA2PSK
	EncryptionTypeWPANone
	EncryptionTypeAuto
	EncryptionTypeUnknown
)

func (e EncryptionType) String() string {
	switch e {
	case EncryptionTypeWEP:
		return "WEP"
	case EncryptionTypeWPAPSK:
		return "WPA-PSK"
	case EncryptionTypeWPA2PSK:
		return "WPA2-PSK"
	case EncryptionTypeWPANone:
		return "WPA-None"
	case EncryptionTypeAuto:
		return "Auto"
	case EncryptionTypeUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("EncryptionType(%d)", uint8(e))
	}
}

func parseEncryptionType(b byte) (EncryptionType, error) {
	if b > uint8(EncryptionTypeUnknown) {
		return 0, &invalidEnumError{kind: "EncryptionType", got: b}
	}
	return EncryptionType(b), nil
}

// SocketHandle is an opaque id the coprocessor allocates via GetSocket.
// The host never invents one; it only ever forwards a value GetSocket
// returned.
type SocketHandle uint8

// NetworkConfig groups the IP/mask/gateway triple GetIpAddr returns.
type NetworkConfig struct {
	IP      [4]byte
	Mask    [4]byte
	Gateway [4]byte
}

// RemoteAddr groups the remote IP/port pair GetRemoteData returns.
type RemoteAddr struct {
	IP   [4]byte
	Port uint16
}

// ScannedNetwork is one entry of Station.ScanNetworks's result, fanned
// out from the per-index RSSI/encryption/BSSID/channel opcodes.
type ScannedNetwork struct {
	SSID       string
	RSSI       int32
	Encryption EncryptionType
	BSSID      [6]byte
	Channel    uint8
}
