package ninawire

import "testing"

func TestConnectionStateInvariant(t *testing.T) {
	valid := []ConnectionState{
		ConnectionStateNoShield, ConnectionStateIdle, ConnectionStateNoSsidAvail,
		ConnectionStateScanCompleted, ConnectionStateConnected, ConnectionStateConnectFailed,
		ConnectionStateConnectionLost, ConnectionStateDisconnected, ConnectionStateApListening,
		ConnectionStateApConnected, ConnectionStateApFailed,
	}
	for _, v := range valid {
		got, err := parseConnectionState(byte(v))
		if err != nil {
			t.Fatalf("parseConnectionState(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("parseConnectionState(%d) = %d", v, got)
		}
	}

	if _, err := parseConnectionState(10); err == nil {
		t.Fatal("byte 10 (gap between ApFailed and NoShield) should be a protocol error")
	}
	if _, err := parseConnectionState(200); err == nil {
		t.Fatal("out-of-range byte should be a protocol error")
	}
}

func TestTCPStateInvariant(t *testing.T) {
	if _, err := parseTCPState(uint8(TCPStateTimeWait)); err != nil {
		t.Fatalf("parseTCPState(TimeWait): %v", err)
	}
	if _, err := parseTCPState(uint8(TCPStateTimeWait) + 1); err == nil {
		t.Fatal("byte past the last valid state should be a protocol error")
	}
}

func TestEncryptionTypeInvariant(t *testing.T) {
	if _, err := parseEncryptionType(uint8(EncryptionTypeUnknown)); err != nil {
		t.Fatalf("parseEncryptionType(Unknown): %v", err)
	}
	if _, err := parseEncryptionType(uint8(EncryptionTypeUnknown) + 1); err == nil {
		t.Fatal("byte past the last valid encryption type should be a protocol error")
	}
}

func TestEnumStringers(t *testing.T) {
	if got := ConnectionStateConnected.String(); got != "Connected" {
		t.Fatalf("got %q", got)
	}
	if got := TCPStateEstablished.String(); got != "Established" {
		t.Fatalf("got %q", got)
	}
	if got := EncryptionTypeWPA2PSK.String(); got != "WPA2-PSK" {
		t.Fatalf("got %q", got)
	}
}
