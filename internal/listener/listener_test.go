package listener

import (
	"net"
	"testing"
	"time"
)

func TestParseEndpoint(t *testing.T) {
	ep, err := ParseEndpoint("127.0.0.1:54321")
	if err != nil {
		t.Fatalf("ParseEndpoint returned error: %v", err)
	}
	if ep.Port != 54321 || ep.IsMulticast() {
		t.Errorf("Unexpected endpoint: %+v", ep)
	}

	ep, err = ParseEndpoint("239.255.0.1:6000")
	if err != nil {
		t.Fatalf("ParseEndpoint returned error: %v", err)
	}
	if !ep.IsMulticast() {
		t.Error("Expected 239.255.0.1 to be multicast")
	}

	for _, bad := range []string{"", "localhost", "::1:80", "10.0.0.1:notaport", "10.0.0.1:70000"} {
		if _, err := ParseEndpoint(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func TestListener_ReceivesUnicast(t *testing.T) {
	received := make(chan []byte, 16)
	ep := Endpoint{Addr: net.IPv4(127, 0, 0, 1), Port: 0}

	l := New(ep, func(b []byte) bool {
		received <- b
		return true
	}, nil)
	defer l.Close()

	if !l.IsValid() {
		t.Fatal("Listener should be valid after construction")
	}
	if l.Status() != StatusReceiving {
		t.Fatalf("Expected Receiving status, got %s", l.Status())
	}

	conn, err := net.DialUDP("udp4", nil, l.LocalAddr())
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer conn.Close()

	want := []byte(`{"S": {}}`)
	if _, err := conn.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case got := <-received:
		if string(got) != string(want) {
			t.Errorf("Expected %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for datagram")
	}
}

func TestListener_StopLatency(t *testing.T) {
	ep := Endpoint{Addr: net.IPv4(127, 0, 0, 1), Port: 0}
	l := New(ep, func([]byte) bool { return true }, nil)

	start := time.Now()
	l.Close()
	elapsed := time.Since(start)

	// One poll timeout plus generous scheduling overhead.
	if elapsed > PollTimeout+500*time.Millisecond {
		t.Errorf("Close took %v, expected within one poll interval", elapsed)
	}
	if l.IsValid() {
		t.Error("Listener should be invalid after Close")
	}
	if l.Status() != StatusStopped {
		t.Errorf("Expected Stopped status, got %s", l.Status())
	}
}

func TestListener_RepeatedCreateDestroy(t *testing.T) {
	ep := Endpoint{Addr: net.IPv4(127, 0, 0, 1), Port: 0}
	for i := 0; i < 10; i++ {
		l := New(ep, func([]byte) bool { return true }, nil)
		if !l.IsValid() {
			t.Fatalf("Cycle %d: listener invalid", i)
		}
		l.Close()
	}
}

func TestListener_BindFailure(t *testing.T) {
	// TEST-NET-3 address is not assigned to any local interface.
	ep := Endpoint{Addr: net.IPv4(203, 0, 113, 1), Port: 9}
	l := New(ep, func([]byte) bool { return true }, nil)

	if l.IsValid() {
		t.Error("Listener bound to a non-local address should be invalid")
	}
	if l.Status() != StatusNotFound {
		t.Errorf("Expected Device Not Found status, got %s", l.Status())
	}

	// Close on a never-started listener must not hang or panic.
	l.Close()
}

func TestListener_RequestShutdownIsAsync(t *testing.T) {
	ep := Endpoint{Addr: net.IPv4(127, 0, 0, 1), Port: 0}
	l := New(ep, func([]byte) bool { return true }, nil)

	l.RequestShutdown()
	if l.IsValid() {
		t.Error("IsValid must report false once stopping was requested")
	}
	l.Close()
}

func TestListener_Multicast(t *testing.T) {
	ep, err := ParseEndpoint("239.255.42.99:0")
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}

	received := make(chan []byte, 16)
	l := New(ep, func(b []byte) bool {
		received <- b
		return true
	}, nil)
	defer l.Close()

	if !l.IsValid() {
		t.Skip("Multicast not available in this environment")
	}

	group := &net.UDPAddr{IP: ep.Addr, Port: l.LocalAddr().Port}
	conn, err := net.DialUDP("udp4", nil, group)
	if err != nil {
		t.Skipf("Cannot send to multicast group: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Skipf("Multicast send failed: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Skip("No multicast loopback in this environment")
	}
}
