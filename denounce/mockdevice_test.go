// =============================================================================
// mockdevice_test.go - Mock Receiver for Command Tests
// =============================================================================
//
// A loopback stand-in for the receiver's two control ports. The app's dialer
// is pointed at it so commands run end to end without hardware.
//
// =============================================================================

package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/denounce/denounce/denonprotocol"
)

// mockReceiver listens on loopback ports standing in for the text and HEOS
// ports of a real receiver.
//
// GO CONCEPT: Port 0
// ------------------
// net.Listen("tcp", "127.0.0.1:0") asks the kernel for any free port, so
// parallel test runs never collide. The client always dials 23 and 1255;
// DialContext below rewrites those to the listeners' real addresses.
type mockReceiver struct {
	listeners map[int]net.Listener

	// heosHandler answers lines received on the HEOS port.
	heosHandler func(line string) string

	mu    sync.Mutex
	lines map[int][]string
	conns []net.Conn

	wg sync.WaitGroup
}

func startMockReceiver(t *testing.T, heosHandler func(line string) string) *mockReceiver {
	t.Helper()

	m := &mockReceiver{
		listeners:   make(map[int]net.Listener),
		heosHandler: heosHandler,
		lines:       make(map[int][]string),
	}
	for _, port := range []int{denonprotocol.TextPort, denonprotocol.HEOSPort} {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		m.listeners[port] = l
		m.wg.Add(1)
		go m.acceptLoop(port, l)
	}

	t.Cleanup(m.stop)
	return m
}

func (m *mockReceiver) acceptLoop(port int, l net.Listener) {
	defer m.wg.Done()
	for {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		m.mu.Lock()
		m.conns = append(m.conns, conn)
		m.mu.Unlock()

		m.wg.Add(1)
		go m.handleConnection(port, conn)
	}
}

func (m *mockReceiver) handleConnection(port int, conn net.Conn) {
	defer m.wg.Done()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		m.mu.Lock()
		m.lines[port] = append(m.lines[port], line)
		m.mu.Unlock()

		switch {
		case port == denonprotocol.TextPort:
			// The receiver echoes the new state for query commands.
			if strings.HasSuffix(line, "?") {
				fmt.Fprintf(conn, "%s50\r", strings.TrimSuffix(line, "?"))
			}
		case m.heosHandler != nil:
			if reply := m.heosHandler(line); reply != "" {
				fmt.Fprint(conn, reply)
			}
		}
	}
}

func (m *mockReceiver) received(port int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines[port]...)
}

// waitReceived polls until port has received at least n lines.
func (m *mockReceiver) waitReceived(t *testing.T, port, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := m.received(port)
		if len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("port %d received %q, want %d lines", port, got, n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (m *mockReceiver) stop() {
	for _, l := range m.listeners {
		l.Close()
	}
	m.mu.Lock()
	for _, c := range m.conns {
		c.Close()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *mockReceiver) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	_, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	l, ok := m.listeners[port]
	if !ok {
		return nil, fmt.Errorf("no mock listener for port %d", port)
	}
	var d net.Dialer
	return d.DialContext(ctx, network, l.Addr().String())
}

func heosReply(command, result, message, payload string) string {
	s := fmt.Sprintf(`{"heos":{"command":%q,"result":%q,"message":%q}`, command, result, message)
	if payload != "" {
		s += `,"payload":` + payload
	}
	return s + "}\r\n"
}

// playersHandler answers get_players with the given payload and accepts
// every play_stream.
func playersHandler(players string) func(string) string {
	return func(line string) string {
		cmd, err := denonprotocol.ParseHEOSCommand(line)
		if err != nil {
			return ""
		}
		switch cmd.Path() {
		case "player/get_players":
			return heosReply(cmd.Path(), "success", "", players)
		case "browse/play_stream":
			return heosReply(cmd.Path(), "success", "", "")
		case "system/register_for_change_events":
			return heosReply(cmd.Path(), "success", "enable=on", "")
		}
		return ""
	}
}
