package denonprotocol

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
)

// mockDevice is an in-process stand-in for a receiver. It listens on two
// loopback ports, one per protocol, records every line it receives and
// answers HEOS lines through a per-test handler.
type mockDevice struct {
	text *mockPort
	heos *mockPort
}

type mockPort struct {
	listener net.Listener

	// handler returns the raw bytes to write back for a received line.
	handler func(line string) string

	mu      sync.Mutex
	lines   []string
	accepts int
	conns   []net.Conn
	linesCh chan string

	wg sync.WaitGroup
}

func startMockDevice(t *testing.T, heosHandler func(line string) string) *mockDevice {
	t.Helper()

	d := &mockDevice{
		text: startMockPort(t, nil),
		heos: startMockPort(t, heosHandler),
	}
	return d
}

func startMockPort(t *testing.T, handler func(line string) string) *mockPort {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	p := &mockPort{
		listener: listener,
		handler:  handler,
		linesCh:  make(chan string, 64),
	}

	p.wg.Add(1)
	go p.acceptLoop()

	t.Cleanup(p.stop)
	return p
}

func (p *mockPort) acceptLoop() {
	defer p.wg.Done()

	for {
		conn, err := p.listener.Accept()
		if err != nil {
			return
		}

		p.mu.Lock()
		p.accepts++
		p.conns = append(p.conns, conn)
		p.mu.Unlock()

		p.wg.Add(1)
		go p.handleConnection(conn)
	}
}

func (p *mockPort) handleConnection(conn net.Conn) {
	defer p.wg.Done()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		p.mu.Lock()
		p.lines = append(p.lines, line)
		p.mu.Unlock()

		select {
		case p.linesCh <- line:
		default:
		}

		if p.handler != nil {
			if reply := p.handler(line); reply != "" {
				fmt.Fprint(conn, reply)
			}
		}
	}
}

// send writes data to every connected client.
func (p *mockPort) send(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.conns {
		fmt.Fprint(c, data)
	}
}

// closeConns drops every client connection while keeping the listener.
func (p *mockPort) closeConns() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.conns {
		c.Close()
	}
	p.conns = nil
}

func (p *mockPort) receivedLines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

func (p *mockPort) acceptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accepts
}

// waitLine blocks until the port receives a line or the timeout expires.
func (p *mockPort) waitLine(t *testing.T) string {
	t.Helper()
	select {
	case line := <-p.linesCh:
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a line")
		return ""
	}
}

func (p *mockPort) stop() {
	p.listener.Close()
	p.closeConns()
	p.wg.Wait()
}

// dialer routes the fixed protocol ports to the mock listeners.
func (d *mockDevice) dialer() Dialer {
	return dialerFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		_, port, err := net.SplitHostPort(address)
		if err != nil {
			return nil, err
		}
		var target string
		switch port {
		case strconv.Itoa(TextPort):
			target = d.text.listener.Addr().String()
		case strconv.Itoa(HEOSPort):
			target = d.heos.listener.Addr().String()
		default:
			return nil, fmt.Errorf("unexpected port %s", port)
		}
		var nd net.Dialer
		return nd.DialContext(ctx, network, target)
	})
}

func (d *mockDevice) client() *Client {
	return NewClient("receiver.test", WithDialer(d.dialer()))
}

type dialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (f dialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}

// heosReply renders a reply envelope followed by the wire terminator.
func heosReply(command, result, message, payload string) string {
	s := fmt.Sprintf(`{"heos":{"command":%q,"result":%q,"message":%q}`, command, result, message)
	if payload != "" {
		s += `,"payload":` + payload
	}
	return s + "}\r\n"
}

const livingRoomPlayers = `[{"name":"Living Room","pid":1,"model":"X","version":"1","network":"wired","lineout":1,"serial":"S1"}]`

// defaultHEOSHandler answers get_players with one player and accepts
// play_stream.
func defaultHEOSHandler(line string) string {
	cmd, err := ParseHEOSCommand(line)
	if err != nil {
		return ""
	}
	switch cmd.Path() {
	case "player/get_players":
		return heosReply(cmd.Path(), "success", "", livingRoomPlayers)
	case "browse/play_stream":
		return heosReply(cmd.Path(), "success", "", "")
	case "system/register_for_change_events":
		return heosReply(cmd.Path(), "success", "enable=on", "")
	default:
		return ""
	}
}
