package denonprotocol

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Dialer opens TCP connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Session is an open connection to one protocol port.
//
// The read side is owned by a single persistent bufio.Reader so that data
// buffered for one caller is never lost to the next. Writes are serialized;
// reads and writes may run concurrently since they use opposite directions
// of the connection.
type Session struct {
	proto  Protocol
	conn   net.Conn
	reader *bufio.Reader
	logger *slog.Logger

	writeMu sync.Mutex
}

func newSession(proto Protocol, conn net.Conn, logger *slog.Logger) *Session {
	return &Session{
		proto:  proto,
		conn:   conn,
		reader: bufio.NewReader(conn),
		logger: logger,
	}
}

// Protocol returns the protocol this session speaks.
func (s *Session) Protocol() Protocol {
	return s.proto
}

// Conn returns the underlying connection.
func (s *Session) Conn() net.Conn {
	return s.conn
}

// Command is anything that can be framed for the wire.
type Command interface {
	FormatLine() string
}

// WriteCommand writes the framed form of cmd.
func (s *Session) WriteCommand(cmd Command) error {
	return s.write(cmd.FormatLine())
}

// WriteLine writes line followed by the protocol line terminator.
func (s *Session) WriteLine(line string) error {
	return s.write(line + LineTerminator)
}

func (s *Session) write(data string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.logger.Debug("send", "protocol", s.proto, "line", strings.TrimSuffix(data, LineTerminator))
	if _, err := io.WriteString(s.conn, data); err != nil {
		return NewConnectionError("failed to send command", err)
	}
	return nil
}

// ReadChunk returns the bytes up to and including the protocol delimiter.
// On error any partial chunk read so far is returned alongside it.
func (s *Session) ReadChunk() ([]byte, error) {
	return s.reader.ReadBytes(s.proto.Delimiter())
}

// DecodeValue reads exactly one JSON value into v. The decoder is fed one
// byte at a time, so nothing beyond the closing brace is consumed.
func (s *Session) DecodeValue(v any) error {
	dec := json.NewDecoder(byteReader{s.reader})
	if err := dec.Decode(v); err != nil {
		var netErr net.Error
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &netErr) {
			return NewConnectionError("failed to read response", err)
		}
		return &DecodeError{Cause: err}
	}
	return nil
}

// SetReadDeadline sets the read deadline of the underlying connection.
func (s *Session) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// byteReader hands out at most one byte per Read.
type byteReader struct {
	r *bufio.Reader
}

func (b byteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	c, err := b.r.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = c
	return 1, nil
}

// Sessions owns at most one Session per protocol. Each is dialed on first
// use and reused for the lifetime of the Sessions value; a dead session is
// never redialed.
//
// Thread Safety:
// Ensure and Close are safe for concurrent use.
type Sessions struct {
	mu sync.Mutex

	host   string
	dialer Dialer
	logger *slog.Logger

	text   *Session
	heos   *Session
	closed bool
}

// NewSessions creates a session manager for host. No connection is made
// until Ensure is called.
func NewSessions(host string, dialer Dialer, logger *slog.Logger) *Sessions {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sessions{host: host, dialer: dialer, logger: logger}
}

// Host returns the receiver address.
func (m *Sessions) Host() string {
	return m.host
}

func (m *Sessions) slot(proto Protocol) **Session {
	if proto == ProtocolHEOS {
		return &m.heos
	}
	return &m.text
}

// Ensure returns the session for proto, dialing it first if needed.
func (m *Sessions) Ensure(ctx context.Context, proto Protocol) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	slot := m.slot(proto)
	if *slot != nil {
		return *slot, nil
	}

	addr := net.JoinHostPort(m.host, strconv.Itoa(proto.Port()))
	m.logger.Debug("connecting", "protocol", proto, "addr", addr)
	conn, err := m.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, NewConnectionError("failed to connect to "+addr, err)
	}

	*slot = newSession(proto, conn, m.logger)
	return *slot, nil
}

// Close closes every session that was opened.
func (m *Sessions) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	var firstErr error
	for _, s := range []*Session{m.text, m.heos} {
		if s == nil {
			continue
		}
		if err := s.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.text, m.heos = nil, nil
	return firstErr
}
