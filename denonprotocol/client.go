package denonprotocol

import (
	"context"
	"fmt"
	"log/slog"
)

// Client sends commands to a receiver over its text and HEOS sessions.
//
// Every operation runs synchronously on the calling goroutine. Sessions are
// opened lazily by the first operation that needs them.
type Client struct {
	sessions *Sessions
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	dialer Dialer
	logger *slog.Logger
}

// WithDialer replaces the default net.Dialer.
func WithDialer(d Dialer) Option {
	return func(o *clientOptions) { o.dialer = d }
}

// WithLogger sets the logger used for connection and protocol diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient creates a client for the receiver at host.
func NewClient(host string, opts ...Option) *Client {
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		sessions: NewSessions(host, o.dialer, o.logger),
		logger:   o.logger,
	}
}

// Host returns the receiver address.
func (c *Client) Host() string {
	return c.sessions.Host()
}

// Session returns the session for proto, connecting if needed.
func (c *Client) Session(ctx context.Context, proto Protocol) (*Session, error) {
	return c.sessions.Ensure(ctx, proto)
}

// Close closes all open sessions.
func (c *Client) Close() error {
	return c.sessions.Close()
}

func (c *Client) sendText(ctx context.Context, cmd TextCommand) error {
	s, err := c.sessions.Ensure(ctx, ProtocolText)
	if err != nil {
		return err
	}
	return s.WriteCommand(cmd)
}

// SelectInput switches the audio input. The receiver does not acknowledge
// this command, so no reply is read.
func (c *Client) SelectInput(ctx context.Context, in Input) error {
	return c.sendText(ctx, NewSelectInputCommand(in))
}

// VideoSelect switches the video input.
func (c *Client) VideoSelect(ctx context.Context, in Input) error {
	return c.sendText(ctx, NewVideoSelectCommand(in))
}

// SendText writes line verbatim to the text session.
func (c *Client) SendText(ctx context.Context, line string) error {
	return c.sendText(ctx, NewRawTextCommand(line))
}

// SendHEOS writes line verbatim to the HEOS session. The line is not
// validated and no reply is read.
func (c *Client) SendHEOS(ctx context.Context, line string) error {
	s, err := c.sessions.Ensure(ctx, ProtocolHEOS)
	if err != nil {
		return err
	}
	if cmd, err := ParseHEOSCommand(line); err == nil {
		c.logger.Debug("raw heos command", "command", cmd.Path())
	}
	return s.WriteLine(line)
}

// GetPlayers lists the players known to the device, in device order.
func (c *Client) GetPlayers(ctx context.Context) ([]Player, error) {
	resp, err := request[[]Player](ctx, c, NewGetPlayersCommand())
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	return resp.Payload, nil
}

// GetFirstPlayerID returns the pid of the first player the device reports.
func (c *Client) GetFirstPlayerID(ctx context.Context) (int64, error) {
	players, err := c.GetPlayers(ctx)
	if err != nil {
		return 0, err
	}
	if len(players) == 0 {
		return 0, &NotFoundError{What: "player", Cause: ErrNoPlayers}
	}
	return players[0].PID, nil
}

// PlayURL plays url on player pid. A nil pid selects the first player.
func (c *Client) PlayURL(ctx context.Context, pid *int64, url string) error {
	var target int64
	if pid != nil {
		target = *pid
	} else {
		first, err := c.GetFirstPlayerID(ctx)
		if err != nil {
			return err
		}
		target = first
	}

	if _, err := request[struct{}](ctx, c, NewPlayStreamCommand(target, url)); err != nil {
		return fmt.Errorf("failed to play url: %w", err)
	}
	return nil
}

// request sends cmd on the HEOS session and waits for its reply. Events
// and interim acknowledgements that arrive first are skipped.
func request[T any](ctx context.Context, c *Client, cmd HEOSCommand) (Response[T], error) {
	s, err := c.sessions.Ensure(ctx, ProtocolHEOS)
	if err != nil {
		return Response[T]{}, err
	}
	if err := s.WriteCommand(cmd); err != nil {
		return Response[T]{}, err
	}

	raw, err := awaitReply(ctx, c.logger, s, cmd.Path())
	if err != nil {
		return Response[T]{}, err
	}
	return unwrap[T](raw)
}

func awaitReply(ctx context.Context, logger *slog.Logger, s *Session, path string) (rawResponse, error) {
	for {
		if err := ctx.Err(); err != nil {
			return rawResponse{}, err
		}

		var raw rawResponse
		if err := s.DecodeValue(&raw); err != nil {
			if de, ok := err.(*DecodeError); ok && de.Command == "" {
				de.Command = path
			}
			return rawResponse{}, err
		}

		h := raw.header()
		switch {
		case raw.Heos == nil:
			return rawResponse{}, &DecodeError{Command: path, Cause: errMissingHeader}
		case h.IsEvent():
			logger.Debug("skipping event", "command", h.Command)
			continue
		case h.IsUnderProcess():
			logger.Debug("command under process", "command", h.Command)
			continue
		case h.Command != path:
			return rawResponse{}, &DecodeError{
				Command: path,
				Cause:   fmt.Errorf("reply is for %q", h.Command),
			}
		case h.Result == ResultUnknown:
			return rawResponse{}, &DecodeError{Command: path, Cause: errMissingResult}
		}
		return raw, nil
	}
}
