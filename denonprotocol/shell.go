package denonprotocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultPrompt is shown by the interactive shell.
const DefaultPrompt = ">>> "

// LineReader supplies lines of user input. GetLine returns io.EOF when
// input is exhausted.
type LineReader interface {
	GetLine(prompt string) (string, error)
}

// ShellOptions configures an interactive shell.
type ShellOptions struct {
	// Subscribe sends register_for_change_events before the first prompt.
	// Only honored on the HEOS protocol.
	Subscribe bool

	// Prompt defaults to DefaultPrompt.
	Prompt string

	// Input is read by the foreground loop.
	Input LineReader

	// Output receives device output from the background reader. It must
	// be safe to call concurrently with Input.GetLine.
	Output io.Writer
}

// Shell connects the user to proto in pass-through mode: every line read
// from opts.Input is written to the device, and everything the device
// sends is printed to opts.Output as it arrives.
//
// Shell returns nil when Input reaches end of input. A failure of the
// device side is reported on the next line the user enters.
func (c *Client) Shell(ctx context.Context, proto Protocol, opts ShellOptions) error {
	if opts.Input == nil || opts.Output == nil {
		return errors.New("shell requires both input and output")
	}
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}

	s, err := c.sessions.Ensure(ctx, proto)
	if err != nil {
		return err
	}

	if proto == ProtocolHEOS && opts.Subscribe {
		if err := s.WriteCommand(NewRegisterForChangeEventsCommand(true)); err != nil {
			return err
		}
	}

	sh := &shell{session: s, opts: opts}
	return sh.run(ctx)
}

type shell struct {
	session *Session
	opts    ShellOptions

	stopping  atomic.Bool
	readerErr chan error
	done      chan struct{}
}

func (sh *shell) run(ctx context.Context) error {
	sh.readerErr = make(chan error, 1)
	sh.done = make(chan struct{})

	go sh.tail()
	defer sh.stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := sh.opts.Input.GetLine(sh.opts.Prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		select {
		case rerr := <-sh.readerErr:
			return NewConnectionError("device closed the connection",
				fmt.Errorf("%w: %w", ErrReaderStopped, rerr))
		default:
		}

		if err := sh.session.WriteLine(line); err != nil {
			return err
		}
	}
}

// tail copies device output to the printer until the read fails.
func (sh *shell) tail() {
	defer close(sh.done)

	for {
		chunk, err := sh.session.ReadChunk()
		if text := formatChunk(chunk); text != "" {
			fmt.Fprintln(sh.opts.Output, text)
		}
		if err != nil {
			if !sh.stopping.Load() {
				sh.readerErr <- err
			}
			return
		}
	}
}

// stop unblocks the reader with an expired deadline and waits for it. A
// connection that rejects deadlines is closed instead, which ends the
// session.
func (sh *shell) stop() {
	sh.stopping.Store(true)
	if err := sh.session.SetReadDeadline(time.Now()); err != nil {
		sh.session.Conn().Close()
		<-sh.done
		return
	}
	<-sh.done
	sh.session.SetReadDeadline(time.Time{})
}

func formatChunk(chunk []byte) string {
	text := strings.ToValidUTF8(string(chunk), "�")
	return strings.Trim(text, "\r\n")
}
