// =============================================================================
// main.go - denounce Entry Point
// =============================================================================
//
// denounce is a command-line remote for Denon and Marantz receivers. Every
// invocation runs one command and exits; the two protocol connections it
// opens live exactly as long as the process.
//
// Usage:
//
//	denounce select-input media-player     Switch audio input (alias: si)
//	denounce video-select blu-ray          Switch video input (alias: sv)
//	denounce get-player-id                 Print the first HEOS player id
//	denounce play-url http://host/stream   Play a stream (alias: url)
//	denounce text MVUP                     Raw text command
//	denounce text                          Interactive text shell
//	denounce heos --subscribe              Interactive HEOS shell with events
//	denounce generate-completions          zsh completion script
//
// Exit status is 0 on success and 1 on any failure.
//
// =============================================================================

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one command line and returns the process exit code.
//
// GO CONCEPT: os.Exit Skips Deferred Calls
// ----------------------------------------
// os.Exit ends the process immediately; deferred functions in the calling
// goroutine never run. Keeping all the work in run(), which returns an
// int, lets the defers below (closing the receiver sessions, stopping the
// signal watcher) run before main() exits with the code.
//
// Compare with Python: sys.exit() raises SystemExit, so `finally` blocks
// still run. Go's os.Exit is closer to Python's os._exit().
func run(args []string) int {
	// GO CONCEPT: signal.NotifyContext
	// --------------------------------
	// NotifyContext returns a context that is cancelled when one of the
	// listed signals arrives. cobra passes it to every command through
	// cmd.Context(), and the client checks it between protocol reads, so
	// Ctrl-C during get-player-id stops the command cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{}
	defer a.close()

	root := newRootCommand(a)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		printError(err)
		return 1
	}
	return 0
}
