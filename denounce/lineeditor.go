// =============================================================================
// lineeditor.go - Line Input for the Interactive Shell
// =============================================================================
//
// The shell reads commands one line at a time while device output is printed
// from a background goroutine. Two implementations sit behind LineEditor:
//
//   - Interactive mode: ergochat/readline, with cursor movement and an
//     in-memory history. Output written through the editor redraws the
//     prompt so device messages never garble a half-typed line.
//   - Non-interactive mode: a bufio.Scanner over the input stream, used when
//     input is piped or we run inside Emacs comint.
//
// History is never written to disk; each invocation starts fresh.
//
// =============================================================================

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

// GO CONCEPT: Package-Level Constants
// -----------------------------------
// Values fixed at compile time are constants. They have no runtime cost and
// cannot be reassigned. A value that depends on the environment, like the
// config file path, has to come from a function instead.
//
// historySize is the number of lines kept in the in-memory history.
const historySize = 500

// LineEditor reads user input and prints device output without the two
// stepping on each other.
//
// GetLine and Write may be called from different goroutines.
type LineEditor struct {
	interactive bool

	rl *readline.Instance

	// GO CONCEPT: Zero-Value Mutex
	// ----------------------------
	// sync.Mutex needs no initialization; its zero value is an unlocked
	// mutex. It must not be copied after first use, which is why
	// NewLineEditor returns *LineEditor.
	scanner *bufio.Scanner
	out     io.Writer
	mu      sync.Mutex // serializes writes to out in non-interactive mode
}

// NewLineEditor creates an editor reading from in and printing to out.
// Readline is used only when in is a terminal.
func NewLineEditor(in io.Reader, out io.Writer) *LineEditor {
	if !isInteractive(in) {
		return &LineEditor{
			scanner: bufio.NewScanner(in),
			out:     out,
		}
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
		Prompt:                 "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return &LineEditor{
			scanner: bufio.NewScanner(in),
			out:     out,
		}
	}

	return &LineEditor{
		interactive: true,
		rl:          rl,
		out:         out,
	}
}

// GO CONCEPT: Type Assertions
// ---------------------------
// in.(*os.File) asks whether the interface value in holds an *os.File.
// The two-value form returns ok=false instead of panicking, so pipes,
// strings.Reader and bytes.Buffer all fall through to the scanner path.
//
// golang.org/x/term.IsTerminal then checks the file descriptor itself:
// a redirected stdin is an *os.File but not a terminal.
func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) && os.Getenv("INSIDE_EMACS") == ""
}

// GO CONCEPT: Sentinel Errors
// ---------------------------
// A sentinel is a package-level error value that callers compare against
// with errors.Is. Returning ErrInterrupted instead of io.EOF lets the shell
// tell "the user pressed Ctrl-C" apart from "input ran out", and only the
// latter is a clean exit.
//
// ErrInterrupted is returned by GetLine when the user presses Ctrl-C.
var ErrInterrupted = errors.New("interrupted")

// GetLine displays prompt and returns the next line without its newline.
// Ctrl-D and exhausted input return io.EOF; Ctrl-C returns ErrInterrupted.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getNonInteractiveLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)
	line, err := le.rl.Readline()
	if err != nil {
		return "", readlineError(err)
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

// readlineError maps readline's Ctrl-C error to ErrInterrupted.
func readlineError(err error) error {
	if errors.Is(err, readline.ErrInterrupt) {
		return ErrInterrupted
	}
	return err
}

func (le *LineEditor) getNonInteractiveLine(prompt string) (string, error) {
	le.mu.Lock()
	fmt.Fprint(le.out, prompt)
	le.mu.Unlock()

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

// Write prints device output. In interactive mode the prompt and any
// partially typed line are redrawn below it.
func (le *LineEditor) Write(p []byte) (int, error) {
	if le.interactive {
		return le.rl.Write(p)
	}
	le.mu.Lock()
	defer le.mu.Unlock()
	return le.out.Write(p)
}

// Close releases the terminal.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether readline is in use.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}
