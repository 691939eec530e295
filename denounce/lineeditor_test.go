// =============================================================================
// lineeditor_test.go - Tests for LineEditor
// =============================================================================
//
// Readline needs a real TTY, so these tests exercise the non-interactive
// path: pipes and in-memory readers. Interactive behavior is covered by
// readline's own test suite.
//
// =============================================================================

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/ergochat/readline"
)

func TestNewLineEditorNonInteractiveReader(t *testing.T) {
	editor := NewLineEditor(strings.NewReader(""), io.Discard)
	defer editor.Close()

	if editor.IsInteractive() {
		t.Error("editor should be non-interactive for an in-memory reader")
	}
}

func TestNewLineEditorNonInteractivePipe(t *testing.T) {
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	defer reader.Close()
	defer writer.Close()

	editor := NewLineEditor(reader, io.Discard)
	defer editor.Close()

	if editor.IsInteractive() {
		t.Error("editor should be non-interactive when input is a pipe")
	}
}

func TestNewLineEditorWithEmacsEnv(t *testing.T) {
	t.Setenv("INSIDE_EMACS", "29.1,comint")

	editor := NewLineEditor(os.Stdin, io.Discard)
	defer editor.Close()

	if editor.IsInteractive() {
		t.Error("editor should be non-interactive when INSIDE_EMACS is set")
	}
}

func TestGetLineReadsFromPipe(t *testing.T) {
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	defer reader.Close()

	editor := NewLineEditor(reader, io.Discard)
	defer editor.Close()

	fmt.Fprint(writer, "heos://system/heart_beat\n")
	writer.Close()

	line, err := editor.GetLine(">>> ")
	if err != nil {
		t.Fatalf("GetLine() returned error: %v", err)
	}
	if line != "heos://system/heart_beat" {
		t.Errorf("GetLine() = %q", line)
	}
}

func TestGetLineReturnsEOFOnEmptyInput(t *testing.T) {
	editor := NewLineEditor(strings.NewReader(""), io.Discard)
	defer editor.Close()

	if _, err := editor.GetLine(">>> "); err != io.EOF {
		t.Errorf("GetLine() error = %v, want io.EOF", err)
	}
}

func TestGetLineMultipleLines(t *testing.T) {
	editor := NewLineEditor(strings.NewReader("PWON\nSIMPLAY\nMV40\n"), io.Discard)
	defer editor.Close()

	for _, expected := range []string{"PWON", "SIMPLAY", "MV40"} {
		line, err := editor.GetLine(">>> ")
		if err != nil {
			t.Fatalf("GetLine() returned error on %q: %v", expected, err)
		}
		if line != expected {
			t.Errorf("GetLine() = %q, want %q", line, expected)
		}
	}

	if _, err := editor.GetLine(">>> "); err != io.EOF {
		t.Errorf("GetLine() after exhaustion: error = %v, want io.EOF", err)
	}
}

func TestGetLinePreservesWhitespace(t *testing.T) {
	editor := NewLineEditor(strings.NewReader("  MV 40  \n\n"), io.Discard)
	defer editor.Close()

	line, _ := editor.GetLine("")
	if line != "  MV 40  " {
		t.Errorf("GetLine() = %q", line)
	}
	line, err := editor.GetLine("")
	if err != nil || line != "" {
		t.Errorf("GetLine() = %q, %v; want empty line", line, err)
	}
}

func TestGetLinePrintsPrompt(t *testing.T) {
	var out bytes.Buffer
	editor := NewLineEditor(strings.NewReader("x\n"), &out)
	defer editor.Close()

	editor.GetLine(">>> ")
	editor.GetLine(">>> ")

	if out.String() != ">>> >>> " {
		t.Errorf("output = %q, want two prompts", out.String())
	}
}

func TestLineEditorConcurrentWrite(t *testing.T) {
	var out bytes.Buffer
	editor := NewLineEditor(strings.NewReader(strings.Repeat("x\n", 50)), &out)
	defer editor.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			fmt.Fprintln(editor, "MV50")
		}
	}()
	for i := 0; i < 50; i++ {
		editor.GetLine("> ")
	}
	wg.Wait()

	if got := strings.Count(out.String(), "MV50\n"); got != 50 {
		t.Errorf("printed %d device lines, want 50", got)
	}
	if got := strings.Count(out.String(), "> "); got != 50 {
		t.Errorf("printed %d prompts, want 50", got)
	}
}

func TestCloseNonInteractiveEditor(t *testing.T) {
	editor := NewLineEditor(strings.NewReader(""), io.Discard)
	editor.Close()
	editor.Close()
}

func TestReadlineErrorMapping(t *testing.T) {
	if err := readlineError(readline.ErrInterrupt); !errors.Is(err, ErrInterrupted) {
		t.Errorf("Ctrl-C mapped to %v, want ErrInterrupted", err)
	}
	if err := readlineError(io.EOF); err != io.EOF {
		t.Errorf("EOF mapped to %v, want io.EOF", err)
	}
}
