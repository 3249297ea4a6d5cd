package tui

// TUI package provides the interactive terminal pieces used by `antiarchy init`:
//   - Colored status lines
//   - Arrow-key menu selection (numbered fallback when not a TTY)
//   - Line prompts with defaults

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// =============================================================================
// COLORS
// =============================================================================

const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
	ColorGreen  = "\033[0;32m"
	ColorBlue   = "\033[0;34m"
	ColorCyan   = "\033[0;36m"
	ColorYellow = "\033[1;33m"
	ColorRed    = "\033[0;31m"
)

// ErrCancelled is returned when the user leaves a menu without choosing.
var ErrCancelled = errors.New("cancelled")

// Terminal reads answers from in and writes prompts to out.
type Terminal struct {
	in    *bufio.Reader
	out   io.Writer
	color bool
	rawFd int // -1 unless in is an interactive terminal
}

// Std returns a terminal on stdin/stdout. Colors and the arrow-key menu are
// enabled only when both are terminals.
func Std() *Terminal {
	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	t := New(os.Stdin, os.Stdout)
	if interactive {
		t.color = true
		t.rawFd = int(os.Stdin.Fd())
	}
	return t
}

// New returns a plain terminal without colors or raw mode.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, rawFd: -1}
}

func (t *Terminal) paint(color, s string) string {
	if !t.color {
		return s
	}
	return color + s + ColorReset
}

// =============================================================================
// PRINT FUNCTIONS
// =============================================================================

// Header prints a styled section header.
func (t *Terminal) Header(title string) {
	line := strings.Repeat("=", 40)
	fmt.Fprintf(t.out, "\n%s\n%s\n%s\n\n", t.paint(ColorCyan, line), t.paint(ColorBold, "       "+title), t.paint(ColorCyan, line))
}

// Success prints a message with a green [OK] prefix.
func (t *Terminal) Success(msg string) { fmt.Fprintf(t.out, "%s %s\n", t.paint(ColorGreen, "[OK]"), msg) }

// Info prints a message with a blue [INFO] prefix.
func (t *Terminal) Info(msg string) { fmt.Fprintf(t.out, "%s %s\n", t.paint(ColorBlue, "[INFO]"), msg) }

// Warn prints a message with a yellow [WARN] prefix.
func (t *Terminal) Warn(msg string) { fmt.Fprintf(t.out, "%s %s\n", t.paint(ColorYellow, "[WARN]"), msg) }

// Error prints a message with a red [ERROR] prefix.
func (t *Terminal) Error(msg string) { fmt.Fprintf(t.out, "%s %s\n", t.paint(ColorRed, "[ERROR]"), msg) }

// =============================================================================
// MENU SELECTION
// =============================================================================

// MenuItem is one menu entry.
type MenuItem struct {
	Label       string
	Description string
}

// Select shows items and returns the chosen index.
func (t *Terminal) Select(prompt string, items []MenuItem) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select")
	}
	if t.rawFd >= 0 {
		if idx, err := t.selectArrow(prompt, items); !errors.Is(err, errNoRawMode) {
			return idx, err
		}
	}
	return t.selectNumbered(prompt, items)
}

var errNoRawMode = errors.New("raw mode unavailable")

func (t *Terminal) selectArrow(prompt string, items []MenuItem) (int, error) {
	oldState, err := term.MakeRaw(t.rawFd)
	if err != nil {
		return -1, errNoRawMode
	}
	defer term.Restore(t.rawFd, oldState)

	fmt.Fprint(t.out, "\033[?25l")
	defer fmt.Fprint(t.out, "\033[?25h")

	totalLines := 3 + len(items) + 2 // blank + prompt + blank + items + blank + help
	selected := 0
	first := true

	render := func() {
		if !first {
			fmt.Fprintf(t.out, "\033[%dA", totalLines)
		}
		first = false

		fmt.Fprintf(t.out, "\033[2K\r\n%s\r\n\n", t.paint(ColorCyan, prompt))
		for i, item := range items {
			fmt.Fprint(t.out, "\033[2K\r")
			if i == selected {
				fmt.Fprintf(t.out, "  %s %s", t.paint(ColorGreen, ">"), t.paint(ColorBold, item.Label))
			} else {
				fmt.Fprintf(t.out, "    %s", item.Label)
			}
			if item.Description != "" {
				fmt.Fprintf(t.out, " %s", t.paint(ColorDim, "- "+item.Description))
			}
			fmt.Fprint(t.out, "\r\n")
		}
		fmt.Fprintf(t.out, "\033[2K\r\n  %s\r\n", t.paint(ColorDim, "[up/down] Navigate  [Enter] Select  [q/Esc] Cancel"))
	}

	erase := func() {
		fmt.Fprintf(t.out, "\033[%dA", totalLines)
		for i := 0; i < totalLines; i++ {
			fmt.Fprint(t.out, "\033[2K\r\n")
		}
		fmt.Fprintf(t.out, "\033[%dA", totalLines)
	}

	render()
	for {
		b, err := t.in.ReadByte()
		if err != nil {
			return -1, err
		}
		switch b {
		case 27: // escape or arrow sequence
			if next, _ := t.in.ReadByte(); next == '[' {
				switch arrow, _ := t.in.ReadByte(); arrow {
				case 'A':
					selected = max(selected-1, 0)
					render()
					continue
				case 'B':
					selected = min(selected+1, len(items)-1)
					render()
					continue
				}
			}
			erase()
			return -1, ErrCancelled
		case 'q', 3: // q or ctrl-c
			erase()
			return -1, ErrCancelled
		case 'k':
			selected = max(selected-1, 0)
			render()
		case 'j':
			selected = min(selected+1, len(items)-1)
			render()
		case 13, '\n':
			erase()
			return selected, nil
		}
	}
}

// selectNumbered is the fallback for non-interactive terminals.
func (t *Terminal) selectNumbered(prompt string, items []MenuItem) (int, error) {
	fmt.Fprintf(t.out, "\n%s\n\n", t.paint(ColorCyan, prompt))
	for i, item := range items {
		fmt.Fprintf(t.out, "  %s %s", t.paint(ColorGreen, fmt.Sprintf("[%d]", i+1)), item.Label)
		if item.Description != "" {
			fmt.Fprintf(t.out, " %s", t.paint(ColorDim, "- "+item.Description))
		}
		fmt.Fprintln(t.out)
	}
	fmt.Fprintf(t.out, "  %s Cancel\n\n", t.paint(ColorYellow, "[0]"))

	for {
		fmt.Fprint(t.out, "Enter number: ")
		input, err := t.readLine()
		if err != nil && input == "" {
			return -1, ErrCancelled
		}
		if input == "0" || input == "q" {
			return -1, ErrCancelled
		}
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(items) {
			return n - 1, nil
		}
		fmt.Fprintf(t.out, "Invalid choice. Enter 1-%d or 0 to cancel.\n", len(items))
	}
}

// =============================================================================
// PROMPTS
// =============================================================================

// PromptString asks for a line of input. Empty input yields def.
func (t *Terminal) PromptString(prompt, def string) string {
	if def != "" {
		fmt.Fprintf(t.out, "%s %s: ", prompt, t.paint(ColorDim, "["+def+"]"))
	} else {
		fmt.Fprintf(t.out, "%s: ", prompt)
	}
	input, _ := t.readLine()
	if input == "" {
		return def
	}
	return input
}

// PromptYesNo asks a yes/no question. Empty input yields defaultYes.
func (t *Terminal) PromptYesNo(prompt string, defaultYes bool) bool {
	suffix := " [y/N]: "
	if defaultYes {
		suffix = " [Y/n]: "
	}
	fmt.Fprint(t.out, prompt+suffix)

	input, _ := t.readLine()
	input = strings.ToLower(input)
	if input == "" {
		return defaultYes
	}
	return input == "y" || input == "yes"
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	return strings.TrimSpace(line), err
}
