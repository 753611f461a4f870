// Package approval asks a human at the terminal before a destructive or
// flagged operation goes ahead.
package approval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type Result struct {
	Approved   bool
	UserAction string
}

type Prompt struct {
	Title          string
	Subject        string
	TriggeredRules []string
	Reasons        []string
}

// Prompter reads answers from In and writes the question to Out. A Prompter
// whose Interactive func reports false denies without asking.
type Prompter struct {
	In          io.Reader
	Out         io.Writer
	Interactive func() bool
}

// Terminal prompts on stdin/stderr.
func Terminal() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stderr, Interactive: IsInteractive}
}

func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Ask shows p and waits for approve or deny. Anything else repeats the
// question; EOF or a read error denies.
func (pr *Prompter) Ask(p Prompt) Result {
	if pr.Interactive != nil && !pr.Interactive() {
		return Result{Approved: false, UserAction: "auto_deny_non_interactive"}
	}

	out := pr.Out
	title := p.Title
	if title == "" {
		title = "APPROVAL REQUIRED"
	}
	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "  %s\n", title)
	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "  %s\n", p.Subject)

	if len(p.TriggeredRules) > 0 {
		fmt.Fprintf(out, "\nTriggered rules: %s\n", strings.Join(p.TriggeredRules, ", "))
	}
	if len(p.Reasons) > 0 {
		fmt.Fprintln(out, "Reasons:")
		for _, reason := range p.Reasons {
			fmt.Fprintf(out, "  - %s\n", reason)
		}
	}
	fmt.Fprintln(out, "")

	reader := bufio.NewReader(pr.In)
	for {
		fmt.Fprint(out, "Proceed? [y/N]: ")
		input, err := reader.ReadString('\n')
		answer := strings.TrimSpace(strings.ToLower(input))
		switch answer {
		case "y", "yes", "a", "approve":
			return Result{Approved: true, UserAction: "approve_once"}
		case "", "n", "no", "d", "deny":
			if err != nil && answer == "" {
				return Result{Approved: false, UserAction: "error_reading_input"}
			}
			return Result{Approved: false, UserAction: "deny"}
		}
		if err != nil {
			return Result{Approved: false, UserAction: "error_reading_input"}
		}
		fmt.Fprintln(out, "Please answer 'y' or 'n'.")
	}
}
