package normalize

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrShellSyntax is returned when a command line uses anything beyond plain
// and quoted words: pipes, redirects, lists, substitutions, variables.
var ErrShellSyntax = errors.New("shell constructs are not supported")

// SplitCommandLine splits a single command line into argv the way a POSIX
// shell would tokenize it, honouring quotes and backslash escapes. Nothing
// is expanded; anything that would need a shell to evaluate is an error.
func SplitCommandLine(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, errors.New("empty command line")
	}

	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, fmt.Errorf("parsing command line: %w", err)
	}
	if len(file.Stmts) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one command", ErrShellSyntax)
	}

	stmt := file.Stmts[0]
	if stmt.Negated || stmt.Background || stmt.Coprocess || len(stmt.Redirs) > 0 {
		return nil, fmt.Errorf("%w: redirects and job control", ErrShellSyntax)
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil, fmt.Errorf("%w: only simple commands", ErrShellSyntax)
	}
	if len(call.Assigns) > 0 {
		return nil, fmt.Errorf("%w: variable assignments", ErrShellSyntax)
	}

	argv := make([]string, 0, len(call.Args))
	for _, word := range call.Args {
		s, err := literal(word)
		if err != nil {
			return nil, err
		}
		argv = append(argv, s)
	}
	return argv, nil
}

func literal(word *syntax.Word) (string, error) {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(unescape(p.Value, ""))
		case *syntax.SglQuoted:
			if p.Dollar {
				return "", fmt.Errorf("%w: $'...' strings", ErrShellSyntax)
			}
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			if p.Dollar {
				return "", fmt.Errorf("%w: $\"...\" strings", ErrShellSyntax)
			}
			for _, inner := range p.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", fmt.Errorf("%w: expansion inside double quotes", ErrShellSyntax)
				}
				sb.WriteString(unescape(lit.Value, "\"\\$`\n"))
			}
		default:
			return "", fmt.Errorf("%w: %T", ErrShellSyntax, part)
		}
	}
	return sb.String(), nil
}

// unescape removes shell backslash escapes from a literal. With an empty
// set every escaped character is taken literally (unquoted context);
// otherwise only characters in escapable lose their backslash.
func unescape(s, escapable string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch {
		case next == '\n':
			i++
		case escapable == "" || strings.IndexByte(escapable, next) >= 0:
			sb.WriteByte(next)
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
