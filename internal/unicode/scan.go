// Package unicode finds characters that make a string render differently
// from what a program receives: invisible joiners, bidi overrides, tag
// characters, raw control codes and Latin look-alikes from other scripts.
//
// Command names, arguments and workspace paths all pass through Scan before
// they are trusted.
package unicode

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Severity tells the caller whether a finding must stop the request or only
// be flagged for review.
type Severity string

const (
	SeverityBlock Severity = "block"
	SeverityFlag  Severity = "flag"
)

// Finding is one suspicious character.
type Finding struct {
	Category  string // zero-width, bidi-override, tag-char, control-char, invalid-utf8, homoglyph
	Codepoint string
	Offset    int
	Severity  Severity
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s at byte %d", f.Category, f.Codepoint, f.Offset)
}

// Result collects every finding in one input.
type Result struct {
	Findings []Finding
}

// Clean reports whether nothing suspicious was found.
func (r Result) Clean() bool { return len(r.Findings) == 0 }

// Blocked reports whether any finding has block severity.
func (r Result) Blocked() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Scan inspects input rune by rune. Tab, newline and carriage return are
// tolerated because they legitimately appear in inline scripts passed as
// arguments.
func Scan(input string) Result {
	var res Result
	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])
		if r == utf8.RuneError && size == 1 {
			res.Findings = append(res.Findings, Finding{
				Category:  "invalid-utf8",
				Codepoint: fmt.Sprintf("0x%02X", input[i]),
				Offset:    i,
				Severity:  SeverityBlock,
			})
			i++
			continue
		}
		if cat, sev, ok := classify(r); ok {
			res.Findings = append(res.Findings, Finding{
				Category:  cat,
				Codepoint: fmt.Sprintf("U+%04X", r),
				Offset:    i,
				Severity:  sev,
			})
		}
		i += size
	}
	return res
}

func classify(r rune) (string, Severity, bool) {
	switch {
	case isZeroWidth(r):
		return "zero-width", SeverityBlock, true
	case isBidiControl(r):
		return "bidi-override", SeverityBlock, true
	case r >= 0xE0001 && r <= 0xE007F:
		return "tag-char", SeverityBlock, true
	case isUnsafeControl(r):
		return "control-char", SeverityBlock, true
	case isHomoglyph(r):
		return "homoglyph", SeverityFlag, true
	}
	return "", "", false
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff', '\u2060', '\u180e', '\u200e', '\u200f':
		return true
	}
	return false
}

func isBidiControl(r rune) bool {
	return (r >= '\u202a' && r <= '\u202e') || (r >= '\u2066' && r <= '\u2069')
}

func isUnsafeControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r <= 0x1F || r == 0x7F || (r >= 0x80 && r <= 0x9F)
}

// Cyrillic and Greek letters rendered identically to Latin ones in common
// monospace fonts.
var homoglyphs = map[rune]bool{
	'\u0430': true, '\u0410': true, '\u0412': true, '\u0441': true, '\u0421': true, '\u0435': true, '\u0415': true,
	'\u041d': true, '\u0456': true, '\u0406': true, '\u041a': true, '\u041c': true, '\u043e': true, '\u041e': true,
	'\u0440': true, '\u0420': true, '\u0422': true, '\u0445': true, '\u0425': true, '\u0443': true, '\u0423': true,
	'\u0391': true, '\u0392': true, '\u0395': true, '\u0397': true, '\u0399': true, '\u039a': true, '\u039c': true,
	'\u039d': true, '\u039f': true, '\u03bf': true, '\u03a1': true, '\u03a4': true, '\u03a7': true, '\u03a5': true,
	'\u0396': true,
}

func isHomoglyph(r rune) bool {
	if !unicode.In(r, unicode.Cyrillic, unicode.Greek) {
		return false
	}
	return homoglyphs[r]
}
