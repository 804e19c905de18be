// Copyright 2025 ippdispatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package decl recovers exported function declarations from package headers.
//
// A declaration is a single macro call of the form
//
//	IPPAPI(ReturnType, name, (params))
//
// possibly spread over several physical lines. The extractor is a small
// state machine: it strips comments, accumulates lines until the macro's
// parentheses balance, and splits the call on top-level commas.
package decl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Marker is the macro that introduces an exported declaration.
const Marker = "IPPAPI"

// ErrExhausted signals that no declaration remains. It terminates scanning
// loops and is never reported to users.
var ErrExhausted = errors.New("decl: no more declarations")

// ErrMalformed is wrapped by every MalformedError.
var ErrMalformed = errors.New("malformed declaration")

// MalformedError reports a declaration that could not be balanced or split.
type MalformedError struct {
	Line   int    // zero-based index of the line holding the marker
	Text   string // normalized text accumulated so far
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("line %d: %s: %s: %q", e.Line+1, ErrMalformed, e.Reason, e.Text)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

// Declaration is one macro call split into its three arguments.
type Declaration struct {
	ReturnType string
	Name       string
	Args       string // parameter list with exactly one pair of outer parentheses
	Text       string // whole normalized macro call
	Line       int    // zero-based index of the line holding the marker
}

// Next returns the first declaration found at or after lines[start] and the
// index to resume scanning from. When no marker remains it returns
// ErrExhausted. A malformed declaration yields a *MalformedError together
// with a resume index past it, so callers may report it and keep scanning.
//
// Next assumes lines[start] does not begin inside a block comment. The resume
// index it returns always satisfies that.
func Next(lines []string, start int) (Declaration, int, error) {
	inBlock := false
	for i := start; i < len(lines); i++ {
		var code string
		code, inBlock = stripComments(lines[i], inBlock)
		if !opensMarker(code, Marker) {
			continue
		}

		text := code
		j := i
		for {
			if open, ok := markerCall(text, Marker); ok && matchClose(text, open) >= 0 {
				break
			}
			if j+1 >= len(lines) {
				return Declaration{}, len(lines), &MalformedError{
					Line: i, Text: normalize(text), Reason: "unbalanced parentheses at end of input",
				}
			}
			nextCode, nextBlock := stripComments(lines[j+1], inBlock)
			if opensMarker(nextCode, Marker) {
				// A new statement starts before this one closed.
				return Declaration{}, j + 1, &MalformedError{
					Line: i, Text: normalize(text), Reason: "unbalanced parentheses",
				}
			}
			j++
			inBlock = nextBlock
			text += " " + nextCode
		}

		resume := j + 1
		for inBlock && resume < len(lines) {
			_, inBlock = stripComments(lines[resume], true)
			resume++
		}

		d, err := split(normalize(text), i)
		return d, resume, err
	}
	return Declaration{}, len(lines), ErrExhausted
}

// split breaks a normalized, balanced marker call into its arguments.
func split(text string, line int) (Declaration, error) {
	open, _ := markerCall(text, Marker)
	closing := matchClose(text, open)
	call := Marker + text[open:closing+1]

	fields := splitTopLevel(text[open+1 : closing])
	if len(fields) < 3 {
		return Declaration{}, &MalformedError{
			Line: line, Text: call, Reason: fmt.Sprintf("expected 3 macro arguments, found %d", len(fields)),
		}
	}

	ret := strings.TrimSpace(fields[0])
	name := strings.Join(strings.Fields(fields[1]), "")
	// Anything after the name belongs to the parameter list.
	args := strings.TrimSpace(strings.Join(fields[2:], ","))

	switch {
	case ret == "":
		return Declaration{}, &MalformedError{Line: line, Text: call, Reason: "missing return type"}
	case !isIdentifier(name):
		return Declaration{}, &MalformedError{Line: line, Text: call, Reason: fmt.Sprintf("invalid function name %q", name)}
	}

	return Declaration{
		ReturnType: ret,
		Name:       name,
		Args:       unwrapParens(args),
		Text:       call,
		Line:       line,
	}, nil
}

var headerIDRe = regexp.MustCompile(`^\s*#\s*if\s*!\s*defined\s*\(?\s*(__IPP\w*)`)

// HeaderID returns the include-guard token of the first
// "#if !defined(__IPP...)" line, or "" when the header has none.
func HeaderID(lines []string) string {
	for _, l := range lines {
		if m := headerIDRe.FindStringSubmatch(l); m != nil {
			return m[1]
		}
	}
	return ""
}

// Scanner enumerates the declarations of one header.
type Scanner struct {
	lines    []string
	pos      int
	headerID string
}

// NewScanner returns a scanner over header text. Both "\n" and "\r\n" line
// endings are accepted.
func NewScanner(text string) *Scanner {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	return &Scanner{lines: lines, headerID: HeaderID(lines)}
}

// HeaderID returns the header's include-guard token, captured when the
// scanner was created.
func (s *Scanner) HeaderID() string { return s.headerID }

// Scan returns the next declaration. It returns ErrExhausted once the header
// is consumed and *MalformedError for a declaration that cannot be parsed;
// scanning may continue after the latter.
func (s *Scanner) Scan() (Declaration, error) {
	d, next, err := Next(s.lines, s.pos)
	s.pos = next
	return d, err
}

// All scans the remaining declarations and collects the malformed ones
// separately.
func (s *Scanner) All() ([]Declaration, []*MalformedError) {
	var (
		decls []Declaration
		bad   []*MalformedError
	)
	for {
		d, err := s.Scan()
		if errors.Is(err, ErrExhausted) {
			return decls, bad
		}
		var me *MalformedError
		if errors.As(err, &me) {
			bad = append(bad, me)
			continue
		}
		decls = append(decls, d)
	}
}
