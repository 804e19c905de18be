package decl

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Table is the read-only signature lookup of a package, in declaration
// order. It is safe for concurrent use.
type Table struct {
	order     []string
	sigs      map[string]Signature
	headerIDs map[string]string
}

// Header is the scan result of one header file.
type Header struct {
	Name       string
	ID         string // include-guard token, may be empty
	Signatures []Signature
	Errors     []error // malformed declarations, already skipped
}

// ParseHeader scans header text and builds the signature of every
// declaration. Signatures start out dispatchable. Malformed declarations are
// returned in Header.Errors.
func ParseHeader(name, text string) Header {
	s := NewScanner(text)
	h := Header{Name: name, ID: s.HeaderID()}
	decls, bad := s.All()
	for _, me := range bad {
		h.Errors = append(h.Errors, fmt.Errorf("%s: %w", name, me))
	}
	for _, d := range decls {
		sig, err := ParseSignature(d)
		if err != nil {
			h.Errors = append(h.Errors, fmt.Errorf("%s: %w", name, err))
			continue
		}
		sig.Header = name
		sig.Dispatchable = true
		h.Signatures = append(h.Signatures, sig)
	}
	return h
}

// ErrDuplicate is returned when two declarations share a name.
var ErrDuplicate = errors.New("duplicate declaration")

// NewTable builds a table from headers in the given order. Signatures keep
// the Domain and Dispatchable values they carry. A name declared twice is an
// error; the first declaration is kept and the table is still returned.
func NewTable(headers ...Header) (*Table, error) {
	t := &Table{
		sigs:      make(map[string]Signature),
		headerIDs: make(map[string]string),
	}
	var errs []error
	for _, h := range headers {
		if h.ID != "" {
			t.headerIDs[h.Name] = h.ID
		}
		for _, sig := range h.Signatures {
			if prev, ok := t.sigs[sig.Name]; ok {
				errs = append(errs, fmt.Errorf("%w: %s in %s and %s", ErrDuplicate, sig.Name, prev.Header, sig.Header))
				continue
			}
			sig.Params = slices.Clone(sig.Params)
			t.sigs[sig.Name] = sig
			t.order = append(t.order, sig.Name)
		}
	}
	return t, errors.Join(errs...)
}

// Lookup returns the signature of a function.
func (t *Table) Lookup(name string) (Signature, bool) {
	sig, ok := t.sigs[name]
	if ok {
		sig.Params = slices.Clone(sig.Params)
	}
	return sig, ok
}

// Names returns every function name in declaration order.
func (t *Table) Names() []string {
	return slices.Clone(t.order)
}

// Len returns the number of functions.
func (t *Table) Len() int { return len(t.order) }

// HeaderID returns the include-guard token captured for a header.
func (t *Table) HeaderID(header string) string {
	return t.headerIDs[header]
}

// HeaderIDs returns the include-guard token of every header that has one.
func (t *Table) HeaderIDs() map[string]string {
	return maps.Clone(t.headerIDs)
}

// Filter returns the signatures, in declaration order, for which keep
// reports true.
func (t *Table) Filter(keep func(Signature) bool) []Signature {
	var out []Signature
	for _, name := range t.order {
		if sig, _ := t.Lookup(name); keep(sig) {
			out = append(out, sig)
		}
	}
	return out
}
