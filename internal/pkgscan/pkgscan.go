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

// Package pkgscan discovers an installed native package and builds the
// declaration table from its headers.
//
// Two directory layouts are recognized:
//
//	<root>/include/<type>/<type>.h   (current)
//	<root>/include/<type>.h          (legacy)
package pkgscan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"github.com/ajroetker/ippdispatch/internal/cpu"
	"github.com/ajroetker/ippdispatch/internal/decl"
)

// Layout is the directory layout of an installed package.
type Layout int

const (
	// LayoutNew keeps headers in include/<type>/.
	LayoutNew Layout = iota
	// LayoutOld keeps headers directly in include/.
	LayoutOld
)

func (l Layout) String() string {
	if l == LayoutOld {
		return "old"
	}
	return "new"
}

// Domain is a functional area of a package with its own header.
type Domain struct {
	Tag       string // header name stem ("ipps")
	Name      string // display name ("Signal Processing")
	Threading bool   // threading-layer variant of the domain
}

// Key identifies the domain within its package ("ipps", "ippi_tl").
func (d Domain) Key() string {
	if d.Threading {
		return d.Tag + "_tl"
	}
	return d.Tag
}

// Ordered so that the first substring match classifies a header.
var domains = map[cpu.PackageType][]Domain{
	cpu.IPP: {
		{Tag: "ippcc", Name: "Color Conversion"},
		{Tag: "ippcv", Name: "Computer Vision"},
		{Tag: "ippdc", Name: "Data Compression"},
		{Tag: "ippe", Name: "Embedded Functionality"},
		{Tag: "ippi", Name: "Image Processing"},
		{Tag: "ipps", Name: "Signal Processing"},
		{Tag: "ippvm", Name: "Vector Math"},
		{Tag: "ippcore", Name: "Core"},
	},
	cpu.IPPCP: {
		{Tag: "ippcp", Name: "Cryptography"},
	},
}

var threadingDomains = []Domain{
	{Tag: "ippcc", Name: "Color Conversion TL", Threading: true},
	{Tag: "ippcv", Name: "Computer Vision TL", Threading: true},
	{Tag: "ippi", Name: "Image Processing TL", Threading: true},
	{Tag: "ippcore", Name: "Core TL", Threading: true},
}

// Domains returns the domains of a package type, threading-layer domains last.
func Domains(pkg cpu.PackageType) []Domain {
	out := append([]Domain(nil), domains[pkg]...)
	if pkg == cpu.IPP {
		out = append(out, threadingDomains...)
	}
	return out
}

// Classify returns the domain a header belongs to. Threading-layer headers
// carry "_tl" in their name.
func Classify(pkg cpu.PackageType, header string) (Domain, bool) {
	candidates := domains[pkg]
	if strings.Contains(header, "_tl") {
		candidates = threadingDomains
	}
	for _, d := range candidates {
		if strings.Contains(header, d.Tag) {
			return d, true
		}
	}
	return Domain{}, false
}

// dispatchable reports whether a function of a header has per-CPU code. The
// package runtime API is excluded wherever it is declared.
func dispatchable(pkg cpu.PackageType, header string, d Domain, name string) bool {
	return header != pkg.DefsHeader() && !d.Threading && d.Tag != "ippcore" && !pkg.IsCore(name)
}

// ErrNotPackage is returned when root holds no recognizable package.
var ErrNotPackage = errors.New("no package headers found")

// Package is an installed native package.
type Package struct {
	Root       string
	Type       cpu.PackageType
	Layout     Layout
	HeadersDir string
	Version    string // "" when ippversion.h is missing or has no version string
	Table      *decl.Table
	Domains    map[string]Domain // by header file name
	// Skipped lists malformed declarations and duplicates left out of Table.
	Skipped []error
}

// Name returns the product name and version ("... Version 1.1.0 (12.1 )").
func (p *Package) Name() string {
	v := p.Version
	if v == "" {
		v = "None"
	}
	return fmt.Sprintf("%s Version %s", p.Type.DisplayName(), v)
}

// DefsInclude returns the include path of the definitions header, relative
// to the package include directory.
func (p *Package) DefsInclude() string {
	if p.Layout == LayoutNew {
		return p.Type.Prefix() + "/" + p.Type.DefsHeader()
	}
	return p.Type.DefsHeader()
}

// Loader opens packages and reports skipped declarations through Log.
type Loader struct {
	Log log.Interface // nil uses log.Log
}

// Open discovers the package under root with the default loader.
func Open(root string) (*Package, error) {
	return (&Loader{}).Open(root)
}

func (l *Loader) log() log.Interface {
	if l.Log == nil {
		return log.Log
	}
	return l.Log
}

// Open discovers the package type and layout under root and scans every
// domain header.
func (l *Loader) Open(root string) (*Package, error) {
	p, err := detect(root)
	if err != nil {
		return nil, err
	}
	logger := l.log().WithFields(log.Fields{"root": root, "type": p.Type, "layout": p.Layout})

	entries, err := os.ReadDir(p.HeadersDir)
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	var headers []decl.Header
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".h") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(p.HeadersDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		h, d, ok := ScanHeader(p.Type, e.Name(), string(data))
		if !ok {
			continue
		}
		for _, err := range h.Errors {
			logger.WithError(err).Warn("skipping declaration")
		}
		p.Skipped = append(p.Skipped, h.Errors...)
		if len(h.Signatures) == 0 {
			continue
		}
		p.Domains[e.Name()] = d
		headers = append(headers, h)
		logger.WithFields(log.Fields{"header": e.Name(), "functions": len(h.Signatures)}).Debug("scanned header")
	}

	table, err := decl.NewTable(headers...)
	if err != nil {
		logger.WithError(err).Warn("duplicate declarations")
		p.Skipped = append(p.Skipped, err)
	}
	p.Table = table

	if data, err := os.ReadFile(filepath.Join(p.HeadersDir, "ippversion.h")); err == nil {
		p.Version, _ = ParseVersion(string(data))
	}
	return p, nil
}

func detect(root string) (*Package, error) {
	include := filepath.Join(root, "include")
	for _, pkg := range cpu.PackageTypes {
		for _, layout := range []Layout{LayoutNew, LayoutOld} {
			dir := include
			if layout == LayoutNew {
				dir = filepath.Join(include, pkg.Prefix())
			}
			if _, err := os.Stat(filepath.Join(dir, pkg.MainHeader())); err == nil {
				return &Package{
					Root:       root,
					Type:       pkg,
					Layout:     layout,
					HeadersDir: dir,
					Domains:    make(map[string]Domain),
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w under %s", ErrNotPackage, include)
}

// ScanHeader parses one header of a package of type pkg. It returns false
// for headers outside every domain. Signatures carry the domain key and are
// marked non-dispatchable for the definitions, core and threading-layer
// headers and for the package runtime API.
func ScanHeader(pkg cpu.PackageType, name, text string) (decl.Header, Domain, bool) {
	d, ok := Classify(pkg, name)
	if !ok {
		return decl.Header{}, Domain{}, false
	}
	h := decl.ParseHeader(name, text)
	for i := range h.Signatures {
		h.Signatures[i].Domain = d.Key()
		h.Signatures[i].Dispatchable = dispatchable(pkg, name, d, h.Signatures[i].Name)
	}
	return h, d, true
}
