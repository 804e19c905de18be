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

// Package dispatch builds and renders CPU dispatchers.
//
// A dispatcher is a C function with the public name of a package function.
// It reads the enabled CPU features and forwards its arguments to the
// per-CPU implementation <code>_<name> of the most specialized selected CPU
// level the host supports, or returns a fallback value when none matches.
package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/ippdispatch/internal/cpu"
	"github.com/ajroetker/ippdispatch/internal/decl"
)

// Mode selects how a dispatcher gets the package initialized.
type Mode int

const (
	// Dynamic dispatchers assume the package was initialized by the library
	// entry point before the first call.
	Dynamic Mode = iota
	// Static dispatchers initialize the package on first use.
	Static
)

func (m Mode) String() string {
	if m == Static {
		return "static"
	}
	return "dynamic"
}

// ParseMode returns the mode for "static" or "dynamic".
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dynamic", "":
		return Dynamic, nil
	case "static":
		return Static, nil
	default:
		return 0, fmt.Errorf("unknown dispatcher mode: %s (valid: static, dynamic)", name)
	}
}

var (
	// ErrUnknownFunction is returned for a function missing from the table.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrUnsupportedCPU is returned for a CPU level the package does not ship.
	ErrUnsupportedCPU = cpu.ErrUnsupportedCPU
	// ErrNoVariants is returned when no CPU level is selected.
	ErrNoVariants = errors.New("no CPU variants selected")
	// ErrNotDispatchable is returned for functions without per-CPU code,
	// such as the package's own initialization API.
	ErrNotDispatchable = errors.New("function has no per-CPU implementations")
	// ErrUninitializedOverlap is returned in static mode for a CPU level whose
	// check is satisfied by the feature mask of an uninitialized library.
	ErrUninitializedOverlap = errors.New("CPU level matches the uninitialized feature mask")
)

// FunctionError ties a generation failure to the function it concerns.
type FunctionError struct {
	Function string
	Err      error
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Function, e.Err)
}

func (e *FunctionError) Unwrap() error { return e.Err }

// Options is the immutable configuration of one dispatcher build.
type Options struct {
	Package cpu.PackageType
	Arch    cpu.Arch
	OS      string    // OS name used in error messages ("Linux")
	CPUs    []cpu.CPU // selected CPU levels, any order
	// Supported restricts CPUs to what the installed package ships.
	// Nil means cpu.SupportedCPUs(Package, Arch).
	Supported []cpu.CPU
	Prefix    string
	Mode      Mode
}

// Validate checks the CPU selection against the shipped CPU levels.
func (o Options) Validate() error {
	if len(o.CPUs) == 0 {
		return ErrNoVariants
	}
	supported := o.Supported
	if supported == nil {
		supported = cpu.SupportedCPUs(o.Package, o.Arch)
	}
	return cpu.CheckSupported(o.CPUs, supported, o.Package, o.OS, o.Arch)
}

// Check is one feature test of a dispatcher.
type Check struct {
	Variant cpu.Variant
	Code    string // code path suffix ("l9")
	Symbol  string // per-CPU implementation ("l9_ippsAdd_32f")
}

// Test returns the C feature mask expression of the check.
func (c Check) Test() string { return c.Variant.FeatureTest() }

// Plan is the dispatch table of one function.
type Plan struct {
	Signature decl.Signature
	Checks    []Check // most specialized first
	Package   cpu.PackageType
	Arch      cpu.Arch
	Prefix    string
	Mode      Mode
}

// Build returns the dispatch plan of sig. Checks follow the global priority
// order regardless of the order of opts.CPUs.
func Build(sig decl.Signature, opts Options) (*Plan, error) {
	// A dispatcher for these would call itself before selecting a code path.
	if !sig.Dispatchable || sig.Name == opts.Package.InitFunc() || sig.Name == opts.Package.FeaturesFunc() {
		return nil, ErrNotDispatchable
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	p := &Plan{
		Signature: sig,
		Package:   opts.Package,
		Arch:      opts.Arch,
		Prefix:    opts.Prefix,
		Mode:      opts.Mode,
	}
	for _, v := range cpu.Priority() {
		if !slices.Contains(opts.CPUs, v.CPU) {
			continue
		}
		code, ok := v.Code(opts.Arch)
		if !ok {
			return nil, &cpu.UnsupportedError{CPU: v.CPU.String(), Package: opts.Package, OS: opts.OS, Arch: opts.Arch}
		}
		// The static init block follows the checks, so no check may run
		// before the library has been initialized.
		if opts.Mode == Static && opts.Package.Uninitialized().Contains(v.Mask()) {
			return nil, fmt.Errorf("%w: %s", ErrUninitializedOverlap, v.CPU)
		}
		p.Checks = append(p.Checks, Check{
			Variant: v,
			Code:    code,
			Symbol:  code + "_" + sig.Name,
		})
	}
	return p, nil
}

// PublicName returns the name of the emitted dispatcher.
func (p *Plan) PublicName() string {
	return p.Prefix + p.Signature.Name
}

// Select returns the check the emitted dispatcher takes when features are
// enabled, or false when it falls back.
func (p *Plan) Select(features cpu.FeatureSet) (Check, bool) {
	return lo.Find(p.Checks, func(c Check) bool {
		return features.Contains(c.Variant.Mask())
	})
}

// Fallback returns the value returned when no check matches, and false for
// functions returning void.
func (p *Plan) Fallback() (string, bool) {
	return Fallback(p.Signature.ReturnType)
}

const (
	cpuNotSupported = "ippStsCpuNotSupportedErr"
	nullValue       = "NULL"
)

var fallbacks = map[string]string{
	"IppStatus": cpuNotSupported,
	"IppiRect":  "(IppiRect) { IPP_MIN_32S / 2, IPP_MIN_32S / 2, IPP_MAX_32S, IPP_MAX_32S }",
}

// Fallback returns the value a dispatcher returns for returnType when the
// host supports none of its CPU levels. It returns false for void.
func Fallback(returnType string) (string, bool) {
	rt := strings.Join(strings.Fields(returnType), " ")
	if rt == "void" {
		return "", false
	}
	if v, ok := fallbacks[rt]; ok {
		return v, true
	}
	return nullValue, true
}
