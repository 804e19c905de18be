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

// Package config resolves command-line flags, environment variables and the
// optional config file into one immutable Config value.
//
// Settings shared by every command live at the top level of the viper key
// space ("root", "arch", "os"). Command settings are namespaced by the
// command name ("dispatcher.functions", "rename.prefix").
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/ajroetker/ippdispatch/internal/cpu"
	"github.com/ajroetker/ippdispatch/internal/dispatch"
	"github.com/ajroetker/ippdispatch/internal/platform"
)

// EnvPrefix is prepended to every environment variable read by viper.
const EnvPrefix = "IPPDISPGEN"

// Package root variables set by the vendor environment scripts, in lookup order.
var RootEnv = []string{"IPPCRYPTOROOT", "IPPROOT"}

var (
	// ErrNoRoot is returned when no package root is configured.
	ErrNoRoot = errors.New("package root not set (use --root, IPPCRYPTOROOT or IPPROOT)")
	// ErrNoFunctions is returned when a command needs functions and none are given.
	ErrNoFunctions = errors.New("no functions given (use --function or --functions-file)")
	// ErrNoCPUs is returned when a command needs CPU levels and none are given.
	ErrNoCPUs = errors.New("no CPU levels given (use --cpu)")
	// ErrNoPrefix is returned when a command needs a symbol prefix and none is given.
	ErrNoPrefix = errors.New("no prefix given (use --prefix)")
)

var prefixRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config is the resolved configuration of one command invocation.
// It is never modified after Load returns.
type Config struct {
	Root     string
	Arch     cpu.Arch
	Platform platform.Platform

	CPUs      []cpu.CPU
	Mode      dispatch.Mode
	Prefix    string
	Functions []string
	Codes     []string

	Output string
	Split  bool
	Main   bool
	Check  bool
	Print  bool
}

// Requirement names a setting a command cannot run without.
type Requirement int

const (
	NeedFunctions Requirement = 1 << iota
	NeedCPUs
	NeedPrefix
)

// Load resolves the settings of command section from v and verifies the
// requirements in need.
func Load(v *viper.Viper, section string, need Requirement) (*Config, error) {
	key := func(name string) string {
		if section == "" {
			return name
		}
		return section + "." + name
	}

	c := &Config{
		Root:   v.GetString("root"),
		Prefix: strings.TrimSpace(v.GetString(key("prefix"))),
		Output: v.GetString(key("output")),
		Split:  v.GetBool(key("split")),
		Main:   v.GetBool(key("main")),
		Check:  v.GetBool(key("check")),
		Print:  v.GetBool(key("print")),
		Codes:  cleanList(v.GetStringSlice(key("codes"))),
	}
	if c.Root == "" {
		c.Root = rootFromEnv()
	}
	if c.Root == "" {
		return nil, ErrNoRoot
	}

	var err error
	arch := v.GetString("arch")
	if arch == "" {
		arch = cpu.Intel64.String()
	}
	if c.Arch, err = cpu.ParseArch(arch); err != nil {
		return nil, err
	}
	if c.Platform, err = resolvePlatform(v.GetString("os")); err != nil {
		return nil, err
	}
	if c.Mode, err = dispatch.ParseMode(v.GetString(key("mode"))); err != nil {
		return nil, err
	}

	if c.CPUs, err = parseCPUs(v.GetStringSlice(key("cpus"))); err != nil {
		return nil, err
	}

	if c.Prefix != "" && !prefixRe.MatchString(c.Prefix) {
		return nil, fmt.Errorf("invalid prefix %q: must start a C identifier", c.Prefix)
	}

	functions := cleanList(v.GetStringSlice(key("functions")))
	if file := v.GetString(key("functions-file")); file != "" {
		listed, err := ReadFunctionsFile(file)
		if err != nil {
			return nil, err
		}
		functions = append(functions, listed...)
	}
	c.Functions = lo.Uniq(functions)

	if err := c.require(need); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) require(need Requirement) error {
	var errs []error
	if need&NeedFunctions != 0 && len(c.Functions) == 0 {
		errs = append(errs, ErrNoFunctions)
	}
	if need&NeedCPUs != 0 && len(c.CPUs) == 0 {
		errs = append(errs, ErrNoCPUs)
	}
	if need&NeedPrefix != 0 && c.Prefix == "" {
		errs = append(errs, ErrNoPrefix)
	}
	return errors.Join(errs...)
}

// DispatchOptions returns the dispatcher options for a package of type pkg.
func (c *Config) DispatchOptions(pkg cpu.PackageType) dispatch.Options {
	return dispatch.Options{
		Package:   pkg,
		Arch:      c.Arch,
		OS:        c.Platform.Name(),
		CPUs:      slices.Clone(c.CPUs),
		Supported: c.Platform.SupportedCPUs(pkg, c.Arch),
		Prefix:    c.Prefix,
		Mode:      c.Mode,
	}
}

// ReadFunctionsFile returns the function names listed in file, one per line.
// Blank lines and lines starting with '#' are ignored.
func ReadFunctionsFile(file string) ([]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read functions file: %w", err)
	}
	var names []string
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, nil
}

func rootFromEnv() string {
	for _, name := range RootEnv {
		if dir := os.Getenv(name); dir != "" {
			return dir
		}
	}
	return ""
}

func resolvePlatform(name string) (platform.Platform, error) {
	if name != "" {
		return platform.Parse(name)
	}
	if p, err := platform.Host(); err == nil {
		return p, nil
	}
	return platform.Linux{}, nil
}

func parseCPUs(names []string) ([]cpu.CPU, error) {
	var cpus []cpu.CPU
	for _, name := range cleanList(names) {
		c, err := cpu.ParseCPU(name)
		if err != nil {
			return nil, err
		}
		cpus = append(cpus, c)
	}
	return lo.Uniq(cpus), nil
}

// cleanList trims entries, splits comma-joined values and drops empty ones.
// Config files and environment variables deliver lists as one string.
func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
