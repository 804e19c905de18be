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

package dispatch

import (
	"errors"
	"fmt"

	"github.com/apex/log"

	"github.com/ajroetker/ippdispatch/internal/decl"
	"github.com/ajroetker/ippdispatch/internal/workerpool"
)

// DefaultFileName is the name of the single-file dispatcher source.
const DefaultFileName = "custom_dispatcher.c"

// Generator produces dispatcher sources for batches of functions.
type Generator struct {
	Table   *decl.Table
	Options Options
	Pool    *workerpool.Pool // nil runs sequentially
	Log     log.Interface    // nil uses log.Log
}

// File is one generated source file.
type File struct {
	Name      string
	Functions []string // public names of the dispatchers it defines
	Content   string
}

// Result is the outcome of a batch. Failed functions are listed in Failures
// and left out of Files; every other function is generated.
type Result struct {
	Files    []File
	Plans    []*Plan
	Failures []*FunctionError
}

// Err joins every failure, or returns nil.
func (r *Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (g *Generator) log() log.Interface {
	if g.Log == nil {
		return log.Log
	}
	return g.Log
}

// Generate builds one source file with a dispatcher for every function that
// can be dispatched, in request order.
func (g *Generator) Generate(functions []string) (*Result, error) {
	res, err := g.plan(functions)
	if err != nil {
		return nil, err
	}
	if len(res.Plans) > 0 {
		res.Files = []File{{
			Name:      DefaultFileName,
			Functions: publicNames(res.Plans),
			Content:   EmitFile(res.Plans, g.Options.File()),
		}}
	}
	return res, nil
}

// GenerateSplit builds one source file per function, named after it.
func (g *Generator) GenerateSplit(functions []string) (*Result, error) {
	res, err := g.plan(functions)
	if err != nil {
		return nil, err
	}
	res.Files = make([]File, len(res.Plans))
	g.Pool.ForEach(len(res.Plans), func(i int) {
		p := res.Plans[i]
		res.Files[i] = File{
			Name:      p.Signature.Name + ".c",
			Functions: []string{p.PublicName()},
			Content:   EmitFile([]*Plan{p}, g.Options.File()),
		}
	})
	return res, nil
}

// plan builds the plan of every function on the pool. A configuration error
// shared by every function fails the whole batch.
func (g *Generator) plan(functions []string) (*Result, error) {
	if g.Table == nil {
		return nil, fmt.Errorf("dispatch: generator has no declaration table")
	}
	if err := g.Options.Validate(); err != nil {
		return nil, err
	}

	plans := make([]*Plan, len(functions))
	errs := make([]error, len(functions))
	g.Pool.ForEach(len(functions), func(i int) {
		plans[i], errs[i] = g.build(functions[i])
	})

	res := &Result{}
	for i, name := range functions {
		if errs[i] != nil {
			fe := &FunctionError{Function: name, Err: errs[i]}
			g.log().WithError(errs[i]).WithField("function", name).Warn("skipping dispatcher")
			res.Failures = append(res.Failures, fe)
			continue
		}
		g.log().WithFields(log.Fields{
			"function": name,
			"checks":   len(plans[i].Checks),
			"mode":     plans[i].Mode,
		}).Debug("planned dispatcher")
		res.Plans = append(res.Plans, plans[i])
	}
	return res, nil
}

func (g *Generator) build(name string) (*Plan, error) {
	sig, ok := g.Table.Lookup(name)
	if !ok {
		return nil, ErrUnknownFunction
	}
	return Build(sig, g.Options)
}

func publicNames(plans []*Plan) []string {
	names := make([]string, len(plans))
	for i, p := range plans {
		names[i] = p.PublicName()
	}
	return names
}
