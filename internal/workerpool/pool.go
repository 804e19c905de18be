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

// Package workerpool runs independent generation jobs on a fixed set of
// goroutines. A Pool is created once per command and shared by every batch
// the command generates.
//
//	pool := workerpool.New(0)
//	defer pool.Close()
//
//	pool.ForEach(len(functions), func(i int) {
//	    results[i] = generate(functions[i])
//	})
//
// Jobs write to their own index, so callers get results back in request
// order without further synchronization.
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. The zero value and a nil *Pool are
// valid and run every job on the calling goroutine.
type Pool struct {
	size  int
	jobs  chan job
	mu    sync.RWMutex // guards sends on jobs against Close
	close sync.Once
	done  atomic.Bool
}

type job struct {
	run func()
	wg  *sync.WaitGroup
}

// New starts a pool of size workers. A size <= 0 uses GOMAXPROCS.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		size: size,
		jobs: make(chan job, size),
	}
	for range size {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	for j := range p.jobs {
		j.run()
		j.wg.Done()
	}
}

// Size returns the number of workers, or 1 for a sequential pool.
func (p *Pool) Size() int {
	if p == nil || p.jobs == nil {
		return 1
	}
	return p.size
}

// Close stops the workers after queued jobs finish. Later calls to ForEach
// run sequentially. Close is idempotent.
func (p *Pool) Close() {
	if p == nil || p.jobs == nil {
		return
	}
	p.close.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.done.Store(true)
		close(p.jobs)
	})
}

// ForEach calls fn for every index in [0, n) and blocks until all calls
// return. Workers claim indices one at a time, so uneven jobs balance out.
// fn must be safe for concurrent use.
func (p *Pool) ForEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := min(p.Size(), n)
	if workers == 1 || !p.submit(workers, n, fn) {
		for i := range n {
			fn(i)
		}
	}
}

// submit hands the range to the workers. It returns false when the pool is
// closed and nothing was submitted.
func (p *Pool) submit(workers, n int, fn func(i int)) bool {
	p.mu.RLock()
	if p.done.Load() {
		p.mu.RUnlock()
		return false
	}

	var (
		next atomic.Int64
		wg   sync.WaitGroup
	)
	wg.Add(workers)
	for range workers {
		p.jobs <- job{
			run: func() {
				for {
					i := int(next.Add(1)) - 1
					if i >= n {
						return
					}
					fn(i)
				}
			},
			wg: &wg,
		}
	}
	p.mu.RUnlock()
	wg.Wait()
	return true
}
