/*
Copyright 2026 The iosched Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package engine provides a file-backed execution engine: a worker pool that
// performs positional reads and writes against a single open file and reports
// each outcome through the request's completion descriptor.
//
// The engine is the terminal stage of the request path. By the time a request
// reaches Submit it has already been admitted, so the engine never rejects for
// capacity reasons: every submission resolves its descriptor, with Complete on
// success and Fail otherwise.
package engine

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-logr/logr"
	"github.com/ncw/directio"

	"github.com/iosched/ioqueue/pkg/ioqueue/contracts"
	"github.com/iosched/ioqueue/pkg/ioqueue/types"
	logutil "github.com/iosched/ioqueue/pkg/util/logging"
)

// FileRequest is one positional read or write against the engine's file. The
// buffer's length bounds the transfer; in direct mode it must additionally be
// aligned (see AlignedBuffer).
type FileRequest struct {
	Kind   types.OpKind
	Name   string
	Offset int64
	Buffer []byte
}

var _ types.Request = &FileRequest{}

func (r *FileRequest) Op() types.OpKind { return r.Kind }
func (r *FileRequest) ID() string       { return r.Name }

// Config tunes the engine's worker pool and file access mode.
type Config struct {
	// Workers is the number of goroutines performing I/O. Defaults to 1.
	Workers int
	// QueueDepth bounds the submissions accepted ahead of the workers.
	// Defaults to 128. Submit blocks when the backlog is full; the admission
	// layer above keeps the backlog bounded in practice.
	QueueDepth int
	// Direct opens the file with O_DIRECT, bypassing the page cache. Buffers
	// for direct requests must come from AlignedBuffer.
	Direct bool
}

func (c *Config) setDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = 128
	}
}

type task struct {
	desc contracts.Completer
	req  *FileRequest
}

// Engine executes FileRequests against one open file with a fixed pool of
// workers. It implements contracts.ExecutionEngine.
type Engine struct {
	file   *os.File
	logger logr.Logger

	tasks chan task
	wg    sync.WaitGroup

	// mu orders submissions against teardown: sends happen under the read
	// lock, the channel is closed under the write lock. A submission can
	// therefore never hit a closed channel.
	mu     sync.RWMutex
	closed bool
}

var _ contracts.ExecutionEngine = &Engine{}

// Open opens (creating if needed) the file at path and starts the worker
// pool. With cfg.Direct set the file is opened through directio and the page
// cache is bypassed.
func Open(path string, cfg Config, logger logr.Logger) (*Engine, error) {
	cfg.setDefaults()

	var (
		f   *os.File
		err error
	)
	if cfg.Direct {
		f, err = directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	} else {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}

	e := &Engine{
		file:   f,
		logger: logger.WithName("file-engine").WithValues("path", path, "direct", cfg.Direct),
		tasks:  make(chan task, cfg.QueueDepth),
	}
	for i := 0; i < cfg.Workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	e.logger.V(logutil.DEBUG).Info("Started execution engine", "workers", cfg.Workers, "queueDepth", cfg.QueueDepth)
	return e, nil
}

// Submit hands one request to the worker pool. Every accepted request
// eventually resolves its descriptor; requests of the wrong concrete type, or
// submitted after Close, fail immediately.
func (e *Engine) Submit(c contracts.Completer, req types.Request) {
	fr, ok := req.(*FileRequest)
	if !ok {
		c.Fail(fmt.Errorf("%w: request %q is not a FileRequest", types.ErrUnsupportedOperation, req.ID()))
		return
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		c.Fail(fmt.Errorf("engine closed: request %q", req.ID()))
		return
	}
	e.tasks <- task{desc: c, req: fr}
}

func (e *Engine) worker() {
	defer e.wg.Done()
	for t := range e.tasks {
		e.perform(t.desc, t.req)
	}
}

func (e *Engine) perform(desc contracts.Completer, req *FileRequest) {
	var (
		n   int
		err error
	)
	switch req.Kind {
	case types.OpRead:
		n, err = e.file.ReadAt(req.Buffer, req.Offset)
		// A short read at end of file still transferred n bytes.
		if err == io.EOF && n > 0 {
			err = nil
		}
	case types.OpWrite:
		n, err = e.file.WriteAt(req.Buffer, req.Offset)
	default:
		desc.Fail(fmt.Errorf("%w: kind %s", types.ErrUnsupportedOperation, req.Kind))
		return
	}

	if err != nil {
		e.logger.V(logutil.VERBOSE).Info("Request failed",
			"requestID", req.Name, "op", req.Kind, "offset", req.Offset, "err", err)
		desc.Fail(err)
		return
	}
	desc.Complete(uint64(n))
}

// Close stops accepting submissions, drains the in-flight work, and closes
// the underlying file. Safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.tasks)
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.V(logutil.DEBUG).Info("Execution engine closed")
	return e.file.Close()
}

// AlignedBuffer returns a buffer aligned for direct I/O. Direct-mode requests
// whose buffers do not come from here may fail with EINVAL.
func AlignedBuffer(n int) []byte {
	return directio.AlignedBlock(n)
}
