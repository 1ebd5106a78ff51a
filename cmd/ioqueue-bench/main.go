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

// ioqueue-bench pushes a stream of reads and writes through an I/O queue
// backed by the file execution engine and reports per-class throughput. It
// uses an inline scheduler that admits every ticket immediately, so the
// numbers reflect the admission path and the engine, not fair queuing.
package main

import (
	"context"
	"flag"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iosched/ioqueue/pkg/ioqueue"
	"github.com/iosched/ioqueue/pkg/ioqueue/contracts"
	"github.com/iosched/ioqueue/pkg/ioqueue/engine"
	"github.com/iosched/ioqueue/pkg/ioqueue/registry"
	"github.com/iosched/ioqueue/pkg/ioqueue/types"
	logutil "github.com/iosched/ioqueue/pkg/util/logging"
)

var (
	path         = flag.String("path", "ioqueue-bench.dat", "File the engine reads and writes")
	direct       = flag.Bool("direct", false, "Open the file with O_DIRECT")
	workers      = flag.Int("workers", 4, "Execution engine worker count")
	requests     = flag.Int("requests", 4096, "Total requests to issue")
	requestSize  = flag.Int("request-size", 4096, "Bytes per request")
	writePercent = flag.Int("write-percent", 50, "Share of requests that are writes, 0-100")
	logVerbosity = flag.Int("v", logutil.DEFAULT, "number for the log level verbosity")
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	logger := initLogging(*logVerbosity)

	eng, err := engine.Open(*path, engine.Config{Workers: *workers, Direct: *direct}, logger)
	if err != nil {
		logger.Error(err, "Failed to open execution engine", "path", *path)
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error(err, "Failed to close execution engine")
		}
	}()

	reg := registry.New()
	group := ioqueue.NewGroup(ioqueue.GroupConfig{
		MaxRequestCount: uint64(*workers * 32),
		MaxByteCount:    uint64(*workers*32) * uint64(*requestSize),
	}, logger)
	q := ioqueue.NewQueue(reg, group, &inlineScheduler{}, eng, ioqueue.Config{
		Mountpoint: *path,
	}, logger)

	readClass, err := reg.Register("bench-read", 100)
	if err != nil {
		return err
	}
	writeClass, err := reg.Register("bench-write", 100)
	if err != nil {
		return err
	}

	ctx := context.Background()
	start := time.Now()

	var wg sync.WaitGroup
	var failed atomic.Uint64
	for i := 0; i < *requests; i++ {
		isWrite := i%100 < *writePercent
		offset := int64(i%1024) * int64(*requestSize)

		var req *engine.FileRequest
		pc := readClass
		if isWrite {
			pc = writeClass
			req = &engine.FileRequest{Kind: types.OpWrite, Offset: offset, Buffer: newBuffer(*requestSize)}
		} else {
			req = &engine.FileRequest{Kind: types.OpRead, Offset: offset, Buffer: newBuffer(*requestSize)}
		}

		pending, err := q.QueueRequest(ctx, pc, uint64(*requestSize), req)
		if err != nil {
			logger.Error(err, "Failed to queue request", "index", i)
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := pending.Wait(ctx); err != nil {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	logger.Info("Benchmark finished",
		"requests", *requests,
		"failed", failed.Load(),
		"elapsed", elapsed,
		"throughputMBps", float64(*requests)*float64(*requestSize)/elapsed.Seconds()/(1<<20))
	return q.Close()
}

func newBuffer(n int) []byte {
	if *direct {
		return engine.AlignedBuffer(n)
	}
	return make([]byte, n)
}

func initLogging(verbosity int) logr.Logger {
	cfg := uberzap.NewDevelopmentConfig()
	cfg.Level = uberzap.NewAtomicLevelAt(zapcore.Level(-1 * verbosity))
	zapLog, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return zapr.NewLogger(zapLog)
}

// inlineScheduler admits every submission on the caller's goroutine. It keeps
// the benchmark focused on the admission path and the engine.
type inlineScheduler struct{}

var _ contracts.FairScheduler = &inlineScheduler{}

func (s *inlineScheduler) RegisterClass(shares uint32) (contracts.ClassHandle, error) {
	h := &inlineHandle{}
	h.shares.Store(shares)
	return h, nil
}

func (s *inlineScheduler) Submit(_ contracts.ClassHandle, _ types.Ticket, dispatch contracts.DispatchFunc) {
	dispatch()
}

func (s *inlineScheduler) Release(types.Ticket) {}

func (s *inlineScheduler) UnregisterClass(contracts.ClassHandle) error { return nil }

type inlineHandle struct{ shares atomic.Uint32 }

func (h *inlineHandle) Shares() uint32        { return h.shares.Load() }
func (h *inlineHandle) UpdateShares(n uint32) { h.shares.Store(n) }
