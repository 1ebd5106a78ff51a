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

package engine

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iosched/ioqueue/pkg/ioqueue/types"
	logutil "github.com/iosched/ioqueue/pkg/util/logging"
)

// testCompleter captures the terminal transition of one submission.
type testCompleter struct {
	done chan struct{}
	n    uint64
	err  error
}

func newTestCompleter() *testCompleter {
	return &testCompleter{done: make(chan struct{})}
}

func (c *testCompleter) Complete(n uint64) {
	c.n = n
	close(c.done)
}

func (c *testCompleter) Fail(err error) {
	c.err = err
	close(c.done)
}

func (c *testCompleter) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatal("submission never resolved its completer")
	}
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := Open(filepath.Join(t.TempDir(), "data"), cfg, logutil.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })
	return e
}

func TestEngine_ReadWriteRoundTrip(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{Workers: 2})

	payload := []byte("four priority classes walk into a queue")
	wc := newTestCompleter()
	e.Submit(wc, &FileRequest{Kind: types.OpWrite, Name: "w1", Offset: 512, Buffer: payload})
	wc.wait(t)
	require.NoError(t, wc.err)
	assert.Equal(t, uint64(len(payload)), wc.n)

	buf := make([]byte, len(payload))
	rc := newTestCompleter()
	e.Submit(rc, &FileRequest{Kind: types.OpRead, Name: "r1", Offset: 512, Buffer: buf})
	rc.wait(t)
	require.NoError(t, rc.err)
	assert.Equal(t, uint64(len(payload)), rc.n)
	assert.Equal(t, payload, buf)
}

func TestEngine_ShortReadAtEndOfFile(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	wc := newTestCompleter()
	e.Submit(wc, &FileRequest{Kind: types.OpWrite, Name: "w1", Offset: 0, Buffer: []byte("abc")})
	wc.wait(t)
	require.NoError(t, wc.err)

	buf := make([]byte, 8)
	rc := newTestCompleter()
	e.Submit(rc, &FileRequest{Kind: types.OpRead, Name: "r1", Offset: 0, Buffer: buf})
	rc.wait(t)
	require.NoError(t, rc.err, "a short read that still moved bytes is a success")
	assert.Equal(t, uint64(3), rc.n)
}

func TestEngine_RejectsForeignRequests(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, Config{})

	c := newTestCompleter()
	e.Submit(c, &foreignRequest{})
	c.wait(t)
	require.ErrorIs(t, c.err, types.ErrUnsupportedOperation)
}

func TestEngine_FailsSubmissionsAfterClose(t *testing.T) {
	t.Parallel()
	e, err := Open(filepath.Join(t.TempDir(), "data"), Config{}, logutil.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "closing twice is harmless")

	c := newTestCompleter()
	e.Submit(c, &FileRequest{Kind: types.OpRead, Name: "r1", Buffer: make([]byte, 4)})
	c.wait(t)
	assert.Error(t, c.err)
}

func TestEngine_ConcurrentSubmitAndClose(t *testing.T) {
	t.Parallel()
	e, err := Open(filepath.Join(t.TempDir(), "data"), Config{Workers: 2}, logutil.NewTestLogger())
	require.NoError(t, err)

	// Submissions racing Close must each still resolve their completer
	// exactly once, either executed or failed, and never panic on the task
	// channel.
	const submitters = 8
	completers := make([]*testCompleter, submitters)
	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		completers[i] = newTestCompleter()
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			e.Submit(completers[i], &FileRequest{Kind: types.OpWrite, Offset: 0, Buffer: []byte("x")})
		}()
	}
	require.NoError(t, e.Close())
	wg.Wait()

	for _, c := range completers {
		c.wait(t)
	}
}

type foreignRequest struct{}

func (r *foreignRequest) Op() types.OpKind { return types.OpRead }
func (r *foreignRequest) ID() string       { return "foreign" }
