package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTask struct {
	name  string
	calls atomic.Int32
	run   func(ctx context.Context, attempt int32) error
}

func (f *fakeTask) Name() string { return f.name }

func (f *fakeTask) Run(ctx context.Context, ev OrderPaidEvent) error {
	n := f.calls.Add(1)
	return f.run(ctx, n)
}

func fastOptions() Options {
	return Options{Timeout: 50 * time.Millisecond, Retries: 2, Backoff: time.Millisecond}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	ok := &fakeTask{name: "ok", run: func(context.Context, int32) error { return nil }}
	broken := &fakeTask{name: "broken", run: func(context.Context, int32) error { return errors.New("smtp down") }}
	panics := &fakeTask{name: "panics", run: func(context.Context, int32) error { panic("boom") }}

	d := New(fastOptions(), ok, broken, panics)
	d.Dispatch(OrderPaidEvent{OrderID: 1})
	d.Wait()

	assert.EqualValues(t, 1, ok.calls.Load())
	assert.EqualValues(t, 3, broken.calls.Load())
	assert.EqualValues(t, 3, panics.calls.Load())
}

func TestDispatchRetriesUntilSuccess(t *testing.T) {
	flaky := &fakeTask{name: "flaky", run: func(_ context.Context, attempt int32) error {
		if attempt < 2 {
			return errors.New("temporary")
		}
		return nil
	}}

	d := New(fastOptions(), flaky)
	d.Dispatch(OrderPaidEvent{OrderID: 1})
	d.Wait()

	assert.EqualValues(t, 2, flaky.calls.Load())
}

func TestDispatchTimesOutEachAttempt(t *testing.T) {
	slow := &fakeTask{name: "slow", run: func(ctx context.Context, _ int32) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	d := New(Options{Timeout: 10 * time.Millisecond, Retries: 1, Backoff: time.Millisecond}, slow)
	start := time.Now()
	d.Dispatch(OrderPaidEvent{OrderID: 1})
	d.Wait()

	assert.EqualValues(t, 2, slow.calls.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatchDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	blocked := &fakeTask{name: "blocked", run: func(context.Context, int32) error {
		<-release
		return nil
	}}

	d := New(Options{Timeout: time.Second}, blocked)
	done := make(chan struct{})
	go func() {
		d.Dispatch(OrderPaidEvent{OrderID: 1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a running task")
	}
	close(release)
	d.Close()
}

func TestDispatchAfterCloseIsDropped(t *testing.T) {
	ok := &fakeTask{name: "ok", run: func(context.Context, int32) error { return nil }}

	d := New(fastOptions(), ok)
	d.Dispatch(OrderPaidEvent{OrderID: 1})
	d.Close()

	d.Dispatch(OrderPaidEvent{OrderID: 2})
	d.Wait()

	assert.EqualValues(t, 1, ok.calls.Load())
}
