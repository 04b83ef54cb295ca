// Package dispatch fans out the side effects of a paid order. Each task runs
// on its own goroutine with its own timeout and retries; a failing task never
// affects the others or the payment that triggered it.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

type OrderPaidEvent struct {
	StoreID    uint
	OrderID    uint
	PublicCode string
	// Source is "checkout" for zero-total orders, otherwise the provider name.
	Source string
}

type Task interface {
	Name() string
	Run(ctx context.Context, ev OrderPaidEvent) error
}

type Options struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

type Dispatcher struct {
	tasks  []Task
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	// mu orders wg.Add in Dispatch against the cancel in Close.
	mu sync.Mutex
}

func New(opts Options, tasks ...Task) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{tasks: tasks, opts: opts, ctx: ctx, cancel: cancel}
}

// Dispatch returns immediately. Events that arrive after Close are dropped.
func (d *Dispatcher) Dispatch(ev OrderPaidEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx.Err() != nil {
		log.Printf("[DISPATCH] shutting down, dropped order %d (%s) paid via %s", ev.OrderID, ev.PublicCode, ev.Source)
		return
	}
	log.Printf("[DISPATCH] order %d (%s) paid via %s, %d tasks", ev.OrderID, ev.PublicCode, ev.Source, len(d.tasks))
	for _, task := range d.tasks {
		d.wg.Add(1)
		go func(task Task) {
			defer d.wg.Done()
			d.run(task, ev)
		}(task)
	}
}

// Wait blocks until every dispatched task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops pending retries and waits for running tasks.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run(task Task, ev OrderPaidEvent) {
	backoff := d.opts.Backoff
	for attempt := 0; attempt <= d.opts.Retries; attempt++ {
		err := d.attempt(task, ev)
		if err == nil {
			return
		}
		log.Printf("[DISPATCH] %s for order %d failed (attempt %d/%d): %v", task.Name(), ev.OrderID, attempt+1, d.opts.Retries+1, err)
		if attempt == d.opts.Retries {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-d.ctx.Done():
			return
		}
	}
	log.Printf("[DISPATCH] %s for order %d gave up", task.Name(), ev.OrderID)
}

func (d *Dispatcher) attempt(task Task, ev OrderPaidEvent) (err error) {
	ctx, cancel := context.WithTimeout(d.ctx, d.opts.Timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return task.Run(ctx, ev)
}
