package smartsock

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// executor is the single cooperative goroutine of §5: every connection's
// send path, receive path, ack processing and timeout/liveness sweep run
// on it. asyncSend and the read loop only ever post a task here; they
// never mutate inline. The registry, the observer set and the recv drain
// in DispatchReceivedPackets are also touched from caller goroutines,
// under the socket's registry lock or the connection's mutex. The task queue is an unbounded slice rather than a
// fixed channel — like the Boost io_service::post model the original
// was built on — so a task running on the executor goroutine can post
// more work (a resend, a re-enqueue) without ever blocking on itself.
type executor struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// newExecutor builds an executor, reserving initialCap slots in its task
// queue up front, and starts its run loop under an errgroup so Shutdown
// can wait for a clean exit.
func newExecutor(initialCap int) *executor {
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	e := &executor{
		queue:  make([]func(), 0, initialCap),
		wake:   make(chan struct{}, 1),
		group:  group,
		ctx:    gctx,
		cancel: cancel,
	}
	group.Go(e.run)
	return e
}

func (e *executor) run() error {
	for {
		task, ok := e.dequeue()
		if ok {
			task()
			continue
		}
		select {
		case <-e.ctx.Done():
			return nil
		case <-e.wake:
		}
	}
}

func (e *executor) dequeue() (func(), bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil, false
	}
	task := e.queue[0]
	e.queue = e.queue[1:]
	return task, true
}

// post appends task to the queue and returns immediately; it never
// blocks, whether called from an external goroutine or from a task
// already running on the executor itself. Posts after shutdown are
// dropped, per §5's cancellation contract.
func (e *executor) post(task func()) {
	select {
	case <-e.ctx.Done():
		return
	default:
	}
	e.mu.Lock()
	e.queue = append(e.queue, task)
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// stop cancels the executor's context, signalling every goroutine on
// its group (the run loop, plus the socket's read/sweep loops) to
// return at their next check. It does not block.
func (e *executor) stop() {
	e.cancel()
}

// wait blocks until every goroutine on the executor's group has
// returned. The socket must close its substrate conn before calling
// wait, or a goroutine parked in a blocking read will never see stop's
// cancellation.
func (e *executor) wait() error {
	return e.group.Wait()
}
