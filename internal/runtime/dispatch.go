package runtime

import (
	goruntime "runtime"
	"sync"
)

// goroutineDispatcher runs every submitted task on its own goroutine. This is
// the default: independent branches are bounded only by the graph shape.
type goroutineDispatcher struct{}

func (goroutineDispatcher) Submit(fn func()) {
	go fn()
}

func (goroutineDispatcher) Stop() {}

// NewWorkerPoolDispatcher returns a dispatcher that executes node tasks on a
// fixed-size worker pool, acting as the engine's global concurrency limit.
// If size is zero or negative, GOMAXPROCS workers are used.
func NewWorkerPoolDispatcher(size int) *WorkerPoolDispatcher {
	if size <= 0 {
		size = goruntime.GOMAXPROCS(0)
		if size <= 0 {
			size = 1
		}
	}

	pool := &WorkerPoolDispatcher{
		tasks: make(chan func(), size*2),
	}
	pool.wg.Add(size)
	for i := 0; i < size; i++ {
		go pool.worker()
	}
	return pool
}

// WorkerPoolDispatcher bounds concurrent node tasks to a fixed worker count.
type WorkerPoolDispatcher struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

func (d *WorkerPoolDispatcher) worker() {
	defer d.wg.Done()
	for fn := range d.tasks {
		if fn != nil {
			fn()
		}
	}
}

// Submit queues fn for a worker. Blocks when the queue is full.
func (d *WorkerPoolDispatcher) Submit(fn func()) {
	d.tasks <- fn
}

// Stop closes the pool and waits for workers to drain.
func (d *WorkerPoolDispatcher) Stop() {
	d.once.Do(func() {
		close(d.tasks)
		d.wg.Wait()
	})
}
