package ports

// Dispatcher submits node tasks for execution and is responsible for running
// them. The engine uses it as the seam for the global concurrency limit: the
// default dispatcher runs every task on its own goroutine, while a fixed
// worker pool caps how many node tasks run at once.
type Dispatcher interface {
	// Submit schedules fn to run. It must not block the scheduler forever;
	// pooled implementations may queue.
	Submit(fn func())

	// Stop releases dispatcher resources after the run drains.
	Stop()
}
