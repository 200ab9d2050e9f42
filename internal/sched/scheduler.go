package sched

import "time"

// Scheduler owns the two work pools spec.md §4.5 describes: one serving
// worker threads, one serving a distinguished main thread. It generalizes
// the teacher's pool.Pool abstraction (fixed vs dynamic capacity) into a
// fixed worker-goroutine count per pool, since taskgraph's workers drain
// four heterogeneous queue categories rather than checking out a single
// reusable object.
type Scheduler struct {
	Worker *WorkPool
	Main   *WorkPool
}

// New constructs a Scheduler and starts workerThreadCount goroutines on the
// worker pool. The main pool is never auto-started: it only makes progress
// when a caller enters it via Main.Assist, matching spec.md's "main pool
// only runs when some thread enters via active_wait" fallback.
func New(workerThreadCount uint, unusedCacheSize int) *Scheduler {
	s := &Scheduler{
		Worker: NewWorkPool(unusedCacheSize),
		Main:   NewWorkPool(unusedCacheSize),
	}
	if workerThreadCount > 0 {
		s.Worker.Run(workerThreadCount)
	}
	return s
}

// ScheduleOnWorkerThread enqueues a ready continuation on the worker pool.
func (s *Scheduler) ScheduleOnWorkerThread(job func()) { s.Worker.ScheduleReady(job) }

// ScheduleOnWorkerThreadAfter enqueues a continuation to run at or after t.
func (s *Scheduler) ScheduleOnWorkerThreadAfter(job func(), t time.Time) {
	s.Worker.ScheduleAfter(job, t)
}

// ScheduleOnMainThread enqueues a ready continuation on the main pool.
func (s *Scheduler) ScheduleOnMainThread(job func()) { s.Main.ScheduleReady(job) }

// ScheduleOnMainThreadAfter enqueues a continuation to run at or after t.
func (s *Scheduler) ScheduleOnMainThreadAfter(job func(), t time.Time) {
	s.Main.ScheduleAfter(job, t)
}

// ScheduleTaskOnWorkerThread enqueues the start of a task (spec.md §4.4
// "tasks start suspended; the scheduler resumes them"). The queued closure
// itself only spawns a fresh goroutine for job — it does not run job
// inline. This matters because a Go task body blocks its goroutine for the
// entirety of any await (Go goroutines, unlike the original's real
// coroutines, cannot suspend without parking the calling goroutine); if job
// ran directly on one of WorkPool's fixed Run(n) goroutines, a handful of
// mutually-awaiting tasks could starve the whole pool. Dispatch still goes
// through the scheduler's task queue (honoring "the scheduler resumes
// them," not a bare `go` from Submit), but execution itself gets its own
// unbounded goroutine, exactly as Go's M:N scheduler is designed to be
// used.
func (s *Scheduler) ScheduleTaskOnWorkerThread(job func()) {
	s.Worker.ScheduleTask(func() { go job() })
}

// Unused enqueues a handle-teardown thunk on the worker pool's deferred-release queue.
func (s *Scheduler) Unused(job func()) { s.Worker.Unused(job) }

// RequestStop stops both pools. In-flight goroutines are never cancelled.
func (s *Scheduler) RequestStop() {
	s.Worker.RequestStop()
	s.Main.RequestStop()
}

// Wait blocks until both pools' worker goroutines have exited.
func (s *Scheduler) Wait() {
	s.Worker.Wait()
	s.Main.Wait()
}
