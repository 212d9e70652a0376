package worker

import (
	"sync"
	"sync/atomic"

	"github.com/myeof/gomllp/pkg/logger"
)

// Worker runs jobs on a fixed number of goroutines.
type Worker struct {
	wg      sync.WaitGroup
	jobs    chan func()
	once    sync.Once
	stopped chan struct{}
	running int64
	done    int64
}

// NewWorker create a new worker
// n: number of goroutines
// l: job queue length
func NewWorker(n, l int) *Worker {
	if n < 1 {
		n = 1
	}
	w := Worker{
		jobs:    make(chan func(), l),
		stopped: make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for job := range w.jobs {
				atomic.AddInt64(&w.running, 1)
				job()
				atomic.AddInt64(&w.running, -1)
				atomic.AddInt64(&w.done, 1)
			}
		}()
	}
	return &w
}

// StartJob queues job, blocking while the queue is full.
func (w *Worker) StartJob(job func()) {
	w.jobs <- job
}

// Shutdown stops accepting jobs; the returned channel closes once every
// queued job has finished. Later calls return the same channel.
func (w *Worker) Shutdown() <-chan struct{} {
	w.once.Do(func() {
		close(w.jobs)
		go func() {
			w.wg.Wait()
			close(w.stopped)
		}()
	})
	return w.stopped
}

// Status reports running, pending and finished job counts.
func (w *Worker) Status() (running, pending, done int64) {
	running = atomic.LoadInt64(&w.running)
	pending = int64(len(w.jobs))
	done = atomic.LoadInt64(&w.done)
	logger.Debugf("[%d] jobs running, [%d] jobs pending, [%d] done", running, pending, done)
	return running, pending, done
}
