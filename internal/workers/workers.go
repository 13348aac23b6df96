// Package workers provides the sync server's background workers.
//
// It defines the Worker interface and a Workers aggregate that starts
// multiple workers in a unified way, plus the two workers the engine needs:
// periodic store checkpoints and stale-session sweeps.
package workers

// Worker is the interface that must be implemented by any background worker.
// It defines a single Run method that starts the worker's execution.
//
// Implementations are expected to spawn goroutines internally and stop when
// their context is done.
type Worker interface {
	Run()
}

type Workers struct {
	workers []Worker
}

func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}
