package worker

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ChuLiYu/drone-dispatch/internal/builder"
)

type Worker struct {
	id       int           // Worker identifier, used for logging and debugging
	taskCh   <-chan Task   // Task channel (read-only)
	resultCh chan<- Result // Result channel (write-only)
	stopCh   <-chan struct{}
}

func newWorker(id int, taskCh <-chan Task, resultCh chan<- Result, stopCh <-chan struct{}) *Worker {
	return &Worker{
		id:       id,
		taskCh:   taskCh,
		resultCh: resultCh,
		stopCh:   stopCh,
	}
}

// Run builds schedules until the pool stops. Results are never dropped
// while the pool is running.
func (w *Worker) Run() {
	for {
		select {
		case <-w.stopCh:
			return
		case task := <-w.taskCh:
			result := w.execute(task)
			select {
			case w.resultCh <- result:
			case <-w.stopCh:
				return
			}
		}
	}
}

// execute builds one schedule. Each task owns its random source and its
// private copies of warehouse and order state, so nothing mutable is shared
// between workers.
func (w *Worker) execute(task Task) (result Result) {
	start := time.Now()
	result.TaskID = task.ID

	defer func() {
		if r := recover(); r != nil {
			result.Chromosome = nil
			result.Err = fmt.Errorf("worker %d: task %d: build panicked: %v", w.id, task.ID, r)
		}
		result.Duration = time.Since(start)
	}()

	rng := rand.New(rand.NewSource(task.Seed))
	result.Chromosome, result.Report = builder.Greedy(task.Problem, task.Policy, rng)
	return result
}
